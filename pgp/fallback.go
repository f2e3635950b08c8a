package pgp

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const (
	fallbackBegin = "-----BEGIN UNENCRYPTED SUBMISSION-----"
	fallbackEnd   = "-----END UNENCRYPTED SUBMISSION-----"
)

// ErrNotFallback means the payload does not carry the fallback framing.
var ErrNotFallback = errors.New("payload is not fallback-encoded")

// EncodeFallback wraps plaintext in a reversible base64 encoding with an
// explicit "unencrypted" label. Used when the submitter supplies no
// recipient key; the framing keeps the degraded mode visible to reviewers.
func EncodeFallback(plaintext []byte) []byte {
	var b strings.Builder
	b.WriteString(fallbackBegin)
	b.WriteByte('\n')
	b.WriteString(base64.StdEncoding.EncodeToString(plaintext))
	b.WriteByte('\n')
	b.WriteString(fallbackEnd)
	b.WriteByte('\n')
	return []byte(b.String())
}

// IsFallback reports whether the payload carries the fallback framing.
func IsFallback(payload []byte) bool {
	return strings.HasPrefix(string(payload), fallbackBegin)
}

// DecodeFallback reverses EncodeFallback.
func DecodeFallback(payload []byte) ([]byte, error) {
	s := string(payload)
	if !strings.HasPrefix(s, fallbackBegin) {
		return nil, ErrNotFallback
	}
	s = strings.TrimPrefix(s, fallbackBegin)
	if idx := strings.Index(s, fallbackEnd); idx >= 0 {
		s = s[:idx]
	} else {
		return nil, ErrNotFallback
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("fallback decode: %w", err)
	}
	return data, nil
}
