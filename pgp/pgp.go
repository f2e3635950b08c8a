// Package pgp encrypts claim evidence under an organization's armored PGP
// public key. Decryption happens client-side by the key holder; the Decrypt
// helper here exists for tests. When no recipient key is available the
// pipeline falls back to a clearly labeled reversible encoding (see
// fallback.go) that can never be mistaken for ciphertext.
package pgp

import (
	"bytes"
	"crypto"
	_ "crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/openpgp"
	"golang.org/x/crypto/openpgp/armor"
	"golang.org/x/crypto/openpgp/packet"
)

const (
	keyBlockBegin = "-----BEGIN PGP PUBLIC KEY BLOCK-----"
	keyBlockEnd   = "-----END PGP PUBLIC KEY BLOCK-----"
)

// ErrInvalidKey means the supplied key material is malformed.
var ErrInvalidKey = errors.New("invalid PGP public key")

// ValidKeyBlock reports whether armored key material carries both key-block
// delimiters. Callers validate with this before invoking Encrypt or storing
// a key in the directory.
func ValidKeyBlock(armoredKey string) bool {
	return strings.Contains(armoredKey, keyBlockBegin) &&
		strings.Contains(armoredKey, keyBlockEnd)
}

// Engine implements encryption via golang.org/x/crypto/openpgp.
type Engine struct{}

func NewEngine() *Engine { return &Engine{} }

// Encrypt encrypts plaintext to the holder of armoredKey and returns an
// armored PGP message. Output is not byte-stable across calls (session keys
// are random); only decryptability is guaranteed.
func (e *Engine) Encrypt(plaintext []byte, armoredKey string) ([]byte, error) {
	if !ValidKeyBlock(armoredKey) {
		return nil, ErrInvalidKey
	}
	ring, err := openpgp.ReadArmoredKeyRing(strings.NewReader(armoredKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	var buf bytes.Buffer
	aw, err := armor.Encode(&buf, "PGP MESSAGE", nil)
	if err != nil {
		return nil, fmt.Errorf("armor encode: %w", err)
	}
	// Keys without preferred-hash self-signature packets make openpgp fall
	// back to RIPEMD160, which is not compiled in; pin SHA-256 instead.
	cfg := &packet.Config{DefaultHash: crypto.SHA256}
	pt, err := openpgp.Encrypt(aw, ring, nil, nil, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if _, err := pt.Write(plaintext); err != nil {
		return nil, fmt.Errorf("encrypt write: %w", err)
	}
	if err := pt.Close(); err != nil {
		return nil, fmt.Errorf("encrypt close: %w", err)
	}
	if err := aw.Close(); err != nil {
		return nil, fmt.Errorf("armor close: %w", err)
	}
	return buf.Bytes(), nil
}

// Decrypt reverses Encrypt given the matching private keyring. Test helper;
// the service never holds private keys.
func Decrypt(ciphertext []byte, ring openpgp.EntityList) ([]byte, error) {
	block, err := armor.Decode(bytes.NewReader(ciphertext))
	if err != nil {
		return nil, fmt.Errorf("armor decode: %w", err)
	}
	md, err := openpgp.ReadMessage(block.Body, ring, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("read message: %w", err)
	}
	return io.ReadAll(md.UnverifiedBody)
}
