package pgp_test

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"golang.org/x/crypto/openpgp"
	"golang.org/x/crypto/openpgp/armor"

	"bounty-escrow-system/pgp"
)

// newTestKey generates an entity and returns it with its armored public key.
func newTestKey(t *testing.T) (*openpgp.Entity, string) {
	t.Helper()
	entity, err := openpgp.NewEntity("Acme Watchdog", "", "security@acme.example", nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	// SerializePrivate signs the self-signatures; without it the public
	// serialization below fails.
	if err := entity.SerializePrivate(io.Discard, nil); err != nil {
		t.Fatalf("sign key: %v", err)
	}

	var buf bytes.Buffer
	aw, err := armor.Encode(&buf, openpgp.PublicKeyType, nil)
	if err != nil {
		t.Fatalf("armor: %v", err)
	}
	if err := entity.Serialize(aw); err != nil {
		t.Fatalf("serialize public key: %v", err)
	}
	if err := aw.Close(); err != nil {
		t.Fatalf("close armor: %v", err)
	}
	return entity, buf.String()
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	entity, armoredPub := newTestKey(t)

	engine := pgp.NewEngine()
	plaintext := []byte("full confidential evidence, names and dates included")
	ciphertext, err := engine.Encrypt(plaintext, armoredPub)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if bytes.Contains(ciphertext, plaintext) {
		t.Fatal("ciphertext contains plaintext")
	}
	if !strings.Contains(string(ciphertext), "BEGIN PGP MESSAGE") {
		t.Fatalf("expected armored PGP message, got %q", ciphertext[:40])
	}

	got, err := pgp.Decrypt(ciphertext, openpgp.EntityList{entity})
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("round trip mismatch: got %q", got)
	}
}

func TestEncryptInvalidKey(t *testing.T) {
	engine := pgp.NewEngine()

	if _, err := engine.Encrypt([]byte("x"), "not a key"); !errors.Is(err, pgp.ErrInvalidKey) {
		t.Fatalf("missing delimiters: expected ErrInvalidKey, got %v", err)
	}

	garbage := "-----BEGIN PGP PUBLIC KEY BLOCK-----\ngarbage\n-----END PGP PUBLIC KEY BLOCK-----"
	if _, err := engine.Encrypt([]byte("x"), garbage); !errors.Is(err, pgp.ErrInvalidKey) {
		t.Fatalf("garbage body: expected ErrInvalidKey, got %v", err)
	}
}

func TestValidKeyBlock(t *testing.T) {
	if pgp.ValidKeyBlock("-----BEGIN PGP PUBLIC KEY BLOCK-----") {
		t.Fatal("missing END delimiter should not validate")
	}
	if !pgp.ValidKeyBlock("-----BEGIN PGP PUBLIC KEY BLOCK-----\nx\n-----END PGP PUBLIC KEY BLOCK-----") {
		t.Fatal("well-delimited key block should validate")
	}
}

func TestFallbackRoundTrip(t *testing.T) {
	plaintext := []byte("submitted without a recipient key")
	payload := pgp.EncodeFallback(plaintext)

	if !pgp.IsFallback(payload) {
		t.Fatal("fallback payload not recognized")
	}
	if !strings.Contains(string(payload), "UNENCRYPTED") {
		t.Fatal("fallback framing must be explicit about being unencrypted")
	}
	if bytes.Contains(payload, plaintext) {
		t.Fatal("fallback payload should carry encoded, not raw, content")
	}

	got, err := pgp.DecodeFallback(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("round trip mismatch: got %q", got)
	}
}

func TestDecodeFallbackRejectsCiphertext(t *testing.T) {
	_, armoredPub := newTestKey(t)
	engine := pgp.NewEngine()
	ciphertext, err := engine.Encrypt([]byte("x"), armoredPub)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if pgp.IsFallback(ciphertext) {
		t.Fatal("PGP message misidentified as fallback payload")
	}
	if _, err := pgp.DecodeFallback(ciphertext); !errors.Is(err, pgp.ErrNotFallback) {
		t.Fatalf("expected ErrNotFallback, got %v", err)
	}
}
