package util

import (
	"bytes"
	"testing"
)

func TestEncryptDecryptRoundtrip(t *testing.T) {
	plain := []byte(`{"db":{"accounts":[]},"timestamp":1700000000000}`)

	enc, err := EncryptAES("household-secret", plain)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if bytes.Contains(enc, []byte("accounts")) {
		t.Error("ciphertext leaks plaintext")
	}

	dec, err := DecryptAES("household-secret", enc)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(dec, plain) {
		t.Errorf("roundtrip mismatch: got %q", dec)
	}
}

func TestDecryptWrongPassphrase(t *testing.T) {
	enc, err := EncryptAES("right", []byte("payload"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := DecryptAES("wrong", enc); err == nil {
		t.Error("decrypt with wrong passphrase should fail")
	}
}

func TestDecryptTooShort(t *testing.T) {
	if _, err := DecryptAES("k", []byte{1, 2, 3}); err == nil {
		t.Error("short input should fail")
	}
}

func TestEncryptNonDeterministic(t *testing.T) {
	a, _ := EncryptAES("k", []byte("same"))
	b, _ := EncryptAES("k", []byte("same"))
	if bytes.Equal(a, b) {
		t.Error("two encryptions of the same plaintext should differ (random nonce)")
	}
}

func TestDeriveKeyStable(t *testing.T) {
	if !bytes.Equal(DeriveKey("p"), DeriveKey("p")) {
		t.Error("key derivation must be deterministic")
	}
	if bytes.Equal(DeriveKey("p"), DeriveKey("q")) {
		t.Error("different passphrases must derive different keys")
	}
	if len(DeriveKey("p")) != 32 {
		t.Error("derived key must be 32 bytes")
	}
}
