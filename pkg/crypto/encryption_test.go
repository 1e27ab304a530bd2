package crypto

import (
	"encoding/base64"
	"errors"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	enc, err := NewEncryptor([]byte("test-key"))
	if err != nil {
		t.Fatalf("NewEncryptor: %v", err)
	}

	tests := []string{
		"ya29.a0AfH6SMB-access-token",
		"1//0gRefreshTokenValue",
		"short",
		"token with spaces and unicode éè",
	}

	for _, plaintext := range tests {
		ciphertext, err := enc.Encrypt(plaintext)
		if err != nil {
			t.Fatalf("Encrypt(%q): %v", plaintext, err)
		}
		if ciphertext == plaintext {
			t.Errorf("ciphertext equals plaintext for %q", plaintext)
		}

		decrypted, err := enc.Decrypt(ciphertext)
		if err != nil {
			t.Fatalf("Decrypt: %v", err)
		}
		if decrypted != plaintext {
			t.Errorf("round trip: expected %q, got %q", plaintext, decrypted)
		}
	}
}

func TestEncryptEmptyString(t *testing.T) {
	enc, _ := NewEncryptor([]byte("test-key"))

	ciphertext, err := enc.Encrypt("")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if ciphertext != "" {
		t.Errorf("expected empty ciphertext, got %q", ciphertext)
	}

	plaintext, err := enc.Decrypt("")
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if plaintext != "" {
		t.Errorf("expected empty plaintext, got %q", plaintext)
	}
}

func TestDecryptTamperedCiphertext(t *testing.T) {
	enc, _ := NewEncryptor([]byte("test-key"))

	ciphertext, err := enc.Encrypt("secret-token")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	raw, _ := base64.StdEncoding.DecodeString(ciphertext)
	raw[len(raw)-1] ^= 0xff
	tampered := base64.StdEncoding.EncodeToString(raw)

	if _, err := enc.Decrypt(tampered); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("expected ErrDecryptionFailed, got %v", err)
	}
}

func TestDecryptWrongKey(t *testing.T) {
	enc1, _ := NewEncryptor([]byte("key-one"))
	enc2, _ := NewEncryptor([]byte("key-two"))

	ciphertext, err := enc1.Encrypt("secret-token")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	if _, err := enc2.Decrypt(ciphertext); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("expected ErrDecryptionFailed, got %v", err)
	}
}

func TestDecryptTruncatedCiphertext(t *testing.T) {
	enc, _ := NewEncryptor([]byte("test-key"))

	short := base64.StdEncoding.EncodeToString([]byte("tiny"))
	if _, err := enc.Decrypt(short); !errors.Is(err, ErrInvalidCiphertext) {
		t.Errorf("expected ErrInvalidCiphertext, got %v", err)
	}

	if _, err := enc.Decrypt("not-base64!!!"); err == nil {
		t.Error("expected error for invalid base64")
	}
}

func TestNewEncryptorEmptyKey(t *testing.T) {
	if _, err := NewEncryptor(nil); err == nil {
		t.Error("expected error for empty key")
	}
}
