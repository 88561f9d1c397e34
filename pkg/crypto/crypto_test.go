package crypto

import (
	"errors"
	"strings"
	"testing"
)

// ============================================================
// AES-256-GCM Tests
// ============================================================

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}

	plaintext := "smtp-password-123"

	ciphertext, err := Encrypt(plaintext, key)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if ciphertext == plaintext {
		t.Fatal("ciphertext equals plaintext")
	}

	decrypted, err := Decrypt(ciphertext, key)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if decrypted != plaintext {
		t.Errorf("expected %q, got %q", plaintext, decrypted)
	}
}

func TestEncryptInvalidKeyLength(t *testing.T) {
	_, err := Encrypt("data", []byte("short-key"))
	if !errors.Is(err, ErrInvalidKeyLength) {
		t.Errorf("expected ErrInvalidKeyLength, got %v", err)
	}
}

func TestEncryptUniqueNonce(t *testing.T) {
	key, _ := GenerateKey()

	// Одинаковый plaintext должен давать разный ciphertext (случайный nonce)
	c1, err := Encrypt("same", key)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	c2, err := Encrypt("same", key)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if c1 == c2 {
		t.Error("two encryptions of the same plaintext produced identical ciphertext")
	}
}

func TestDecryptWrongKey(t *testing.T) {
	key1, _ := GenerateKey()
	key2, _ := GenerateKey()

	ciphertext, err := Encrypt("secret", key1)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	_, err = Decrypt(ciphertext, key2)
	if !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("expected ErrDecryptionFailed, got %v", err)
	}
}

func TestDecryptTampered(t *testing.T) {
	key, _ := GenerateKey()

	ciphertext, err := Encrypt("secret", key)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	// Не-base64 ввод
	if _, err := Decrypt("%%%not-base64%%%", key); !errors.Is(err, ErrInvalidCiphertext) {
		t.Errorf("expected ErrInvalidCiphertext, got %v", err)
	}

	// Слишком короткий ciphertext
	if _, err := Decrypt("YWJj", key); !errors.Is(err, ErrCiphertextTooShort) {
		t.Errorf("expected ErrCiphertextTooShort, got %v", err)
	}

	_ = ciphertext
}

// ============================================================
// Token Hash Tests
// ============================================================

func TestHashAndVerifyToken(t *testing.T) {
	token := "service-token-for-evaluator"

	hash, err := HashToken(token)
	if err != nil {
		t.Fatalf("HashToken failed: %v", err)
	}
	if hash == token {
		t.Fatal("hash equals token")
	}

	if err := VerifyToken(token, hash); err != nil {
		t.Errorf("VerifyToken failed for correct token: %v", err)
	}

	if err := VerifyToken("wrong-token", hash); !errors.Is(err, ErrTokenMismatch) {
		t.Errorf("expected ErrTokenMismatch, got %v", err)
	}
}

func TestHashTokenEmpty(t *testing.T) {
	if _, err := HashToken(""); !errors.Is(err, ErrEmptyToken) {
		t.Errorf("expected ErrEmptyToken, got %v", err)
	}
}

func TestHashTokenTooLong(t *testing.T) {
	long := strings.Repeat("a", MaxTokenLength+1)
	if _, err := HashToken(long); !errors.Is(err, ErrTokenTooLong) {
		t.Errorf("expected ErrTokenTooLong, got %v", err)
	}
}

func TestVerifyTokenInvalidHash(t *testing.T) {
	if err := VerifyToken("token", "not-a-bcrypt-hash"); !errors.Is(err, ErrInvalidHash) {
		t.Errorf("expected ErrInvalidHash, got %v", err)
	}
	if err := VerifyToken("token", ""); !errors.Is(err, ErrInvalidHash) {
		t.Errorf("expected ErrInvalidHash for empty hash, got %v", err)
	}
}

func TestCheckTokenMatch(t *testing.T) {
	hash, err := HashToken("tok")
	if err != nil {
		t.Fatalf("HashToken failed: %v", err)
	}
	if !CheckTokenMatch("tok", hash) {
		t.Error("expected match")
	}
	if CheckTokenMatch("other", hash) {
		t.Error("expected mismatch")
	}
}
