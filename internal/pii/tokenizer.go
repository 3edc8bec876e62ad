// Package pii protects personally identifiable fields at rest. Values get
// a deterministic token for equality lookups and an encrypted copy for
// recovery by authorized callers.
package pii

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrInvalidKey indicates a key of the wrong length.
	ErrInvalidKey = errors.New("pii: key must be 32 bytes")
	// ErrCiphertextTooShort indicates truncated sealed data.
	ErrCiphertextTooShort = errors.New("pii: ciphertext too short")
)

// Tokenizer derives search tokens and seals raw values.
type Tokenizer struct {
	hmacKey []byte
	aead    cipher.AEAD
}

// NewTokenizer builds a Tokenizer from two independent 32-byte keys, one
// for the deterministic token and one for encryption.
func NewTokenizer(hmacKey, encKey []byte) (*Tokenizer, error) {
	if len(hmacKey) != 32 || len(encKey) != 32 {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, fmt.Errorf("pii: cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("pii: gcm: %w", err)
	}
	key := make([]byte, len(hmacKey))
	copy(key, hmacKey)
	return &Tokenizer{hmacKey: key, aead: aead}, nil
}

// Token produces a stable, non-reversible token for the value. Equal
// inputs always yield equal tokens so the column stays indexable.
func (t *Tokenizer) Token(value string) string {
	mac := hmac.New(sha256.New, t.hmacKey)
	mac.Write([]byte(strings.TrimSpace(value)))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Seal encrypts the value with a random nonce.
func (t *Tokenizer) Seal(value string) (string, error) {
	nonce := make([]byte, t.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("pii: nonce: %w", err)
	}
	sealed := t.aead.Seal(nonce, nonce, []byte(value), nil)
	return base64.RawStdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal.
func (t *Tokenizer) Open(sealed string) (string, error) {
	raw, err := base64.RawStdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("pii: decode: %w", err)
	}
	if len(raw) < t.aead.NonceSize() {
		return "", ErrCiphertextTooShort
	}
	nonce, ciphertext := raw[:t.aead.NonceSize()], raw[t.aead.NonceSize():]
	plain, err := t.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("pii: open: %w", err)
	}
	return string(plain), nil
}

// MaskSSN renders an SSN for display, keeping the last four digits.
func MaskSSN(ssn string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, ssn)
	if len(digits) < 4 {
		return "***"
	}
	return "***-**-" + digits[len(digits)-4:]
}

// MaskEmail hides the local part except its first character.
func MaskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 1 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
