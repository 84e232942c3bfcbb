// Package crypto seals model API keys before they are stored in the session cookie.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
)

var (
	// ErrInvalidKey is returned when the session secret is empty.
	ErrInvalidKey = errors.New("invalid encryption key: must not be empty")
	// ErrDecryptionFailed is returned when a sealed key cannot be opened.
	ErrDecryptionFailed = errors.New("decryption failed: invalid ciphertext or wrong key")
)

// KeySealer encrypts API keys with AES-256-GCM.
type KeySealer struct {
	aead cipher.AEAD
}

// NewKeySealer derives a 256-bit key from the secret. A base64 value that decodes
// to exactly 32 bytes is used as-is; anything else is hashed with SHA-256.
func NewKeySealer(secret string) (*KeySealer, error) {
	if secret == "" {
		return nil, ErrInvalidKey
	}

	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil || len(key) != 32 {
		sum := sha256.Sum256([]byte(secret))
		key = sum[:]
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &KeySealer{aead: aead}, nil
}

// Seal returns base64url(nonce || ciphertext). An empty key seals to "".
func (s *KeySealer) Seal(apiKey string) (string, error) {
	if apiKey == "" {
		return "", nil
	}
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(s.aead.Seal(nonce, nonce, []byte(apiKey), nil)), nil
}

// Open reverses Seal.
func (s *KeySealer) Open(sealed string) (string, error) {
	if sealed == "" {
		return "", nil
	}
	data, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("%w: base64 decode failed", ErrDecryptionFailed)
	}
	n := s.aead.NonceSize()
	if len(data) < n+s.aead.Overhead() {
		return "", fmt.Errorf("%w: ciphertext too short", ErrDecryptionFailed)
	}
	plain, err := s.aead.Open(nil, data[:n], data[n:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: authentication failed", ErrDecryptionFailed)
	}
	return string(plain), nil
}
