// Package secrets seals credentials stored in the settings database with
// AES-256-GCM.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	// KeySize is the required size for AES-256 keys (32 bytes)
	KeySize = 32

	// sealedPrefix marks values written by Seal. Values without it are
	// read back verbatim.
	sealedPrefix = "enc:v1:"
)

var (
	ErrInvalidKeySize     = errors.New("encryption key must be 32 bytes for AES-256")
	ErrCiphertextTooShort = errors.New("ciphertext too short")
	ErrDecryptionFailed   = errors.New("decryption failed: authentication error")
)

// Box seals and opens secret setting values.
type Box struct {
	aead cipher.AEAD
}

func NewBox(key []byte) (*Box, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &Box{aead: aead}, nil
}

// NewBoxFromBase64 creates a Box from a base64-encoded key.
func NewBoxFromBase64(encodedKey string) (*Box, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encodedKey))
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 key: %w", err)
	}
	return NewBox(key)
}

// Seal encrypts plaintext. The result carries a version prefix and the
// nonce; an empty plaintext stays empty.
func (b *Box) Seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, b.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := b.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return sealedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal. Values that were never sealed are returned as is.
func (b *Box) Open(value string) (string, error) {
	if !IsSealed(value) {
		return value, nil
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, sealedPrefix))
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}
	n := b.aead.NonceSize()
	if len(raw) < n {
		return "", ErrCiphertextTooShort
	}

	plaintext, err := b.aead.Open(nil, raw[:n], raw[n:], nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}

func IsSealed(value string) bool {
	return strings.HasPrefix(value, sealedPrefix)
}

// GenerateKey returns a new random base64-encoded 32-byte key.
func GenerateKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// ResolveKey returns the explicit key when set, else the key stored in
// keyFile, creating the file with a fresh key when it does not exist.
// created reports whether a new key file was written.
func ResolveKey(explicit, keyFile string) (key string, created bool, err error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit, false, nil
	}
	if keyFile == "" {
		return "", false, errors.New("no encryption key or key file configured")
	}

	if data, err := os.ReadFile(keyFile); err == nil {
		return strings.TrimSpace(string(data)), false, nil
	} else if !os.IsNotExist(err) {
		return "", false, fmt.Errorf("failed to read key file %s: %w", keyFile, err)
	}

	key, err = GenerateKey()
	if err != nil {
		return "", false, err
	}
	if err := os.MkdirAll(filepath.Dir(keyFile), 0o700); err != nil {
		return "", false, fmt.Errorf("failed to create key directory: %w", err)
	}
	if err := os.WriteFile(keyFile, []byte(key), 0o600); err != nil {
		return "", false, fmt.Errorf("failed to save encryption key to %s: %w", keyFile, err)
	}
	return key, true, nil
}

// KeyFilePath is the default key location for a database path.
func KeyFilePath(databasePath string) string {
	return databasePath + ".key"
}
