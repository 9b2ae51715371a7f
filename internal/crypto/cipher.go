package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"io"
	"strings"
)

// Constants for AES-256-GCM encryption.
const (
	NonceSize = 12 // GCM standard nonce size
	KeySize   = 32 // AES-256 key size
)

// Errors returned by cipher operations.
var (
	ErrInvalidKey        = errors.New("invalid encryption key: must be 32 bytes")
	ErrInvalidKeyFormat  = errors.New("invalid key format: must be 64 hex chars")
	ErrDecryptFailed     = errors.New("decryption failed: authentication error")
	ErrInvalidCiphertext = errors.New("invalid ciphertext: too short")
)

// Cipher encrypts and decrypts stored directory credentials with
// AES-256-GCM. One instance is constructed at startup from the externally
// supplied key and injected wherever credentials are handled.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher creates a cipher from a raw 32-byte key.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &Cipher{aead: gcm}, nil
}

// NewCipherFromHex creates a cipher from a 64-character hex key string.
func NewCipherFromHex(hexKey string) (*Cipher, error) {
	hexKey = strings.TrimSpace(hexKey)
	key, err := hex.DecodeString(hexKey)
	if err != nil || len(key) != KeySize {
		return nil, ErrInvalidKeyFormat
	}
	return NewCipher(key)
}

// GenerateKey generates a new random 256-bit key, returned as hex. Used by
// operators to provision ENCRYPTION_KEY, never called implicitly.
func GenerateKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", err
	}
	return hex.EncodeToString(key), nil
}

// Encrypt seals the plaintext with a fresh random nonce and returns
// base64(nonce || ciphertext).
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Tampered ciphertext or a key mismatch returns
// ErrDecryptFailed; a wrong plaintext is never returned silently.
func (c *Cipher) Decrypt(encoded string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrDecryptFailed
	}
	if len(sealed) < NonceSize+c.aead.Overhead() {
		return "", ErrInvalidCiphertext
	}

	nonce, ciphertext := sealed[:NonceSize], sealed[NonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrDecryptFailed
	}

	return string(plaintext), nil
}
