package codec

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/chatflow/pkg/domain"
)

var encryptedPrefix = []byte("chatflow:enc:v1:")

// ErrNotEncrypted is returned when an encrypted codec reads a plain record.
var ErrNotEncrypted = errors.New("session record is not encrypted")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

type encryptedCodec struct {
	inner  Codec
	config EncryptionConfig
}

// NewEncrypted wraps inner so records are sealed with AES-GCM.
// The output is printable: a version prefix followed by base64 ciphertext.
func NewEncrypted(config EncryptionConfig, inner Codec) (Codec, error) {
	if len(config.ActiveKey) != 32 {
		return nil, fmt.Errorf("active key must be 32 bytes (AES-256), got %d", len(config.ActiveKey))
	}
	for i, k := range config.FallbackKeys {
		if len(k) != 32 {
			return nil, fmt.Errorf("fallback key #%d must be 32 bytes, got %d", i, len(k))
		}
	}
	if inner == nil {
		inner = JSON()
	}
	return &encryptedCodec{inner: inner, config: config}, nil
}

func (c *encryptedCodec) Marshal(s *domain.Session) ([]byte, error) {
	plain, err := c.inner.Marshal(s)
	if err != nil {
		return nil, err
	}
	sealed, err := encrypt(plain, c.config.ActiveKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt session: %w", err)
	}
	out := make([]byte, len(encryptedPrefix)+base64.StdEncoding.EncodedLen(len(sealed)))
	copy(out, encryptedPrefix)
	base64.StdEncoding.Encode(out[len(encryptedPrefix):], sealed)
	return out, nil
}

func (c *encryptedCodec) Unmarshal(data []byte) (*domain.Session, error) {
	// Fail secure: a plain record under an encrypted codec is rejected.
	if !bytes.HasPrefix(data, encryptedPrefix) {
		return nil, ErrNotEncrypted
	}
	sealed, err := base64.StdEncoding.DecodeString(string(data[len(encryptedPrefix):]))
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}
	plain, err := decryptWithRotation(sealed, c.config.ActiveKey, c.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt session: %w", err)
	}
	return c.inner.Unmarshal(plain)
}

// ParseKey decodes a 32-byte key given as base64 or hex.
func ParseKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if k, err := base64.StdEncoding.DecodeString(s); err == nil && len(k) == 32 {
		return k, nil
	}
	if k, err := hex.DecodeString(s); err == nil && len(k) == 32 {
		return k, nil
	}
	return nil, errors.New("key must be 32 bytes encoded as base64 or hex")
}

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, body := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, body, nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
