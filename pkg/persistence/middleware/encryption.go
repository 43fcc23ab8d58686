package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/vmchat/pkg/domain"
	"github.com/aretw0/vmchat/pkg/ports"
)

// envelopePrefix marks message content that was sealed by this middleware.
const envelopePrefix = "enc:v1:"

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.HistoryStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that seals message content
// with AES-GCM. Roles stay readable so transcripts can still be counted.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	if len(config.ActiveKey) != 32 {
		return nil, errors.New("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.HistoryStore) ports.HistoryStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}, nil
}

func (m *encryptionMiddleware) Append(ctx context.Context, sessionID string, msgs ...domain.Message) error {
	sealed := make([]domain.Message, len(msgs))
	for i, msg := range msgs {
		ciphertext, err := encrypt([]byte(msg.Content), m.config.ActiveKey)
		if err != nil {
			return fmt.Errorf("failed to encrypt message: %w", err)
		}
		sealed[i] = domain.Message{
			Role:    msg.Role,
			Content: envelopePrefix + base64.StdEncoding.EncodeToString(ciphertext),
		}
	}
	return m.next.Append(ctx, sessionID, sealed...)
}

func (m *encryptionMiddleware) Load(ctx context.Context, sessionID string) ([]domain.Message, error) {
	sealed, err := m.next.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	msgs := make([]domain.Message, len(sealed))
	for i, msg := range sealed {
		encoded, ok := strings.CutPrefix(msg.Content, envelopePrefix)
		if !ok {
			// Plain messages are refused rather than passed through.
			return nil, errors.New("message is missing encrypted data envelope")
		}
		ciphertext, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
		}
		plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt message: %w", err)
		}
		msgs[i] = domain.Message{Role: msg.Role, Content: string(plainText)}
	}
	return msgs, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
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
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce, sealed := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, sealed, nil)
}
