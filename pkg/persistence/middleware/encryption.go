package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/aware/pkg/domain"
	"github.com/aretw0/aware/pkg/ports"
)

// EnvelopeKey is the only parameter of an encrypted record.
const EnvelopeKey = "__encrypted__"

// ErrMissingEnvelope is returned when a stored record was not encrypted.
var ErrMissingEnvelope = errors.New("subscription is missing encrypted params envelope")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

// ParseKey decodes a base64 AES-256 key.
func ParseKey(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("invalid encryption key: %d bytes, want 32 (AES-256)", len(key))
	}
	return key, nil
}

type encryptionMiddleware struct {
	next   ports.SubscriptionStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that encrypts the parameters of
// every stored subscription with AES-GCM. Signal names, subscribers and handler
// names stay readable so that stores can still be listed and inspected.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	if len(config.ActiveKey) != 32 {
		return nil, errors.New("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.SubscriptionStore) ports.SubscriptionStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}, nil
}

func (m *encryptionMiddleware) Save(ctx context.Context, signal string, subs []domain.Subscription) error {
	sealed := make([]domain.Subscription, len(subs))
	for i, sub := range subs {
		plainText, err := json.Marshal(sub.Params)
		if err != nil {
			return fmt.Errorf("failed to marshal params: %w", err)
		}
		ciphertext, err := encrypt(plainText, m.config.ActiveKey)
		if err != nil {
			return fmt.Errorf("failed to encrypt params: %w", err)
		}
		sub.Params = domain.Params{EnvelopeKey: base64.StdEncoding.EncodeToString(ciphertext)}
		sealed[i] = sub
	}
	return m.next.Save(ctx, signal, sealed)
}

func (m *encryptionMiddleware) Load(ctx context.Context, signal string) ([]domain.Subscription, error) {
	sealed, err := m.next.Load(ctx, signal)
	if err != nil {
		return nil, err
	}

	subs := make([]domain.Subscription, len(sealed))
	for i, sub := range sealed {
		encryptedStr, ok := sub.Params[EnvelopeKey].(string)
		if !ok || len(sub.Params) != 1 {
			return nil, fmt.Errorf("%w: %s/%s", ErrMissingEnvelope, signal, sub.Subscriber)
		}
		ciphertext, err := base64.StdEncoding.DecodeString(encryptedStr)
		if err != nil {
			return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
		}
		plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt params: %w", err)
		}
		var params domain.Params
		if err := json.Unmarshal(plainText, &params); err != nil {
			return nil, fmt.Errorf("failed to unmarshal decrypted params: %w", err)
		}
		if params == nil {
			params = domain.Params{}
		}
		sub.Params = params
		subs[i] = sub
	}
	return subs, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, signal string) error {
	return m.next.Delete(ctx, signal)
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

	nonce := ciphertext[:gcm.NonceSize()]
	ciphertextBytes := ciphertext[gcm.NonceSize():]

	return gcm.Open(nil, nonce, ciphertextBytes, nil)
}
