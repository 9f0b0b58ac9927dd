// Package sessions seals bracket runs into opaque tokens the client carries between picks.
package sessions

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Dosada05/worldcup/brackets"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

var (
	ErrInvalidToken       = errors.New("run token is invalid or was tampered with")
	ErrUnsupportedVersion = errors.New("run token schema version is not supported")
	ErrSecretTooShort     = errors.New("run secret must be at least 16 bytes")
)

const hkdfInfo = "worldcup/run-token/v1"

type RunSealer struct {
	aead cipher.AEAD
}

func NewRunSealer(secret string) (*RunSealer, error) {
	if len(secret) < 16 {
		return nil, ErrSecretTooShort
	}

	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte(hkdfInfo))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("failed to derive run key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to init run cipher: %w", err)
	}
	return &RunSealer{aead: aead}, nil
}

// Seal encodes run as versioned JSON and encrypts it.
func (s *RunSealer) Seal(run *brackets.Run) (string, error) {
	plaintext, err := json.Marshal(run)
	if err != nil {
		return "", fmt.Errorf("failed to encode run: %w", err)
	}

	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := s.aead.Seal(nonce, nonce, plaintext, []byte(hkdfInfo))
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open decrypts and validates a token produced by Seal.
func (s *RunSealer) Open(token string) (*brackets.Run, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if len(raw) < s.aead.NonceSize()+s.aead.Overhead() {
		return nil, ErrInvalidToken
	}

	nonce, ciphertext := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, []byte(hkdfInfo))
	if err != nil {
		return nil, ErrInvalidToken
	}

	var run brackets.Run
	if err := json.Unmarshal(plaintext, &run); err != nil {
		return nil, ErrInvalidToken
	}
	if run.Version != brackets.RunSchemaVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, run.Version)
	}
	if err := run.Validate(); err != nil {
		return nil, err
	}
	return &run, nil
}
