// Package identity manages the service signing key and submitter tokens.
package identity

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const keyFileName = "signing.key"

// KeyManager owns the RSA key used to sign submitter tokens. The key is
// persisted so tokens survive service restarts.
type KeyManager struct {
	dir string
	key *rsa.PrivateKey
}

// NewKeyManager creates a KeyManager rooted at dir.
func NewKeyManager(dir string) *KeyManager {
	return &KeyManager{dir: dir}
}

// LoadOrCreate loads the signing key from disk, generating and persisting
// a new one on first run.
func (m *KeyManager) LoadOrCreate() error {
	err := m.Load()
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return m.Create()
}

// Load reads an existing signing key from disk.
func (m *KeyManager) Load() error {
	data, err := os.ReadFile(filepath.Join(m.dir, keyFileName))
	if err != nil {
		return err
	}

	block, _ := pem.Decode(data)
	if block == nil || block.Type != "RSA PRIVATE KEY" {
		return fmt.Errorf("no RSA private key found in %s", keyFileName)
	}
	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return fmt.Errorf("parse signing key: %w", err)
	}

	m.key = key
	return nil
}

// Create generates a fresh 2048-bit key and writes it to disk with owner-only
// permissions.
func (m *KeyManager) Create() error {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return fmt.Errorf("generate signing key: %w", err)
	}

	if err := os.MkdirAll(m.dir, 0o700); err != nil {
		return fmt.Errorf("create key dir: %w", err)
	}

	keyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	if err := os.WriteFile(filepath.Join(m.dir, keyFileName), keyPEM, 0o600); err != nil {
		return fmt.Errorf("write signing key: %w", err)
	}

	m.key = key
	return nil
}

// Key returns the loaded private key, or nil before LoadOrCreate.
func (m *KeyManager) Key() *rsa.PrivateKey {
	return m.key
}
