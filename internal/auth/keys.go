// Package auth issues and resolves credentials, hashes passwords and gates
// requests on the resolved identity.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// KeyLength is the PASETO v4 symmetric key size in bytes.
const KeyLength = 32

// keyFile is the file under the data directory that holds the hex key.
const keyFile = "auth.key"

// LoadOrGenerateKey returns the token key stored in <dataPath>/auth.key,
// creating the directory and a fresh random key on first start.
// Rotating the file invalidates every outstanding token.
func LoadOrGenerateKey(dataPath string) ([]byte, error) {
	keyPath := filepath.Join(dataPath, keyFile)

	//#nosec G304 -- path is derived from the configured data directory
	if raw, err := os.ReadFile(keyPath); err == nil {
		return DecodeKey(strings.TrimSpace(string(raw)))
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read auth key: %w", err)
	}

	key := make([]byte, KeyLength)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate auth key: %w", err)
	}

	if err := os.MkdirAll(dataPath, 0o700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	if err := os.WriteFile(keyPath, []byte(hex.EncodeToString(key)), 0o600); err != nil {
		return nil, fmt.Errorf("save auth key: %w", err)
	}

	return key, nil
}

// DecodeKey parses a hex-encoded 32-byte key.
func DecodeKey(keyHex string) ([]byte, error) {
	if len(keyHex) != KeyLength*2 {
		return nil, fmt.Errorf("invalid auth key length: expected %d hex chars, got %d", KeyLength*2, len(keyHex))
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid auth key format: %w", err)
	}
	return key, nil
}
