// Package id generates opaque, URL-safe identifiers for credentials.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for generated identifiers.
const (
	PrefixSession = "sess"
	PrefixToken   = "tok"
)

// length of the random part. 32 symbols over a 64-symbol alphabet gives
// 192 bits, enough for bearer-style session identifiers.
const length = 32

// Generate returns prefix + "_" + a random NanoID, e.g. "sess_V1StGXR8Z5jdHi6BmyTx1cD0aQe9ktLp".
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New(length)
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "_" + id, nil
}
