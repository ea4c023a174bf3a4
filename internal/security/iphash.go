package security

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// IPAnonymizer turns client addresses into stable pseudonyms for operation logs
type IPAnonymizer struct {
	key     []byte
	enabled bool
}

// NewIPAnonymizer creates an anonymizer. When disabled, addresses pass through unchanged.
// The key must be at most 64 bytes.
func NewIPAnonymizer(enabled bool, key string) (*IPAnonymizer, error) {
	if enabled && len(key) > blake2b.Size {
		return nil, fmt.Errorf("invalid ip hash key length: %d (must be at most %d)", len(key), blake2b.Size)
	}
	return &IPAnonymizer{key: []byte(key), enabled: enabled}, nil
}

// Anonymize returns a keyed BLAKE2b-256 digest of ip, or ip itself when disabled
func (a *IPAnonymizer) Anonymize(ip string) string {
	if a == nil || !a.enabled || ip == "" {
		return ip
	}

	h, err := blake2b.New256(a.key)
	if err != nil {
		// key length is checked in NewIPAnonymizer
		return ""
	}
	h.Write([]byte(ip))
	return hex.EncodeToString(h.Sum(nil))
}
