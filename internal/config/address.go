package config

import (
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// ValidateAddress checks that s is a base58 string decoding to 32 bytes.
// Program and mint addresses may be program-derived, so no curve check.
func ValidateAddress(s string) error {
	raw, err := base58.Decode(s)
	if err != nil {
		return fmt.Errorf("not base58: %w", err)
	}
	if len(raw) != 32 {
		return fmt.Errorf("decodes to %d bytes, want 32", len(raw))
	}
	return nil
}

// ValidateWalletAddress additionally requires the point to lie on the
// ed25519 curve: wallet keys are real keypairs, never program-derived.
func ValidateWalletAddress(s string) error {
	raw, err := base58.Decode(s)
	if err != nil {
		return fmt.Errorf("not base58: %w", err)
	}
	if len(raw) != 32 {
		return fmt.Errorf("decodes to %d bytes, want 32", len(raw))
	}
	if !isOnCurve(raw) {
		return fmt.Errorf("not an ed25519 public key")
	}
	return nil
}

func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
