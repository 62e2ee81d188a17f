// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ActionTokenBytes is the entropy of a single-use action token
// (email verification, password reset).
const ActionTokenBytes = 32

/*
GenerateActionToken produces a single-use action token pair.

Description: The plaintext is a 32-byte cryptographically random value, hex
encoded, shown to the user exactly once (in an email). Only its SHA-256 hash
is ever persisted, so a database leak does not disclose usable tokens.

Returns:
  - plaintext: The user-facing token
  - hash: The hex SHA-256 digest used for storage and lookup
  - err: Entropy source failures
*/
func GenerateActionToken() (plaintext, hash string, err error) {
	buf := make([]byte, ActionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("sec: failed to generate action token: %w", err)
	}

	plaintext = hex.EncodeToString(buf)
	return plaintext, HashActionToken(plaintext), nil
}

// HashActionToken derives the deterministic storage/lookup hash of a token.
// SHA-256 is one-way; the plaintext cannot be recovered from the stored value.
func HashActionToken(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}
