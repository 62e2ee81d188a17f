// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/aegis/internal/platform/sec"
)

/*
TestGenerateActionToken verifies token shape, deterministic hashing, and that
the stored hash never equals the plaintext.
*/
func TestGenerateActionToken(t *testing.T) {
	plaintext, hash, err := sec.GenerateActionToken()
	require.NoError(t, err)

	// 32 random bytes, hex encoded.
	assert.Len(t, plaintext, 64)
	// SHA-256, hex encoded.
	assert.Len(t, hash, 64)
	assert.NotEqual(t, plaintext, hash)

	// The lookup hash must be re-derivable from the plaintext alone.
	assert.Equal(t, hash, sec.HashActionToken(plaintext))
}

/*
TestGenerateActionToken_Unique checks that consecutive tokens do not collide.
*/
func TestGenerateActionToken_Unique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 256; i++ {
		plaintext, hash, err := sec.GenerateActionToken()
		require.NoError(t, err)
		assert.False(t, seen[plaintext])
		seen[plaintext] = true
		seen[hash] = true
	}
}
