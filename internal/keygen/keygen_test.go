package keygen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateKey_LengthAndAlphabet(t *testing.T) {
	k := GenerateKey()
	require.Len(t, k, KeyLength)
	for _, c := range k {
		require.True(t, strings.ContainsRune(alphabet, c), "unexpected character %q in key", c)
	}
}

func TestGenerateKey_NoCollisions(t *testing.T) {
	seen := make(map[string]bool, 1000)
	for i := 0; i < 1000; i++ {
		k := GenerateKey()
		require.False(t, seen[k], "duplicate key generated: %s", k)
		seen[k] = true
	}
}
