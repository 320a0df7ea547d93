package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashSecretRoundTrip(t *testing.T) {
	t.Parallel()

	hash, err := HashSecret("secret123")
	require.NoError(t, err)
	require.NotEqual(t, "secret123", hash)

	require.True(t, VerifySecret("secret123", hash))
	require.False(t, VerifySecret("secret124", hash))
	require.False(t, VerifySecret("", hash))
}

func TestHashSecretSalted(t *testing.T) {
	t.Parallel()

	a, err := HashSecret("same-input")
	require.NoError(t, err)
	b, err := HashSecret("same-input")
	require.NoError(t, err)

	// Salts differ, so two hashes of the same input never collide.
	require.NotEqual(t, a, b)
	require.True(t, VerifySecret("same-input", a))
	require.True(t, VerifySecret("same-input", b))
}

func TestHashSecretRejectsEmpty(t *testing.T) {
	t.Parallel()

	_, err := HashSecret("")
	require.Error(t, err)
}

func TestVerifySecretGarbageHash(t *testing.T) {
	t.Parallel()

	require.False(t, VerifySecret("anything", "not-a-bcrypt-hash"))
}
