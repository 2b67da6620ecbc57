package main

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTSecretKeepsConfiguredValue(t *testing.T) {
	secret, err := jwtSecret("configured")
	require.NoError(t, err)
	assert.Equal(t, "configured", secret)
}

func TestJWTSecretGeneratesRandomKey(t *testing.T) {
	first, err := jwtSecret("")
	require.NoError(t, err)
	second, err := jwtSecret("")
	require.NoError(t, err)

	raw, err := hex.DecodeString(first)
	require.NoError(t, err)
	assert.Len(t, raw, 32)
	assert.NotEqual(t, first, second)
}
