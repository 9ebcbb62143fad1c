package common

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWipeByteArray(t *testing.T) {
	buf := []byte("s3cret-password")
	WipeByteArray(buf)
	assert.Equal(t, make([]byte, len(buf)), buf)

	WipeByteArray(nil)
}

func TestGenerateRandByteArray(t *testing.T) {
	a := GenerateRandByteArray(16)
	b := GenerateRandByteArray(16)

	require.Len(t, a, 16)
	require.Len(t, b, 16)
	assert.False(t, bytes.Equal(a, b), "two random salts should differ")
	assert.Empty(t, GenerateRandByteArray(0))
}
