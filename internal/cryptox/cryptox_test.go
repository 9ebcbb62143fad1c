package cryptox

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	secret := []byte("secret-password")
	salt := []byte("fixed-salt")

	key1 := DeriveKey(secret, salt)
	key2 := DeriveKey(secret, salt)

	if !bytes.Equal(key1, key2) {
		t.Errorf("expected same result for same inputs, got different")
	}
	assert.Len(t, key1, 32)
}

func TestDeriveKey_DifferentSalts(t *testing.T) {
	secret := []byte("secret-password")

	key1 := DeriveKey(secret, []byte("salt-1"))
	key2 := DeriveKey(secret, []byte("salt-2"))

	if bytes.Equal(key1, key2) {
		t.Errorf("expected different results for different salts, got same")
	}
}

func TestMakeVerifier(t *testing.T) {
	a := MakeVerifier([]byte("k1"))
	b := MakeVerifier([]byte("k2"))
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}

func TestAESCipher_RoundTrip(t *testing.T) {
	c, err := NewAESCipher(DeriveKey([]byte("s"), []byte("salt")))
	require.NoError(t, err)

	sealed, err := c.Seal([]byte("eyJhbGciOi"))
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "eyJhbGciOi")

	plain, err := c.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "eyJhbGciOi", string(plain))
}

func TestAESCipher_FreshNoncePerSeal(t *testing.T) {
	c, err := NewAESCipher(make([]byte, 32))
	require.NoError(t, err)

	a, err := c.Seal([]byte("same"))
	require.NoError(t, err)
	b, err := c.Seal([]byte("same"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestAESCipher_OpenErrors(t *testing.T) {
	c, err := NewAESCipher(make([]byte, 32))
	require.NoError(t, err)

	_, err = c.Open([]byte{1, 2})
	require.ErrorIs(t, err, ErrCiphertextTooShort)

	other, err := NewAESCipher(bytes.Repeat([]byte{1}, 32))
	require.NoError(t, err)
	sealed, err := other.Seal([]byte("x"))
	require.NoError(t, err)
	_, err = c.Open(sealed)
	require.Error(t, err)
}

func TestNewAESCipher_BadKey(t *testing.T) {
	_, err := NewAESCipher([]byte("short"))
	require.Error(t, err)
}

func TestPlainCipher(t *testing.T) {
	var c PlainCipher
	sealed, err := c.Seal([]byte("tok"))
	require.NoError(t, err)
	plain, err := c.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "tok", string(plain))
}

func TestRSAFieldEncrypter_DecryptsWithPrivateKey(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	enc, err := NewRSAFieldEncrypter(pemBytes)
	require.NoError(t, err)

	out, err := enc.Encrypt("s3cret")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(out)
	require.NoError(t, err)
	plain, err := rsa.DecryptPKCS1v15(rand.Reader, priv, raw)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", string(plain))
}

func TestRSAFieldEncrypter_PKCS1Block(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "RSA PUBLIC KEY", Bytes: x509.MarshalPKCS1PublicKey(&priv.PublicKey)})

	_, err = NewRSAFieldEncrypter(pemBytes)
	require.NoError(t, err)
}

func TestRSAFieldEncrypter_RegistryKeyParses(t *testing.T) {
	enc, err := NewRSAFieldEncrypter([]byte(RegistryPublicKeyPEM))
	require.NoError(t, err)

	out, err := enc.Encrypt("pw")
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestNewRSAFieldEncrypter_Rejects(t *testing.T) {
	_, err := NewRSAFieldEncrypter([]byte("not pem"))
	require.Error(t, err)

	_, err = NewRSAFieldEncrypter(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: []byte{1, 2, 3}}))
	require.Error(t, err)
}
