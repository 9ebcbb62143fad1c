package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"

	"github.com/dmitrijs2005/regkeeper/internal/common"
)

// ErrCiphertextTooShort is returned when sealed data is shorter than a nonce.
var ErrCiphertextTooShort = errors.New("ciphertext too short")

// Cipher seals values before they are written to storage.
type Cipher interface {
	Seal(plaintext []byte) ([]byte, error)
	Open(sealed []byte) ([]byte, error)
}

// AESCipher is AES-GCM with a random nonce prefixed to every ciphertext.
type AESCipher struct {
	aead cipher.AEAD
}

// NewAESCipher builds an AESCipher from a 16, 24 or 32 byte key.
func NewAESCipher(key []byte) (*AESCipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &AESCipher{aead: aead}, nil
}

func (c *AESCipher) Seal(plaintext []byte) ([]byte, error) {
	nonce := common.GenerateRandByteArray(c.aead.NonceSize())
	return c.aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (c *AESCipher) Open(sealed []byte) ([]byte, error) {
	ns := c.aead.NonceSize()
	if len(sealed) < ns {
		return nil, ErrCiphertextTooShort
	}
	return c.aead.Open(nil, sealed[:ns], sealed[ns:], nil)
}

// PlainCipher stores values as they are. Used when no store secret is set.
type PlainCipher struct{}

func (PlainCipher) Seal(plaintext []byte) ([]byte, error) {
	return append([]byte(nil), plaintext...), nil
}

func (PlainCipher) Open(sealed []byte) ([]byte, error) {
	return append([]byte(nil), sealed...), nil
}
