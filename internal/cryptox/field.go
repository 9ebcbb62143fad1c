package cryptox

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
)

// RegistryPublicKeyPEM is the key the registry login endpoint expects
// passwords to be encrypted with.
const RegistryPublicKeyPEM = `-----BEGIN PUBLIC KEY-----
MIIBITANBgkqhkiG9w0BAQEFAAOCAQ4AMIIBCQKCAQB4vticl4+Wxvhi39+YL+Ui
vwPHnD+OnzjniUb+U1qeY8VnCvGXjZsZzSq6P3vNPIpnPtlP0xUTeIsOvFzDa8W5
OuV3YIwPChPSA71Ng4+j1BqR8tNTpXNljAyk4HFvhS8TOX/vJ3WletwidzY3SNG1
pYkh1S5rlWHlin42O+uO7k2HG8Sup5hSGz2om3beNVoFHYLchLt+E5YhUGmUj5u1
yB+tpboqGZkWSp+W394BwlJdq6Uoo9GGRUYRfSYgxoHKSjOaEvtmxaEsB7nehOP7
Hj5N7em8bHsLQrtdC4xfkGzJMnR3nCuU80qIH1dcDtK3IfqfSD8wbTUyYlgdKrld
AgMBAAE=
-----END PUBLIC KEY-----`

// FieldEncrypter transforms a sensitive form field before it leaves the
// process.
type FieldEncrypter interface {
	Encrypt(plaintext string) (string, error)
}

// RSAFieldEncrypter encrypts with RSA PKCS#1 v1.5 and encodes as base64.
type RSAFieldEncrypter struct {
	key  *rsa.PublicKey
	rand io.Reader
}

// NewRSAFieldEncrypter parses a PEM encoded PKIX or PKCS#1 public key.
func NewRSAFieldEncrypter(pemBytes []byte) (*RSAFieldEncrypter, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}

	var pub any
	var err error
	switch block.Type {
	case "RSA PUBLIC KEY":
		pub, err = x509.ParsePKCS1PublicKey(block.Bytes)
	default:
		pub, err = x509.ParsePKIXPublicKey(block.Bytes)
	}
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}

	key, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is %T, not RSA", pub)
	}
	return &RSAFieldEncrypter{key: key, rand: rand.Reader}, nil
}

func (e *RSAFieldEncrypter) Encrypt(plaintext string) (string, error) {
	out, err := rsa.EncryptPKCS1v15(e.rand, e.key, []byte(plaintext))
	if err != nil {
		return "", fmt.Errorf("encrypt field: %w", err)
	}
	return base64.StdEncoding.EncodeToString(out), nil
}
