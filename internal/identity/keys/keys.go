// Package keys generates accessor key pairs and signs challenges with them.
package keys

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
)

// DefaultBits is the accessor key size.
const DefaultBits = 2048

var errInvalidKey = errors.New("invalid private key")

// Pair is a PEM encoded key pair. PublicKey is PKIX, PrivateKey PKCS#1.
type Pair struct {
	PublicKey  string
	PrivateKey string
}

// Generate creates an RSA key pair of the given size.
func Generate(bits int) (Pair, error) {
	if bits <= 0 {
		bits = DefaultBits
	}
	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return Pair{}, fmt.Errorf("generate rsa key: %w", err)
	}
	pub, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return Pair{}, fmt.Errorf("marshal public key: %w", err)
	}
	return Pair{
		PublicKey:  string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pub})),
		PrivateKey: string(pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})),
	}, nil
}

// ParsePrivateKey accepts PKCS#1 or PKCS#8 PEM.
func ParsePrivateKey(privatePEM string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(privatePEM))
	if block == nil {
		return nil, errInvalidKey
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidKey, err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an rsa key", errInvalidKey)
	}
	return key, nil
}

// ParsePublicKey reads a PKIX PEM public key.
func ParsePublicKey(publicPEM string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(publicPEM))
	if block == nil {
		return nil, errors.New("invalid public key")
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("public key is not rsa")
	}
	return key, nil
}

// Sign returns base64(RSASSA-PKCS1-v1_5(SHA-256(message))).
func Sign(privatePEM string, message []byte) (string, error) {
	key, err := ParsePrivateKey(privatePEM)
	if err != nil {
		return "", err
	}
	digest := sha256.Sum256(message)
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	if err != nil {
		return "", fmt.Errorf("sign: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// Verify checks a signature produced by Sign.
func Verify(publicPEM string, message []byte, signature string) error {
	key, err := ParsePublicKey(publicPEM)
	if err != nil {
		return err
	}
	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}
	digest := sha256.Sum256(message)
	return rsa.VerifyPKCS1v15(key, crypto.SHA256, digest[:], sig)
}

// SignPaddedHash applies the raw private key operation to a hash the
// backend already padded to the modulus size. paddedHash and the result
// are base64.
func SignPaddedHash(privatePEM, paddedHash string) (string, error) {
	key, err := ParsePrivateKey(privatePEM)
	if err != nil {
		return "", err
	}
	raw, err := base64.StdEncoding.DecodeString(paddedHash)
	if err != nil {
		return "", fmt.Errorf("decode padded hash: %w", err)
	}
	size := key.Size()
	if len(raw) != size {
		return "", fmt.Errorf("padded hash is %d bytes, key needs %d", len(raw), size)
	}
	m := new(big.Int).SetBytes(raw)
	if m.Cmp(key.N) >= 0 {
		return "", errors.New("padded hash out of range for key")
	}
	s := new(big.Int).Exp(m, key.D, key.N)
	return base64.StdEncoding.EncodeToString(s.FillBytes(make([]byte, size))), nil
}

// OpenPaddedHash reverses SignPaddedHash with the public key.
func OpenPaddedHash(publicPEM, signature string) ([]byte, error) {
	key, err := ParsePublicKey(publicPEM)
	if err != nil {
		return nil, err
	}
	raw, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return nil, fmt.Errorf("decode signature: %w", err)
	}
	s := new(big.Int).SetBytes(raw)
	m := new(big.Int).Exp(s, big.NewInt(int64(key.E)), key.N)
	return m.FillBytes(make([]byte, key.Size())), nil
}
