// Package auth signs Kalshi API requests with RSA-PSS.
//
// Every request carries three headers:
//
//	KALSHI-ACCESS-KEY        API key id
//	KALSHI-ACCESS-TIMESTAMP  milliseconds since epoch
//	KALSHI-ACCESS-SIGNATURE  base64(RSA-PSS-SHA256(timestamp + method + path))
//
// The signed path is the full URL path (including the /trade-api/v2 prefix)
// without the query string.
package auth

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
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// Header names.
const (
	HeaderKey       = "KALSHI-ACCESS-KEY"
	HeaderTimestamp = "KALSHI-ACCESS-TIMESTAMP"
	HeaderSignature = "KALSHI-ACCESS-SIGNATURE"
)

// Credentials holds the API key and private key for signing requests.
type Credentials struct {
	KeyID      string          // API key ID from Kalshi dashboard
	PrivateKey *rsa.PrivateKey // RSA private key for signing

	now func() time.Time
}

// NewCredentials builds Credentials from an already parsed key.
func NewCredentials(keyID string, key *rsa.PrivateKey) *Credentials {
	return &Credentials{KeyID: keyID, PrivateKey: key}
}

// LoadCredentials loads credentials from a key id and either a PEM file path
// or an inline PEM string. The inline PEM wins when both are set.
func LoadCredentials(keyID, privateKeyPath, privateKeyPEM string) (*Credentials, error) {
	if keyID == "" {
		return nil, errors.New("API key ID is required")
	}

	var (
		key *rsa.PrivateKey
		err error
	)
	switch {
	case strings.TrimSpace(privateKeyPEM) != "":
		key, err = ParsePrivateKey([]byte(privateKeyPEM))
	case privateKeyPath != "":
		key, err = LoadPrivateKey(privateKeyPath)
	default:
		return nil, errors.New("private key path or PEM is required")
	}
	if err != nil {
		return nil, fmt.Errorf("load private key: %w", err)
	}

	return NewCredentials(keyID, key), nil
}

// LoadPrivateKey loads an RSA private key from a PEM file.
func LoadPrivateKey(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	return ParsePrivateKey(data)
}

// ParsePrivateKey decodes a PKCS#8 or PKCS#1 PEM-encoded RSA key.
// Escaped newlines ("\n" as two characters) are accepted, since keys passed
// through environment variables often arrive that way.
func ParsePrivateKey(data []byte) (*rsa.PrivateKey, error) {
	text := strings.ReplaceAll(string(data), `\n`, "\n")

	block, _ := pem.Decode([]byte(text))
	if block == nil {
		return nil, errors.New("failed to decode PEM block")
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, errors.New("key is not an RSA private key")
		}
		return rsaKey, nil
	}

	rsaKey, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return rsaKey, nil
}

// SignRequest generates authentication headers for a request. Any query
// string on path is dropped before signing.
func (c *Credentials) SignRequest(method, path string) (map[string]string, error) {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}

	now := time.Now
	if c.now != nil {
		now = c.now
	}
	ts := strconv.FormatInt(now().UnixMilli(), 10)

	signature, err := c.sign(ts + method + path)
	if err != nil {
		return nil, err
	}

	return map[string]string{
		HeaderKey:       c.KeyID,
		HeaderTimestamp: ts,
		HeaderSignature: signature,
	}, nil
}

// Apply signs req in place using its method and URL path.
func (c *Credentials) Apply(req *http.Request) error {
	headers, err := c.SignRequest(req.Method, req.URL.Path)
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return nil
}

func (c *Credentials) sign(message string) (string, error) {
	hashed := sha256.Sum256([]byte(message))

	signature, err := rsa.SignPSS(
		rand.Reader,
		c.PrivateKey,
		crypto.SHA256,
		hashed[:],
		&rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash},
	)
	if err != nil {
		return "", fmt.Errorf("sign message: %w", err)
	}

	return base64.StdEncoding.EncodeToString(signature), nil
}

// Verify checks a signature produced by SignRequest. Used by tests and by
// the fake exchange in integration setups.
func Verify(pub *rsa.PublicKey, timestamp, method, path, signature string) error {
	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}
	hashed := sha256.Sum256([]byte(timestamp + method + path))
	return rsa.VerifyPSS(pub, crypto.SHA256, hashed[:], sig, &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash})
}
