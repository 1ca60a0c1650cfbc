// Package crypto signs integrity manifests of generated stream files with
// an RS256 JWS, so an archived capture vector can be paired with
// proof of which rig produced it.
package crypto

import (
	stdcrypto "crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
)

// JWS is a JSON-serialized RS256 signature over a manifest payload. The
// payload is carried inline rather than detached in the strict RFC 7515
// sense, so a verifier needs nothing but this structure.
type JWS struct {
	Protected string `json:"protected"`
	Payload   string `json:"payload"`
	Signature string `json:"signature"`
}

// SignDetachedJWS signs payload with the PEM-encoded RSA private key and
// returns the encoded JWS.
func SignDetachedJWS(payload []byte, privateKeyPEM []byte) (JWS, error) {
	header, err := json.Marshal(map[string]string{"alg": "RS256", "typ": "JWT"})
	if err != nil {
		return JWS{}, fmt.Errorf("marshal jws header: %w", err)
	}
	protected := base64.RawURLEncoding.EncodeToString(header)
	encodedPayload := base64.RawURLEncoding.EncodeToString(payload)

	priv, err := parseRSAPrivateKey(privateKeyPEM)
	if err != nil {
		return JWS{}, err
	}

	digest := sha256.Sum256([]byte(protected + "." + encodedPayload))
	sig, err := rsa.SignPKCS1v15(rand.Reader, priv, stdcrypto.SHA256, digest[:])
	if err != nil {
		return JWS{}, fmt.Errorf("sign manifest payload: %w", err)
	}

	return JWS{
		Protected: protected,
		Payload:   encodedPayload,
		Signature: base64.RawURLEncoding.EncodeToString(sig),
	}, nil
}

// parseRSAPrivateKey accepts both PKCS#1 ("RSA PRIVATE KEY") and PKCS#8
// ("PRIVATE KEY") PEM encodings, since lab-issued signing keys show up in
// either form.
func parseRSAPrivateKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("no PEM block in signing key")
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse signing key: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("signing key is not RSA")
	}
	return key, nil
}
