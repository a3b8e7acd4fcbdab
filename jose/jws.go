package jose

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bluesky-social/jwkit/curve"
	"github.com/bluesky-social/jwkit/jwk"

	"github.com/golang-jwt/jwt/v5"
	lestrratjwk "github.com/lestrrat-go/jwx/v2/jwk"
)

var (
	ErrUnsupportedAlgorithm = errors.New("unsupported JWS algorithm")
	ErrInvalidSignature     = errors.New("invalid JWS signature")
	ErrMalformedToken       = errors.New("malformed compact JWS")
)

// JWS protected header. Only the fields this package writes are represented.
type Header struct {
	Algorithm string `json:"alg"`
	KeyID     string `json:"kid,omitempty"`
}

// Returns the JWS "alg" used for keys on the given curve.
func AlgorithmFor(c curve.Curve) (string, error) {
	switch c {
	case curve.Secp256k1:
		return SigningMethodES256K.Alg(), nil
	case curve.P256:
		return jwt.SigningMethodES256.Alg(), nil
	case curve.P384:
		return jwt.SigningMethodES384.Alg(), nil
	case curve.Ed25519:
		return jwt.SigningMethodEdDSA.Alg(), nil
	}
	if c == nil {
		return "", fmt.Errorf("%w: no curve", ErrUnsupportedAlgorithm)
	}
	return "", fmt.Errorf("%w: no signature algorithm for %s keys", ErrUnsupportedAlgorithm, c.CRV())
}

func methodFor(c curve.Curve) (jwt.SigningMethod, error) {
	alg, err := AlgorithmFor(c)
	if err != nil {
		return nil, err
	}
	m := jwt.GetSigningMethod(alg)
	if m == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, alg)
	}
	return m, nil
}

// Signs payload with the private key, returning a compact JWS.
//
// The protected header has the algorithm for the key's curve, and kid when non-empty.
func Sign(priv jwk.PrivateJWK, payload []byte, kid string) (string, error) {
	c, err := curve.Parse(priv.Curve)
	if err != nil {
		return "", err
	}
	method, err := methodFor(c)
	if err != nil {
		return "", err
	}
	key, err := importPrivate(priv, c)
	if err != nil {
		return "", err
	}

	hdr, err := json.Marshal(Header{Algorithm: method.Alg(), KeyID: kid})
	if err != nil {
		return "", fmt.Errorf("serializing JWS header: %w", err)
	}
	signingInput := b64(hdr) + "." + b64(payload)
	sig, err := method.Sign(signingInput, key)
	if err != nil {
		return "", fmt.Errorf("signing JWS with %s: %w", method.Alg(), err)
	}
	return signingInput + "." + b64(sig), nil
}

// Verifies a compact JWS against the public key, returning the payload and protected header.
//
// The header "alg" must be the algorithm for the key's curve.
func Verify(pub jwk.PublicJWK, token string) ([]byte, *Header, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, nil, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformedToken, len(parts))
	}
	hdrBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: header encoding: %w", ErrMalformedToken, err)
	}
	var hdr Header
	if err := json.Unmarshal(hdrBytes, &hdr); err != nil {
		return nil, nil, fmt.Errorf("%w: header JSON: %w", ErrMalformedToken, err)
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: payload encoding: %w", ErrMalformedToken, err)
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, nil, fmt.Errorf("%w: signature encoding: %w", ErrMalformedToken, err)
	}

	c, err := curve.Parse(pub.Curve)
	if err != nil {
		return nil, nil, err
	}
	method, err := methodFor(c)
	if err != nil {
		return nil, nil, err
	}
	if hdr.Algorithm != method.Alg() {
		return nil, nil, fmt.Errorf("%w: header alg %q does not match %s key", ErrUnsupportedAlgorithm, hdr.Algorithm, c.CRV())
	}
	key, err := importPublic(pub, c)
	if err != nil {
		return nil, nil, err
	}

	if err := method.Verify(parts[0]+"."+parts[1], sig, key); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	return payload, &hdr, nil
}

// Converts a JWK to the key type expected by the golang-jwt signing method.
func importPrivate(priv jwk.PrivateJWK, c curve.Curve) (interface{}, error) {
	// jwx does not check that the public fields match "d"
	if _, err := jwk.ParsePrivateJWK(priv); err != nil {
		return nil, err
	}
	if c == curve.Secp256k1 {
		return priv.CryptoPrivateKey()
	}

	key, err := parseWithJWX(priv)
	if err != nil {
		return nil, err
	}
	switch c.KeyType() {
	case curve.KeyTypeEC:
		var raw ecdsa.PrivateKey
		if err := key.Raw(&raw); err != nil {
			return nil, fmt.Errorf("importing %s private key: %w", c.CRV(), err)
		}
		return &raw, nil
	default:
		var raw ed25519.PrivateKey
		if err := key.Raw(&raw); err != nil {
			return nil, fmt.Errorf("importing %s private key: %w", c.CRV(), err)
		}
		return raw, nil
	}
}

func importPublic(pub jwk.PublicJWK, c curve.Curve) (interface{}, error) {
	if _, err := jwk.ParsePublicJWK(pub); err != nil {
		return nil, err
	}
	if c == curve.Secp256k1 {
		return pub.CryptoPublicKey()
	}

	key, err := parseWithJWX(pub)
	if err != nil {
		return nil, err
	}
	switch c.KeyType() {
	case curve.KeyTypeEC:
		var raw ecdsa.PublicKey
		if err := key.Raw(&raw); err != nil {
			return nil, fmt.Errorf("importing %s public key: %w", c.CRV(), err)
		}
		return &raw, nil
	default:
		var raw ed25519.PublicKey
		if err := key.Raw(&raw); err != nil {
			return nil, fmt.Errorf("importing %s public key: %w", c.CRV(), err)
		}
		return raw, nil
	}
}

func parseWithJWX(v any) (lestrratjwk.Key, error) {
	buf, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("serializing JWK: %w", err)
	}
	key, err := lestrratjwk.ParseKey(buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", jwk.ErrInvalidJWK, err)
	}
	return key, nil
}

func b64(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}
