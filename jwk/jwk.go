package jwk

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/bluesky-social/jwkit/curve"
)

var (
	ErrUnsupportedCurve = curve.ErrUnsupportedCurve
	ErrInvalidScalar    = errors.New("invalid private scalar")
	ErrRandomSource     = errors.New("secure random source failure")
	ErrInvalidJWK       = errors.New("invalid JWK")
	ErrInconsistentKey  = errors.New("JWK public fields do not match private key")
)

// Representation of a public JSON Web Key (JWK) for the curves in the [curve] registry.
//
// Expected to be marshalled/unmarshalled as JSON. All values are base64url, no padding, over the fixed-width big-endian encoding for the curve.
type PublicJWK struct {
	KeyType curve.KeyType `json:"kty"`
	Curve   string        `json:"crv"`
	X       string        `json:"x"`
	// only present for "EC" keys
	Y string `json:"y,omitempty"`
}

// A [PublicJWK] plus the secret key material.
//
// For "EC" keys, D is the private scalar. For "OKP" keys, D is the raw 32-byte secret seed (not the expanded scalar).
type PrivateJWK struct {
	PublicJWK
	D string `json:"d"`
}

// Returns the public half of the key, without any curve computation.
func (k *PrivateJWK) Public() PublicJWK {
	return k.PublicJWK
}

// Projects a [PrivateJWK] to the corresponding [PublicJWK] by dropping "d".
//
// The public fields are trusted to already be consistent with "d" (which holds for keys built by this package). Use [ParsePrivateJWK] or [DerivePublicJWK] for keys from elsewhere.
func PublicJWKFromPrivate(priv PrivateJWK) PublicJWK {
	return priv.PublicJWK
}

// Creates a new private key on the indicated curve, and returns it as a JWK.
//
// A nil curve means Ed25519.
func NewPrivateJWK(crv curve.Curve) (*PrivateJWK, error) {
	return newPrivateJWK(crv, rand.Reader)
}

func newPrivateJWK(crv curve.Curve, rnd io.Reader) (*PrivateJWK, error) {
	switch c := crv.(type) {
	case nil:
		return newPrivateOKPJWK(curve.Ed25519, rnd)
	case curve.EC:
		return newPrivateECJWK(c, rnd)
	case curve.OKP:
		return newPrivateOKPJWK(c, rnd)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedCurve, crv)
	}
}

// Loads an existing private key from hex-encoded secret material, and returns it as a JWK.
//
// For "EC" curves the hex is the private scalar; for "OKP" curves it is the 32-byte secret seed. A nil curve means Ed25519. The result is deterministic for a given input.
func ToPrivateJWK(secretHex string, crv curve.Curve) (*PrivateJWK, error) {
	switch c := crv.(type) {
	case nil:
		return ToPrivateOKPJWK(secretHex, curve.Ed25519)
	case curve.EC:
		return ToPrivateECJWK(secretHex, c)
	case curve.OKP:
		return ToPrivateOKPJWK(secretHex, c)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedCurve, crv)
	}
}

// Same as [NewPrivateJWK], but the curve is required.
func GenerateNewKey(crv curve.Curve) (*PrivateJWK, error) {
	if crv == nil {
		return nil, fmt.Errorf("%w: curve must be specified", ErrUnsupportedCurve)
	}
	return NewPrivateJWK(crv)
}

// Same as [ToPrivateJWK], but the curve is required.
func FromExistingKey(crv curve.Curve, secretHex string) (*PrivateJWK, error) {
	if crv == nil {
		return nil, fmt.Errorf("%w: curve must be specified", ErrUnsupportedCurve)
	}
	return ToPrivateJWK(secretHex, crv)
}

// decodes caller-supplied hex secret material. an optional "0x" or "0X" prefix
// is allowed, and odd-length strings get a leading zero nibble.
func decodeSecretHex(s string) ([]byte, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
	}
	if s == "" {
		return nil, fmt.Errorf("%w: empty hex string", ErrInvalidScalar)
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScalar, err)
	}
	return b, nil
}

func b64(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// serializes an integer as exactly size big-endian bytes, then base64url
func encodeFixed(v *big.Int, size int) string {
	buf := make([]byte, size)
	v.FillBytes(buf)
	return b64(buf)
}

// base64url-decodes a JWK field, requiring exactly size bytes
func decodeFixed(field, val string, size int) ([]byte, error) {
	buf, err := base64.RawURLEncoding.DecodeString(val)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64 encoding of %q: %w", ErrInvalidJWK, field, err)
	}
	if len(buf) != size {
		return nil, fmt.Errorf("%w: %q must be %d bytes, got %d", ErrInvalidJWK, field, size, len(buf))
	}
	return buf, nil
}
