package curve

import (
	"errors"
	"fmt"
)

var ErrUnsupportedCurve = errors.New("unsupported curve")

// JWK "kty" value for a curve family.
type KeyType string

const (
	KeyTypeEC  KeyType = "EC"
	KeyTypeOKP KeyType = "OKP"
)

// A named elliptic curve, as used in the JWK "crv" field.
//
// The only implementations are [EC] (short Weierstrass curves, affine x/y public points) and [OKP] (Edwards and Montgomery curves, single-coordinate public keys). Code which needs to branch on the curve family should do a type switch over those two types.
type Curve interface {
	// JWK "crv" name, eg "P-256"
	CRV() string
	// Name of the curve inside the curve-arithmetic implementation, eg "p256"
	ArithmeticName() string
	KeyType() KeyType
	// Fixed byte width of scalars and coordinates
	Size() int

	isCurve()
}

// Short Weierstrass curve: secp256k1, P-256, P-384.
type EC struct {
	crv   string
	arith string
	size  int
}

// Octet key pair curve: Ed25519, X25519.
type OKP struct {
	crv   string
	arith string
	size  int
}

var (
	Secp256k1 = EC{crv: "secp256k1", arith: "secp256k1", size: 32}
	P256      = EC{crv: "P-256", arith: "p256", size: 32}
	P384      = EC{crv: "P-384", arith: "p384", size: 48}
	Ed25519   = OKP{crv: "Ed25519", arith: "ed25519", size: 32}
	X25519    = OKP{crv: "X25519", arith: "curve25519", size: 32}
)

var _ Curve = EC{}
var _ Curve = OKP{}

var registry = []Curve{Secp256k1, P256, P384, Ed25519, X25519}

func (c EC) CRV() string            { return c.crv }
func (c EC) ArithmeticName() string { return c.arith }
func (c EC) KeyType() KeyType       { return KeyTypeEC }
func (c EC) Size() int              { return c.size }
func (c EC) String() string         { return c.crv }
func (EC) isCurve()                 {}

func (c OKP) CRV() string            { return c.crv }
func (c OKP) ArithmeticName() string { return c.arith }
func (c OKP) KeyType() KeyType       { return KeyTypeOKP }
func (c OKP) Size() int              { return c.size }
func (c OKP) String() string         { return c.crv }
func (OKP) isCurve()                 {}

// Returns every supported curve, Weierstrass curves first.
func All() []Curve {
	out := make([]Curve, len(registry))
	copy(out, registry)
	return out
}

// Looks up a curve by its JWK "crv" name. Matching is exact (case-sensitive), as in JOSE.
func Parse(crv string) (Curve, error) {
	for _, c := range registry {
		if c.CRV() == crv {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedCurve, crv)
}

// Returns the curve-arithmetic name for a JWK "crv" name.
func ArithmeticName(crv string) (string, error) {
	c, err := Parse(crv)
	if err != nil {
		return "", err
	}
	return c.ArithmeticName(), nil
}

// Returns the JWK "kty" for a JWK "crv" name.
func KeyTypeOf(crv string) (KeyType, error) {
	c, err := Parse(crv)
	if err != nil {
		return "", err
	}
	return c.KeyType(), nil
}
