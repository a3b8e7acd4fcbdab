package jwk

import (
	"crypto"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/bluesky-social/jwkit/curve"

	secp256k1secec "gitlab.com/yawning/secp256k1-voi/secec"
)

// decoded and validated public key material
type publicPoint struct {
	curve curve.Curve
	x     []byte
	// nil for OKP curves
	y []byte
}

// Loads a [PublicJWK] from JWK (serialized as JSON bytes). Any "d" field is ignored.
func ParsePublicJWKBytes(jwkBytes []byte) (*PublicJWK, error) {
	var k PublicJWK
	if err := json.Unmarshal(jwkBytes, &k); err != nil {
		return nil, fmt.Errorf("%w: parsing JWK JSON: %w", ErrInvalidJWK, err)
	}
	return ParsePublicJWK(k)
}

// Validates a [PublicJWK]: "kty" agrees with "crv", encodings are the exact fixed width for the curve, and "EC" points are on the curve.
//
// "OKP" values (Ed25519, X25519) are length-checked only.
func ParsePublicJWK(k PublicJWK) (*PublicJWK, error) {
	if _, err := k.point(); err != nil {
		return nil, err
	}
	return &k, nil
}

// Loads a [PrivateJWK] from JWK (serialized as JSON bytes).
func ParsePrivateJWKBytes(jwkBytes []byte) (*PrivateJWK, error) {
	var k PrivateJWK
	if err := json.Unmarshal(jwkBytes, &k); err != nil {
		return nil, fmt.Errorf("%w: parsing JWK JSON: %w", ErrInvalidJWK, err)
	}
	return ParsePrivateJWK(k)
}

// Validates a [PrivateJWK], including re-deriving the public fields from "d". Mismatches return [ErrInconsistentKey].
func ParsePrivateJWK(k PrivateJWK) (*PrivateJWK, error) {
	pub, err := ParsePublicJWK(k.PublicJWK)
	if err != nil {
		return nil, err
	}
	derived, err := DerivePublicJWK(k)
	if err != nil {
		return nil, err
	}
	if *derived != *pub {
		return nil, ErrInconsistentKey
	}
	return &k, nil
}

// Computes the public JWK from the "d" field of a private JWK, ignoring the existing public fields (other than "crv").
func DerivePublicJWK(priv PrivateJWK) (*PublicJWK, error) {
	c, err := curve.Parse(priv.Curve)
	if err != nil {
		return nil, err
	}
	d, err := decodeFixed("d", priv.D, c.Size())
	if err != nil {
		return nil, err
	}
	switch c := c.(type) {
	case curve.EC:
		kp, err := ecKeyPairFromBytes(d, c)
		if err != nil {
			return nil, err
		}
		pub := kp.publicJWK()
		return &pub, nil
	case curve.OKP:
		kp, err := okpKeyPairFromSecret(d, c)
		if err != nil {
			return nil, err
		}
		pub := kp.publicJWK()
		return &pub, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCurve, priv.Curve)
	}
}

func (k *PublicJWK) point() (*publicPoint, error) {
	c, err := curve.Parse(k.Curve)
	if err != nil {
		return nil, err
	}
	if k.KeyType != c.KeyType() {
		return nil, fmt.Errorf("%w: kty %q does not match crv %q", ErrInvalidJWK, k.KeyType, k.Curve)
	}
	x, err := decodeFixed("x", k.X, c.Size())
	if err != nil {
		return nil, err
	}

	switch c := c.(type) {
	case curve.EC:
		y, err := decodeFixed("y", k.Y, c.Size())
		if err != nil {
			return nil, err
		}
		if err := checkOnCurve(c, x, y); err != nil {
			return nil, err
		}
		return &publicPoint{curve: c, x: x, y: y}, nil
	case curve.OKP:
		if k.Y != "" {
			return nil, fmt.Errorf("%w: unexpected \"y\" for %s key", ErrInvalidJWK, c.CRV())
		}
		return &publicPoint{curve: c, x: x}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCurve, k.Curve)
	}
}

func checkOnCurve(c curve.EC, x, y []byte) error {
	switch c {
	case curve.Secp256k1:
		_, err := k256PublicKey(x, y)
		return err
	case curve.P256, curve.P384:
		if _, err := ecdhCurve(c).NewPublicKey(uncompressed(x, y)); err != nil {
			return fmt.Errorf("%w: invalid %s public key (not on curve): %w", ErrInvalidJWK, c.CRV(), err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedCurve, c.CRV())
	}
}

// secec.NewPublicKey checks the point is on the curve
func k256PublicKey(x, y []byte) (*secp256k1secec.PublicKey, error) {
	pub, err := secp256k1secec.NewPublicKey(uncompressed(x, y))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid K-256/secp256k1 public key: %w", ErrInvalidJWK, err)
	}
	return pub, nil
}

func uncompressed(x, y []byte) []byte {
	buf := make([]byte, 0, 1+len(x)+len(y))
	buf = append(buf, 0x04)
	buf = append(buf, x...)
	return append(buf, y...)
}

// Returns the native golang public key for this JWK, after validation:
//
//   - secp256k1: *secec.PublicKey (gitlab.com/yawning/secp256k1-voi/secec)
//   - P-256, P-384: *ecdsa.PublicKey
//   - Ed25519: ed25519.PublicKey
//   - X25519: *ecdh.PublicKey
func (k *PublicJWK) CryptoPublicKey() (crypto.PublicKey, error) {
	pp, err := k.point()
	if err != nil {
		return nil, err
	}
	switch pp.curve {
	case curve.Secp256k1:
		pub, err := k256PublicKey(pp.x, pp.y)
		if err != nil {
			return nil, err
		}
		return pub, nil
	case curve.P256, curve.P384:
		return &ecdsa.PublicKey{
			Curve: ellipticCurve(pp.curve.(curve.EC)),
			X:     new(big.Int).SetBytes(pp.x),
			Y:     new(big.Int).SetBytes(pp.y),
		}, nil
	case curve.Ed25519:
		return ed25519.PublicKey(pp.x), nil
	case curve.X25519:
		pub, err := ecdh.X25519().NewPublicKey(pp.x)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid X25519 public key: %w", ErrInvalidJWK, err)
		}
		return pub, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCurve, k.Curve)
	}
}

// Returns the native golang private key for this JWK, after full validation (see [ParsePrivateJWK]):
//
//   - secp256k1: *secec.PrivateKey (gitlab.com/yawning/secp256k1-voi/secec)
//   - P-256, P-384: *ecdsa.PrivateKey
//   - Ed25519: ed25519.PrivateKey
//   - X25519: *ecdh.PrivateKey
func (k *PrivateJWK) CryptoPrivateKey() (crypto.PrivateKey, error) {
	if _, err := ParsePrivateJWK(*k); err != nil {
		return nil, err
	}
	c, err := curve.Parse(k.Curve)
	if err != nil {
		return nil, err
	}
	d, err := decodeFixed("d", k.D, c.Size())
	if err != nil {
		return nil, err
	}

	switch c {
	case curve.Secp256k1:
		sk, err := secp256k1secec.NewPrivateKey(d)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid K-256/secp256k1 private key: %w", ErrInvalidScalar, err)
		}
		return sk, nil
	case curve.P256, curve.P384:
		// parse as an ecdh.PrivateKey, then get from that to ecdsa.PrivateKey by encoding/decoding using x509 PKCS8 encoding.
		skECDH, err := ecdhCurve(c.(curve.EC)).NewPrivateKey(d)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid %s private key: %w", ErrInvalidScalar, c.CRV(), err)
		}
		enc, err := x509.MarshalPKCS8PrivateKey(skECDH)
		if err != nil {
			return nil, fmt.Errorf("invalid %s private key: %w", c.CRV(), err)
		}
		sk, err := x509.ParsePKCS8PrivateKey(enc)
		if err != nil {
			return nil, fmt.Errorf("invalid %s private key: %w", c.CRV(), err)
		}
		skECDSA, ok := sk.(*ecdsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("unexpected internal error parsing own private %s x509 key", c.CRV())
		}
		return skECDSA, nil
	case curve.Ed25519:
		return ed25519.NewKeyFromSeed(d), nil
	case curve.X25519:
		sk, err := ecdh.X25519().NewPrivateKey(d)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid X25519 private key: %w", ErrInvalidScalar, err)
		}
		return sk, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCurve, k.Curve)
	}
}
