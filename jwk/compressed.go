package jwk

import (
	"crypto/elliptic"
	"fmt"
	"math/big"

	"github.com/bluesky-social/jwkit/curve"

	secp256k1 "gitlab.com/yawning/secp256k1-voi"
)

// Serializes the public key in to "compressed" binary format.
//
// For "EC" curves this is the SEC 1 compressed point (one prefix byte plus the x coordinate). For "OKP" curves it is just the raw 32-byte public key.
func (k *PublicJWK) CompressedBytes() ([]byte, error) {
	pp, err := k.point()
	if err != nil {
		return nil, err
	}
	switch c := pp.curve.(type) {
	case curve.EC:
		if c == curve.Secp256k1 {
			pub, err := k256PublicKey(pp.x, pp.y)
			if err != nil {
				return nil, err
			}
			return pub.Point().CompressedBytes(), nil
		}
		x := new(big.Int).SetBytes(pp.x)
		y := new(big.Int).SetBytes(pp.y)
		return elliptic.MarshalCompressed(ellipticCurve(c), x, y), nil
	case curve.OKP:
		return pp.x, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCurve, k.Curve)
	}
}

// Loads a [PublicJWK] from raw bytes, as exported by the PublicJWK.CompressedBytes method.
//
// Calling code needs to know the curve ahead of time, and must remove any string encoding before calling this function. "OKP" keys are length-checked only.
func ParsePublicCompressed(c curve.Curve, data []byte) (*PublicJWK, error) {
	switch c := c.(type) {
	case curve.EC:
		var x, y *big.Int
		if c == curve.Secp256k1 {
			p, err := secp256k1.NewIdentityPoint().SetCompressedBytes(data)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid K-256/secp256k1 public key: %w", ErrInvalidJWK, err)
			}
			if p.IsIdentity() != 0 {
				return nil, fmt.Errorf("%w: K-256 public key is the point at infinity", ErrInvalidJWK)
			}
			x, y, err = splitUncompressed(p.UncompressedBytes(), c.Size())
			if err != nil {
				return nil, err
			}
		} else {
			ec := ellipticCurve(c)
			if ec == nil {
				return nil, fmt.Errorf("%w: %q", ErrUnsupportedCurve, c.CRV())
			}
			x, y = elliptic.UnmarshalCompressed(ec, data)
			if x == nil {
				return nil, fmt.Errorf("%w: invalid %s public key", ErrInvalidJWK, c.CRV())
			}
		}
		return &PublicJWK{
			KeyType: curve.KeyTypeEC,
			Curve:   c.CRV(),
			X:       encodeFixed(x, c.Size()),
			Y:       encodeFixed(y, c.Size()),
		}, nil
	case curve.OKP:
		if len(data) != c.Size() {
			return nil, fmt.Errorf("%w: %s public key must be %d bytes, got %d", ErrInvalidJWK, c.CRV(), c.Size(), len(data))
		}
		return &PublicJWK{
			KeyType: curve.KeyTypeOKP,
			Curve:   c.CRV(),
			X:       b64(data),
		}, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedCurve, c)
	}
}
