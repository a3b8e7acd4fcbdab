package jwk

import (
	"bytes"
	"crypto/ecdh"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"github.com/bluesky-social/jwkit/curve"

	secp256k1secec "gitlab.com/yawning/secp256k1-voi/secec"
)

// Key pair on a short Weierstrass curve: private scalar, and affine public point.
type ecKeyPair struct {
	curve curve.EC
	priv  *big.Int
	x     *big.Int
	y     *big.Int
}

// Creates a new private key on an "EC" curve, and returns it as a JWK.
func NewPrivateECJWK(c curve.EC) (*PrivateJWK, error) {
	return newPrivateECJWK(c, rand.Reader)
}

func newPrivateECJWK(c curve.EC, rnd io.Reader) (*PrivateJWK, error) {
	kp, err := generateECKeyPair(c, rnd)
	if err != nil {
		return nil, err
	}
	return kp.privateJWK(), nil
}

// Loads a hex-encoded private scalar on an "EC" curve, and returns it as a JWK.
//
// Scalars shorter than the curve width are left-padded with zeros. Zero, or anything not less than the curve order, is rejected with [ErrInvalidScalar].
func ToPrivateECJWK(scalarHex string, c curve.EC) (*PrivateJWK, error) {
	kp, err := ecKeyPairFromScalar(scalarHex, c)
	if err != nil {
		return nil, err
	}
	return kp.privateJWK(), nil
}

// K-256 generation uses the library's internal CSPRNG, and ignores rnd.
func generateECKeyPair(c curve.EC, rnd io.Reader) (*ecKeyPair, error) {
	switch c {
	case curve.Secp256k1:
		sk, err := secp256k1secec.GenerateKey()
		if err != nil {
			return nil, fmt.Errorf("%w: K-256/secp256k1 key generation failed: %w", ErrRandomSource, err)
		}
		return k256KeyPair(sk)
	case curve.P256, curve.P384:
		ec := ecdhCurve(c)
		sk, err := ec.GenerateKey(rnd)
		if err != nil {
			return nil, fmt.Errorf("%w: %s key generation failed: %w", ErrRandomSource, c.CRV(), err)
		}
		return nistKeyPair(c, sk)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCurve, c.CRV())
	}
}

func ecKeyPairFromScalar(scalarHex string, c curve.EC) (*ecKeyPair, error) {
	if err := checkEC(c); err != nil {
		return nil, err
	}
	raw, err := decodeSecretHex(scalarHex)
	if err != nil {
		return nil, err
	}
	data, err := fixedScalar(raw, c.Size())
	if err != nil {
		return nil, err
	}
	return ecKeyPairFromBytes(data, c)
}

// data must already be exactly c.Size() bytes
func ecKeyPairFromBytes(data []byte, c curve.EC) (*ecKeyPair, error) {
	if err := checkEC(c); err != nil {
		return nil, err
	}
	switch c {
	case curve.Secp256k1:
		sk, err := secp256k1secec.NewPrivateKey(data)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid K-256/secp256k1 private key: %w", ErrInvalidScalar, err)
		}
		return k256KeyPair(sk)
	case curve.P256, curve.P384:
		sk, err := ecdhCurve(c).NewPrivateKey(data)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid %s private key: %w", ErrInvalidScalar, c.CRV(), err)
		}
		return nistKeyPair(c, sk)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCurve, c.CRV())
	}
}

// the zero value, and any curve not in the registry, has no arithmetic
func checkEC(c curve.EC) error {
	switch c {
	case curve.Secp256k1, curve.P256, curve.P384:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedCurve, c.CRV())
}

// strips redundant leading zeros and left-pads to exactly size bytes
func fixedScalar(raw []byte, size int) ([]byte, error) {
	trimmed := bytes.TrimLeft(raw, "\x00")
	if len(trimmed) > size {
		return nil, fmt.Errorf("%w: scalar is %d bytes, curve width is %d", ErrInvalidScalar, len(trimmed), size)
	}
	out := make([]byte, size)
	copy(out[size-len(trimmed):], trimmed)
	return out, nil
}

func k256KeyPair(sk *secp256k1secec.PrivateKey) (*ecKeyPair, error) {
	p := sk.PublicKey().Point()
	if p.IsIdentity() != 0 {
		return nil, fmt.Errorf("unexpected invalid K-256/secp256k1 public key (internal)")
	}
	x, y, err := splitUncompressed(p.UncompressedBytes(), curve.Secp256k1.Size())
	if err != nil {
		return nil, err
	}
	return &ecKeyPair{
		curve: curve.Secp256k1,
		priv:  new(big.Int).SetBytes(sk.Bytes()),
		x:     x,
		y:     y,
	}, nil
}

func nistKeyPair(c curve.EC, sk *ecdh.PrivateKey) (*ecKeyPair, error) {
	x, y, err := splitUncompressed(sk.PublicKey().Bytes(), c.Size())
	if err != nil {
		return nil, err
	}
	return &ecKeyPair{
		curve: c,
		priv:  new(big.Int).SetBytes(sk.Bytes()),
		x:     x,
		y:     y,
	}, nil
}

// parses SEC 1 uncompressed point encoding (0x04 || X || Y) in to affine coordinates
func splitUncompressed(raw []byte, size int) (*big.Int, *big.Int, error) {
	if len(raw) != 1+2*size || raw[0] != 0x04 {
		return nil, nil, fmt.Errorf("unexpected uncompressed public key encoding (internal): len=%d", len(raw))
	}
	x := new(big.Int).SetBytes(raw[1 : 1+size])
	y := new(big.Int).SetBytes(raw[1+size:])
	return x, y, nil
}

func (kp *ecKeyPair) publicJWK() PublicJWK {
	size := kp.curve.Size()
	return PublicJWK{
		KeyType: curve.KeyTypeEC,
		Curve:   kp.curve.CRV(),
		X:       encodeFixed(kp.x, size),
		Y:       encodeFixed(kp.y, size),
	}
}

func (kp *ecKeyPair) privateJWK() *PrivateJWK {
	return &PrivateJWK{
		PublicJWK: kp.publicJWK(),
		D:         encodeFixed(kp.priv, kp.curve.Size()),
	}
}

func ecdhCurve(c curve.EC) ecdh.Curve {
	switch c {
	case curve.P256:
		return ecdh.P256()
	case curve.P384:
		return ecdh.P384()
	}
	return nil
}

func ellipticCurve(c curve.EC) elliptic.Curve {
	switch c {
	case curve.P256:
		return elliptic.P256()
	case curve.P384:
		return elliptic.P384()
	}
	return nil
}
