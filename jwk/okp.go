package jwk

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/bluesky-social/jwkit/curve"

	"golang.org/x/crypto/curve25519"
)

// Key pair on an Edwards or Montgomery curve, as raw byte strings.
type okpKeyPair struct {
	curve  curve.OKP
	secret []byte
	public []byte
}

// Creates a new Ed25519 private key, and returns it as a JWK.
func NewPrivateEdDSAJWK() (*PrivateJWK, error) {
	return newPrivateOKPJWK(curve.Ed25519, rand.Reader)
}

// Loads a hex-encoded 32-byte Ed25519 secret seed, and returns it as a JWK.
func ToPrivateEdDSAJWK(secretHex string) (*PrivateJWK, error) {
	return ToPrivateOKPJWK(secretHex, curve.Ed25519)
}

// Creates a new private key on an "OKP" curve, and returns it as a JWK.
func NewPrivateOKPJWK(c curve.OKP) (*PrivateJWK, error) {
	return newPrivateOKPJWK(c, rand.Reader)
}

func newPrivateOKPJWK(c curve.OKP, rnd io.Reader) (*PrivateJWK, error) {
	kp, err := generateOKPKeyPair(c, rnd)
	if err != nil {
		return nil, err
	}
	return kp.privateJWK(), nil
}

// Loads a hex-encoded 32-byte secret on an "OKP" curve, and returns it as a JWK.
//
// For Ed25519 the secret is the RFC 8032 seed. For X25519 it is the RFC 7748 scalar, before clamping.
func ToPrivateOKPJWK(secretHex string, c curve.OKP) (*PrivateJWK, error) {
	if err := checkOKP(c); err != nil {
		return nil, err
	}
	secret, err := decodeSecretHex(secretHex)
	if err != nil {
		return nil, err
	}
	kp, err := okpKeyPairFromSecret(secret, c)
	if err != nil {
		return nil, err
	}
	return kp.privateJWK(), nil
}

// Draws the secret from rnd; there is no fallback if it fails.
func generateOKPKeyPair(c curve.OKP, rnd io.Reader) (*okpKeyPair, error) {
	if err := checkOKP(c); err != nil {
		return nil, err
	}
	secret := make([]byte, c.Size())
	if _, err := io.ReadFull(rnd, secret); err != nil {
		return nil, fmt.Errorf("%w: reading %s secret: %w", ErrRandomSource, c.CRV(), err)
	}
	return okpKeyPairFromSecret(secret, c)
}

func checkOKP(c curve.OKP) error {
	switch c {
	case curve.Ed25519, curve.X25519:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedCurve, c.CRV())
}

func okpKeyPairFromSecret(secret []byte, c curve.OKP) (*okpKeyPair, error) {
	if err := checkOKP(c); err != nil {
		return nil, err
	}
	if len(secret) != c.Size() {
		return nil, fmt.Errorf("%w: %s secret must be %d bytes, got %d", ErrInvalidScalar, c.CRV(), c.Size(), len(secret))
	}
	sec := make([]byte, len(secret))
	copy(sec, secret)

	switch c {
	case curve.Ed25519:
		sk := ed25519.NewKeyFromSeed(sec)
		pub, ok := sk.Public().(ed25519.PublicKey)
		if !ok {
			return nil, fmt.Errorf("unexpected internal error casting Ed25519 public key")
		}
		return &okpKeyPair{curve: c, secret: sk.Seed(), public: pub}, nil
	case curve.X25519:
		pub, err := curve25519.X25519(sec, curve25519.Basepoint)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid X25519 private key: %w", ErrInvalidScalar, err)
		}
		return &okpKeyPair{curve: c, secret: sec, public: pub}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCurve, c.CRV())
	}
}

func (kp *okpKeyPair) publicJWK() PublicJWK {
	return PublicJWK{
		KeyType: curve.KeyTypeOKP,
		Curve:   kp.curve.CRV(),
		X:       b64(kp.public),
	}
}

func (kp *okpKeyPair) privateJWK() *PrivateJWK {
	return &PrivateJWK{
		PublicJWK: kp.publicJWK(),
		D:         b64(kp.secret),
	}
}
