package jose

import (
	"crypto"
	"crypto/rand"
	"crypto/sha256"

	"github.com/golang-jwt/jwt/v5"
	secp256k1secec "gitlab.com/yawning/secp256k1-voi/secec"
)

// Implementation of jwt.SigningMethod for ES256K (ECDSA over secp256k1 with SHA-256), which golang-jwt does not provide.
//
// Keys are the secp256k1-voi types returned by the jwk package: *secec.PrivateKey for signing, *secec.PublicKey for verification.
type signingMethodES256K struct {
	alg    string
	hash   crypto.Hash
	sigLen int
}

var SigningMethodES256K *signingMethodES256K

var es256kSignOptions = &secp256k1secec.ECDSAOptions{
	// Used to *verify* digest, not to re-hash
	Hash: crypto.SHA256,
	// Use `[R | S]` encoding.
	Encoding: secp256k1secec.EncodingCompact,
	// always produce "low-S" signatures
	RejectMalleable: true,
}

var es256kVerifyOptions = &secp256k1secec.ECDSAOptions{
	Hash:     crypto.SHA256,
	Encoding: secp256k1secec.EncodingCompact,
	// RFC 8812 does not require "low-S"
	RejectMalleable: false,
}

func init() {
	SigningMethodES256K = &signingMethodES256K{
		alg:    "ES256K",
		hash:   crypto.SHA256,
		sigLen: 64,
	}
	jwt.RegisterSigningMethod(SigningMethodES256K.Alg(), func() jwt.SigningMethod {
		return SigningMethodES256K
	})
}

func (sm *signingMethodES256K) Verify(signingString string, sig []byte, key interface{}) error {
	pub, ok := key.(*secp256k1secec.PublicKey)
	if !ok {
		return jwt.ErrInvalidKeyType
	}

	if !sm.hash.Available() {
		return jwt.ErrHashUnavailable
	}

	if len(sig) != sm.sigLen {
		return jwt.ErrTokenSignatureInvalid
	}

	hash := sha256.Sum256([]byte(signingString))
	if !pub.Verify(hash[:], sig, es256kVerifyOptions) {
		return jwt.ErrTokenSignatureInvalid
	}
	return nil
}

func (sm *signingMethodES256K) Sign(signingString string, key interface{}) ([]byte, error) {
	priv, ok := key.(*secp256k1secec.PrivateKey)
	if !ok {
		return nil, jwt.ErrInvalidKeyType
	}

	hash := sha256.Sum256([]byte(signingString))
	return priv.Sign(rand.Reader, hash[:], es256kSignOptions)
}

func (sm *signingMethodES256K) Alg() string {
	return sm.alg
}
