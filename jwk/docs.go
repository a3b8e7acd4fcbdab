// Package jwk converts raw private key material to and from JSON Web Keys (RFC 7517), for the curves in the [curve] registry.
//
// Given secret material (or none, to generate a new key), this package derives the public point and encodes both in the JWK field layout expected by JOSE libraries:
//
//   - secp256k1, P-256, P-384: "kty":"EC", with "x", "y" and "d" as fixed-width big-endian integers
//   - Ed25519, X25519: "kty":"OKP", with "x" the raw public key and "d" the raw 32-byte secret
//
// Curve arithmetic is delegated: secp256k1 to <gitlab.com/yawning/secp256k1-voi>, NIST curves and Ed25519 to the golang stdlib, X25519 to <golang.org/x/crypto/curve25519>. All functions are stateless and safe for concurrent use.
//
// This package does not sign or verify anything; see the jose package for that.
package jwk
