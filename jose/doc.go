// Package jose signs and verifies compact JWS (RFC 7515) messages with keys from the jwk package.
//
// Keys are imported through lestrrat-go/jwx (or, for secp256k1, which jwx only supports behind a build tag, through the jwk package itself), and signatures are computed with golang-jwt signing methods.
//
// The signature algorithm is fixed by the key's curve:
//
//   - secp256k1: ES256K
//   - P-256: ES256
//   - P-384: ES384
//   - Ed25519: EdDSA
//
// X25519 keys are for key agreement only, and can not be used here.
package jose
