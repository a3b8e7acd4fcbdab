// Package curve is the registry of elliptic curves which can be encoded as JSON Web Keys.
//
// Curves come in two families, distinguished by type: [EC] for short Weierstrass curves (secp256k1, P-256, P-384), which use JWK key type "EC" with "x" and "y" coordinates, and [OKP] for Edwards/Montgomery curves (Ed25519, X25519), which use JWK key type "OKP" with a single "x" value.
//
// Each curve has a fixed byte width used for every scalar and coordinate: 32 bytes for the 256-bit curves, 48 bytes for P-384.
package curve
