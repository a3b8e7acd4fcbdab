// Package didkey encodes JWKs as did:key identifiers and multikey strings.
//
// The public form is a did:key, as would be found in a DID document or a DID PLC operation:
//
//   - compressed / compacted binary representation of the public key
//   - prefix with the curve's multicodec, varint-encoded
//   - encode bytes with multibase base58btc ("z" prefix)
//   - add "did:key:" prefix
//
// The private form is the same multibase encoding over the private multicodec and the raw "d" bytes, without a "did:key:" prefix.
package didkey

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/bluesky-social/jwkit/curve"
	"github.com/bluesky-social/jwkit/jwk"

	"github.com/mr-tron/base58"
	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-varint"
)

const (
	MCsecp256k1Pub  = 0xE7
	MCP256Pub       = 0x1200
	MCP384Pub       = 0x1201
	MCed25519Pub    = 0xED
	MCx25519Pub     = 0xEC
	MCsecp256k1Priv = 0x1301
	MCP256Priv      = 0x1306
	MCP384Priv      = 0x1307
	MCed25519Priv   = 0x1300
	MCx25519Priv    = 0x1302
)

const prefix = "did:key:"

var ErrInvalidEncoding = errors.New("invalid did:key or multikey encoding")

type codecs struct {
	pub  uint64
	priv uint64
}

var curveCodecs = map[curve.Curve]codecs{
	curve.Secp256k1: {pub: MCsecp256k1Pub, priv: MCsecp256k1Priv},
	curve.P256:      {pub: MCP256Pub, priv: MCP256Priv},
	curve.P384:      {pub: MCP384Pub, priv: MCP384Priv},
	curve.Ed25519:   {pub: MCed25519Pub, priv: MCed25519Priv},
	curve.X25519:    {pub: MCx25519Pub, priv: MCx25519Priv},
}

func codecsFor(crv string) (curve.Curve, codecs, error) {
	c, err := curve.Parse(crv)
	if err != nil {
		return nil, codecs{}, err
	}
	mc, ok := curveCodecs[c]
	if !ok {
		return nil, codecs{}, fmt.Errorf("%w: no multicodec for %s", curve.ErrUnsupportedCurve, crv)
	}
	return c, mc, nil
}

func curveForCodec(code uint64, private bool) (curve.Curve, error) {
	for c, mc := range curveCodecs {
		if (!private && mc.pub == code) || (private && mc.priv == code) {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: unknown multicodec 0x%x", ErrInvalidEncoding, code)
}

// Returns a did:key string encoding of the public key.
func Encode(pub jwk.PublicJWK) (string, error) {
	_, mc, err := codecsFor(pub.Curve)
	if err != nil {
		return "", err
	}
	kb, err := pub.CompressedBytes()
	if err != nil {
		return "", err
	}

	buf := make([]byte, varint.MaxLenUvarint63+len(kb))
	n := varint.PutUvarint(buf, mc.pub)
	copy(buf[n:], kb)
	buf = buf[:n+len(kb)]

	kstr, err := multibase.Encode(multibase.Base58BTC, buf)
	if err != nil {
		return "", fmt.Errorf("multibase encoding: %w", err)
	}
	return prefix + kstr, nil
}

// Parses a did:key string in to a public JWK.
func Parse(didKey string) (*jwk.PublicJWK, error) {
	if !strings.HasPrefix(didKey, prefix) {
		return nil, fmt.Errorf("%w: missing %q prefix", ErrInvalidEncoding, prefix)
	}
	c, kb, err := decodeMultikey(strings.TrimPrefix(didKey, prefix), false)
	if err != nil {
		return nil, err
	}
	return jwk.ParsePublicCompressed(c, kb)
}

// Returns the multibase encoding of the private key, including a multicodec indicator.
func EncodePrivateMultibase(priv jwk.PrivateJWK) (string, error) {
	if _, err := jwk.ParsePrivateJWK(priv); err != nil {
		return "", err
	}
	_, mc, err := codecsFor(priv.Curve)
	if err != nil {
		return "", err
	}
	d, err := base64.RawURLEncoding.DecodeString(priv.D)
	if err != nil {
		return "", fmt.Errorf("%w: %w", jwk.ErrInvalidJWK, err)
	}
	kbytes := append(varint.ToUvarint(mc.priv), d...)
	return "z" + base58.Encode(kbytes), nil
}

// Parses a private multibase string, as produced by [EncodePrivateMultibase], in to a private JWK.
func ParsePrivateMultibase(encoded string) (*jwk.PrivateJWK, error) {
	c, d, err := decodeMultikey(encoded, true)
	if err != nil {
		return nil, err
	}
	return jwk.FromExistingKey(c, hex.EncodeToString(d))
}

func decodeMultikey(encoded string, private bool) (curve.Curve, []byte, error) {
	if len(encoded) < 2 || encoded[0] != 'z' {
		return nil, nil, fmt.Errorf("%w: expected base58btc multibase", ErrInvalidEncoding)
	}
	enc, data, err := multibase.Decode(encoded)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidEncoding, err)
	}
	if enc != multibase.Base58BTC {
		return nil, nil, fmt.Errorf("%w: expected base58btc multibase", ErrInvalidEncoding)
	}
	code, n, err := varint.FromUvarint(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidEncoding, err)
	}
	c, err := curveForCodec(code, private)
	if err != nil {
		return nil, nil, err
	}
	return c, data[n:], nil
}
