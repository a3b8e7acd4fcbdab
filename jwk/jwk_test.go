package jwk

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"testing"
	"testing/iotest"

	"github.com/bluesky-social/jwkit/curve"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

const issuedKeyHex = "7c43fb7cea9a6b2a0b6f97c6c6313c9e067e2933eb45a5101760544874b15790"

func decodeField(t *testing.T, val string) []byte {
	t.Helper()
	buf, err := base64.RawURLEncoding.DecodeString(val)
	require.NoError(t, err)
	return buf
}

func TestIssuedKey(t *testing.T) {
	assert := assert.New(t)

	priv, err := ToPrivateJWK(issuedKeyHex, curve.Secp256k1)
	require.NoError(t, err)
	assert.Equal(curve.KeyTypeEC, priv.KeyType)
	assert.Equal("secp256k1", priv.Curve)
	assert.Equal("fEP7fOqaayoLb5fGxjE8ngZ-KTPrRaUQF2BUSHSxV5A", priv.D)
	assert.Equal("_oIgiP-TwLRflsUukYQlfbr07s9TzJa7N94suMf2hG0", priv.X)
	assert.Equal("ERSs9DhsPqyBAlAicke1r4mlkhe-IX6oIqATxfY9Acs", priv.Y)
}

func TestKnownVectors(t *testing.T) {
	assert := assert.New(t)

	fixtures := []struct {
		crv    curve.Curve
		secret string
		d      string
		x      string
		y      string
	}{
		// https://datatracker.ietf.org/doc/html/rfc7517#appendix-A.2
		{
			crv:    curve.P256,
			secret: "f3bd0c07a81fb932781ed52752f60cc89a6be5e51934fe01938ddb55d8f77801",
			d:      "870MB6gfuTJ4HtUnUvYMyJpr5eUZNP4Bk43bVdj3eAE",
			x:      "MKBCTNIcKUSDii11ySs3526iDZ8AiTo7Tu6KPAqv7D4",
			y:      "4Etl6SRW2YiLUrN5vfvVHuhp7x8PxltmWWlbbM4IFyM",
		},
		// https://datatracker.ietf.org/doc/html/rfc8037#appendix-A.1
		{
			crv:    curve.Ed25519,
			secret: "9d61b19deffd5a60ba844af492ec2cc44449c5697b326919703bac031cae7f60",
			d:      "nWGxne_9WmC6hEr0kuwsxERJxWl7MmkZcDusAxyuf2A",
			x:      "11qYAYKxCrfVS_7TyWQHOg7hcvPapiMlrwIaaPcHURo",
		},
		// https://datatracker.ietf.org/doc/html/rfc8037#appendix-A.6 (RFC 7748 section 6.1)
		{
			crv:    curve.X25519,
			secret: "77076d0a7318a57d3c16c17251b26645df4c2f87ebc0992ab177fba51db92c2a",
			d:      "dwdtCnMYpX08FsFyUbJmRd9ML4frwJkqsXf7pR25LCo",
			x:      "hSDwCYkwp1R0i33ctD73Wg2_Og0mOBr066SpjqqbTmo",
		},
	}

	for _, f := range fixtures {
		priv, err := ToPrivateJWK(f.secret, f.crv)
		require.NoError(t, err, f.crv.CRV())
		assert.Equal(f.crv.KeyType(), priv.KeyType)
		assert.Equal(f.crv.CRV(), priv.Curve)
		assert.Equal(f.d, priv.D)
		assert.Equal(f.x, priv.X)
		assert.Equal(f.y, priv.Y)
	}
}

// scalar 1 gives the base point, and has the maximum number of leading zero bytes
func TestBasePoints(t *testing.T) {
	assert := assert.New(t)

	fixtures := []struct {
		crv curve.EC
		x   string
		y   string
	}{
		{curve.Secp256k1, "eb5mfvncu6xVoGKVzocLBwKb_NstzijZWfKBWxb4F5g", "SDradyajxGVdpPv8DhEIqP0XtEimhVQZnEfQj_sQ1Lg"},
		{curve.P256, "axfR8uEsQkf4vOblY6RA8ncDfYEt6zOg9KE5RdiYwpY", "T-NC4v4af5uO5-tKfA-eFivOM1drMV7Oy7ZAaDe_UfU"},
		{curve.P384, "qofKIr6LBTeOscce8yCtdG4dO2KLp5uYWfdB4IJUKjhVAvJdv1UpbDpUXjhydgq3", "NhfeSpYmLG9dnpi_kpLcKfj0Hb0omhR86doxE7XwuMAKYLHOHX6BnXpDHXyQ6g5f"},
	}

	for _, f := range fixtures {
		for _, scalar := range []string{"1", "01", "0x01", "0000000000000000000000000000000000000000000000000000000000000001"} {
			priv, err := ToPrivateECJWK(scalar, f.crv)
			require.NoError(t, err, scalar)
			assert.Equal(f.x, priv.X)
			assert.Equal(f.y, priv.Y)

			d := decodeField(t, priv.D)
			assert.Equal(f.crv.Size(), len(d))
			assert.Equal(byte(1), d[len(d)-1])
		}
	}
}

func TestDefaultCurve(t *testing.T) {
	assert := assert.New(t)

	priv, err := ToPrivateJWK(issuedKeyHex, nil)
	require.NoError(t, err)
	assert.Equal(curve.KeyTypeOKP, priv.KeyType)
	assert.Equal("Ed25519", priv.Curve)
	assert.Empty(priv.Y)

	edPriv, err := ToPrivateEdDSAJWK(issuedKeyHex)
	require.NoError(t, err)
	assert.Equal(edPriv, priv)

	gen, err := NewPrivateJWK(nil)
	require.NoError(t, err)
	assert.Equal(curve.KeyTypeOKP, gen.KeyType)
	assert.Equal("Ed25519", gen.Curve)
}

func TestDeterminism(t *testing.T) {
	assert := assert.New(t)

	for _, c := range curve.All() {
		first, err := ToPrivateJWK(issuedKeyHex, c)
		require.NoError(t, err, c.CRV())
		second, err := ToPrivateJWK(issuedKeyHex, c)
		require.NoError(t, err)
		assert.Equal(first, second)

		a, err := json.Marshal(first)
		require.NoError(t, err)
		b, err := json.Marshal(second)
		require.NoError(t, err)
		assert.Equal(a, b)
	}
}

func TestGenerateUnique(t *testing.T) {
	assert := assert.New(t)

	for _, c := range curve.All() {
		seen := map[string]bool{}
		for i := 0; i < 16; i++ {
			priv, err := NewPrivateJWK(c)
			require.NoError(t, err, c.CRV())
			assert.Equal(c.CRV(), priv.Curve)
			assert.Equal(c.KeyType(), priv.KeyType)
			assert.False(seen[priv.D])
			seen[priv.D] = true
		}
	}
}

func TestFixedWidth(t *testing.T) {
	assert := assert.New(t)

	for _, c := range curve.All() {
		for i := 0; i < 64; i++ {
			priv, err := NewPrivateJWK(c)
			require.NoError(t, err, c.CRV())
			assert.Equal(c.Size(), len(decodeField(t, priv.D)))
			assert.Equal(c.Size(), len(decodeField(t, priv.X)))
			if c.KeyType() == curve.KeyTypeEC {
				assert.Equal(c.Size(), len(decodeField(t, priv.Y)))
			} else {
				assert.Empty(priv.Y)
			}
		}
	}
}

func TestProjection(t *testing.T) {
	assert := assert.New(t)

	for _, c := range curve.All() {
		priv, err := NewPrivateJWK(c)
		require.NoError(t, err)
		before := *priv

		pub := PublicJWKFromPrivate(*priv)
		assert.Equal(priv.KeyType, pub.KeyType)
		assert.Equal(priv.Curve, pub.Curve)
		assert.Equal(priv.X, pub.X)
		assert.Equal(priv.Y, pub.Y)
		assert.Equal(pub, priv.Public())
		assert.Equal(before, *priv)

		buf, err := json.Marshal(pub)
		require.NoError(t, err)
		var fields map[string]any
		require.NoError(t, json.Unmarshal(buf, &fields))
		assert.NotContains(fields, "d")
		if c.KeyType() == curve.KeyTypeOKP {
			assert.NotContains(fields, "y")
		} else {
			assert.Contains(fields, "y")
		}
	}
}

func TestRoundTrip(t *testing.T) {
	assert := assert.New(t)

	for _, c := range curve.All() {
		for _, priv := range []*PrivateJWK{mustGenerate(t, c), mustLoad(t, issuedKeyHex, c)} {
			derived, err := DerivePublicJWK(*priv)
			require.NoError(t, err, c.CRV())
			assert.Equal(PublicJWKFromPrivate(*priv), *derived)

			_, err = ParsePrivateJWK(*priv)
			assert.NoError(err)
		}
	}
}

func TestPrivateJSON(t *testing.T) {
	assert := assert.New(t)

	priv := mustLoad(t, issuedKeyHex, curve.Secp256k1)
	buf, err := json.Marshal(priv)
	require.NoError(t, err)
	var fields map[string]string
	require.NoError(t, json.Unmarshal(buf, &fields))
	assert.Equal(map[string]string{
		"kty": "EC",
		"crv": "secp256k1",
		"x":   priv.X,
		"y":   priv.Y,
		"d":   priv.D,
	}, fields)

	edPriv := mustLoad(t, issuedKeyHex, curve.Ed25519)
	buf, err = json.Marshal(edPriv)
	require.NoError(t, err)
	assert.NotContains(string(buf), `"y"`)
}

func TestRejectInvalidScalar(t *testing.T) {
	assert := assert.New(t)

	fixtures := []struct {
		crv    curve.Curve
		secret string
	}{
		{curve.Secp256k1, ""},
		{curve.Secp256k1, "0x"},
		{curve.Secp256k1, "00"},
		{curve.Secp256k1, "zz"},
		// curve order n
		{curve.Secp256k1, "fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141"},
		// too wide
		{curve.Secp256k1, "01" + issuedKeyHex},
		{curve.P256, ""},
		// curve order n
		{curve.P256, "ffffffff00000000ffffffffffffffffbce6faada7179e84f3b9cac2fc632551"},
		{curve.P384, "01" + issuedKeyHex + "0000000000000000000000000000000000000000000000000000000000000000"},
		{curve.Ed25519, ""},
		{curve.Ed25519, "abcd"},
		{curve.Ed25519, issuedKeyHex + "00"},
		{curve.X25519, "abcd"},
		{nil, ""},
	}

	for _, f := range fixtures {
		priv, err := ToPrivateJWK(f.secret, f.crv)
		assert.Nil(priv)
		assert.True(errors.Is(err, ErrInvalidScalar), "%v %q: %v", f.crv, f.secret, err)
	}
}

func TestRandomSourceFailure(t *testing.T) {
	assert := assert.New(t)

	broken := iotest.ErrReader(errors.New("entropy pool unavailable"))
	for _, c := range []curve.Curve{nil, curve.Ed25519, curve.X25519} {
		priv, err := newPrivateJWK(c, broken)
		assert.Nil(priv)
		assert.ErrorIs(err, ErrRandomSource)
	}

	priv, err := newPrivateJWK(curve.Ed25519, &shortReader{n: 16})
	assert.Nil(priv)
	assert.ErrorIs(err, ErrRandomSource)
}

type shortReader struct {
	n int
}

func (r *shortReader) Read(p []byte) (int, error) {
	if r.n <= 0 {
		return 0, errors.New("short read")
	}
	if len(p) > r.n {
		p = p[:r.n]
	}
	for i := range p {
		p[i] = 0x42
	}
	r.n -= len(p)
	return len(p), nil
}

func TestExplicitEntryPoints(t *testing.T) {
	assert := assert.New(t)

	_, err := GenerateNewKey(nil)
	assert.ErrorIs(err, ErrUnsupportedCurve)
	_, err = FromExistingKey(nil, issuedKeyHex)
	assert.ErrorIs(err, ErrUnsupportedCurve)

	for _, c := range curve.All() {
		a, err := FromExistingKey(c, issuedKeyHex)
		require.NoError(t, err)
		b, err := ToPrivateJWK(issuedKeyHex, c)
		require.NoError(t, err)
		assert.Equal(a, b)

		gen, err := GenerateNewKey(c)
		require.NoError(t, err)
		assert.Equal(c.CRV(), gen.Curve)
	}

	// the zero value is not a registered curve
	_, err = ToPrivateECJWK(issuedKeyHex, curve.EC{})
	assert.ErrorIs(err, ErrUnsupportedCurve)
	_, err = NewPrivateOKPJWK(curve.OKP{})
	assert.ErrorIs(err, ErrUnsupportedCurve)
	_, err = NewPrivateECJWK(curve.EC{})
	assert.ErrorIs(err, ErrUnsupportedCurve)
	_, err = ToPrivateOKPJWK(issuedKeyHex, curve.OKP{})
	assert.ErrorIs(err, ErrUnsupportedCurve)

	// curve is checked before the secret width
	for _, c := range []curve.Curve{curve.EC{}, curve.OKP{}} {
		for _, secretHex := range []string{"00", issuedKeyHex, ""} {
			_, err = ToPrivateJWK(secretHex, c)
			assert.ErrorIs(err, ErrUnsupportedCurve, "%T %q", c, secretHex)
			assert.NotErrorIs(err, ErrInvalidScalar)
		}
	}
}

func TestHexInput(t *testing.T) {
	assert := assert.New(t)

	plain := mustLoad(t, issuedKeyHex, curve.Secp256k1)
	prefixed := mustLoad(t, "0x"+issuedKeyHex, curve.Secp256k1)
	assert.Equal(plain, prefixed)
	upper := mustLoad(t, "0X"+issuedKeyHex, curve.Secp256k1)
	assert.Equal(plain, upper)

	_, err := ToPrivateJWK("0X", curve.Secp256k1)
	assert.ErrorIs(err, ErrInvalidScalar)

	raw, err := hex.DecodeString(issuedKeyHex)
	require.NoError(t, err)
	assert.Equal(raw, decodeField(t, plain.D))

	// odd-length input gets a leading zero nibble
	odd := mustLoad(t, "abc", curve.P256)
	even := mustLoad(t, "0abc", curve.P256)
	assert.Equal(odd, even)
}

func TestConcurrentUse(t *testing.T) {
	var eg errgroup.Group
	for _, c := range curve.All() {
		for i := 0; i < 8; i++ {
			eg.Go(func() error {
				priv, err := NewPrivateJWK(c)
				if err != nil {
					return err
				}
				_, err = ParsePrivateJWK(*priv)
				return err
			})
		}
	}
	assert.NoError(t, eg.Wait())
}

func mustGenerate(t *testing.T, c curve.Curve) *PrivateJWK {
	t.Helper()
	priv, err := NewPrivateJWK(c)
	require.NoError(t, err)
	return priv
}

func mustLoad(t *testing.T, secret string, c curve.Curve) *PrivateJWK {
	t.Helper()
	priv, err := ToPrivateJWK(secret, c)
	require.NoError(t, err)
	return priv
}
