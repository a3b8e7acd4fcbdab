package jwk

import (
	"encoding/json"
	"fmt"

	"github.com/bluesky-social/jwkit/curve"

	"github.com/minio/sha256-simd"
)

// RFC 7638 requires exactly the required members, in lexicographic order, with no whitespace.
type ecThumbprintMembers struct {
	Curve   string `json:"crv"`
	KeyType string `json:"kty"`
	X       string `json:"x"`
	Y       string `json:"y"`
}

type okpThumbprintMembers struct {
	Curve   string `json:"crv"`
	KeyType string `json:"kty"`
	X       string `json:"x"`
}

// Computes the RFC 7638 JWK Thumbprint, using SHA-256, as a base64url string.
//
// Commonly used as a "kid" value. The key is validated first.
func (k *PublicJWK) Thumbprint() (string, error) {
	if _, err := k.point(); err != nil {
		return "", err
	}

	var members any
	switch k.KeyType {
	case curve.KeyTypeEC:
		members = ecThumbprintMembers{Curve: k.Curve, KeyType: string(k.KeyType), X: k.X, Y: k.Y}
	case curve.KeyTypeOKP:
		members = okpThumbprintMembers{Curve: k.Curve, KeyType: string(k.KeyType), X: k.X}
	default:
		return "", fmt.Errorf("%w: unsupported JWK key type: %s", ErrInvalidJWK, k.KeyType)
	}

	buf, err := json.Marshal(members)
	if err != nil {
		return "", fmt.Errorf("serializing JWK thumbprint members: %w", err)
	}
	sum := sha256.Sum256(buf)
	return b64(sum[:]), nil
}
