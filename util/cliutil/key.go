package cliutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bluesky-social/jwkit/curve"
	"github.com/bluesky-social/jwkit/jwk"
)

// Loads a private key from JWK JSON on disk. The public fields must match "d".
func LoadKeyFromFile(fpath string) (*jwk.PrivateJWK, error) {
	kb, err := os.ReadFile(fpath)
	if err != nil {
		return nil, err
	}

	priv, err := jwk.ParsePrivateJWKBytes(kb)
	if err != nil {
		return nil, fmt.Errorf("loading key from %s: %w", fpath, err)
	}
	return priv, nil
}

// Loads a public key from JWK JSON on disk. Any "d" field is ignored.
func LoadPublicKeyFromFile(fpath string) (*jwk.PublicJWK, error) {
	kb, err := os.ReadFile(fpath)
	if err != nil {
		return nil, err
	}

	pub, err := jwk.ParsePublicJWKBytes(kb)
	if err != nil {
		return nil, fmt.Errorf("loading key from %s: %w", fpath, err)
	}
	return pub, nil
}

// Writes the private key to disk as indented JWK JSON.
func SaveKeyToFile(priv *jwk.PrivateJWK, fname string) error {
	buf, err := json.MarshalIndent(priv, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal key into JSON: %w", err)
	}

	// ensure data directory exists; won't error if it does
	if err := os.MkdirAll(filepath.Dir(fname), 0700); err != nil {
		return fmt.Errorf("creating key directory: %w", err)
	}

	return os.WriteFile(fname, buf, 0600)
}

// Generates a secret key on the given curve and saves it to disk as JWK.
func GenerateKeyToFile(fname string, crv curve.Curve) (*jwk.PrivateJWK, error) {
	priv, err := jwk.NewPrivateJWK(crv)
	if err != nil {
		return nil, fmt.Errorf("failed to generate new private key: %w", err)
	}
	if err := SaveKeyToFile(priv, fname); err != nil {
		return nil, err
	}
	return priv, nil
}
