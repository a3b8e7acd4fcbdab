package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/bluesky-social/jwkit/curve"

	"github.com/urfave/cli/v2"
)

func configLogger(cctx *cli.Context, writer io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cctx.String("log-level")) {
	case "error":
		level = slog.LevelError
	case "warn":
		level = slog.LevelWarn
	case "info":
		level = slog.LevelInfo
	case "debug":
		level = slog.LevelDebug
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(writer, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

// Resolves the curve names and JOSE algorithm aliases accepted on the command line.
func parseCurve(name string) (curve.Curve, error) {
	switch name {
	case "", "Ed25519", "ed25519", "EdDSA":
		return curve.Ed25519, nil
	case "X25519", "x25519", "curve25519":
		return curve.X25519, nil
	case "P-256", "p256", "ES256", "secp256r1":
		return curve.P256, nil
	case "P-384", "p384", "ES384", "secp384r1":
		return curve.P384, nil
	case "K-256", "k256", "ES256K", "secp256k1":
		return curve.Secp256k1, nil
	default:
		return nil, fmt.Errorf("%w: %s", curve.ErrUnsupportedCurve, name)
	}
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(b))
	return nil
}
