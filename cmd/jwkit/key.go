package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/bluesky-social/jwkit/didkey"
	"github.com/bluesky-social/jwkit/jwk"
	"github.com/bluesky-social/jwkit/util/cliutil"

	"github.com/urfave/cli/v2"
)

var curveFlag = &cli.StringFlag{
	Name:    "crv",
	Aliases: []string{"t"},
	Usage:   "indicate curve (Ed25519 is default; also X25519, P-256, P-384, secp256k1)",
	EnvVars: []string{"JWKIT_CURVE"},
}

var cmdGenerate = &cli.Command{
	Name:  "generate",
	Usage: "outputs a new private key as JWK",
	Flags: []cli.Flag{
		curveFlag,
		&cli.StringFlag{
			Name:    "out",
			Aliases: []string{"o"},
			Usage:   "write private key to this file, and print only the public key",
		},
	},
	Action: runGenerate,
}

var cmdImport = &cli.Command{
	Name:      "import",
	Usage:     "converts a hex-encoded private key to JWK",
	ArgsUsage: `<hex>`,
	Flags: []cli.Flag{
		curveFlag,
		&cli.StringFlag{
			Name:    "out",
			Aliases: []string{"o"},
			Usage:   "write private key to this file, and print only the public key",
		},
	},
	Action: runImport,
}

var cmdPublic = &cli.Command{
	Name:   "public",
	Usage:  "prints the public JWK for a private key file",
	Flags:  []cli.Flag{keyFileFlag},
	Action: runPublic,
}

var cmdInspect = &cli.Command{
	Name:      "inspect",
	Usage:     "parses and outputs metadata about a key file, did:key, or private multikey",
	ArgsUsage: `[<key>]`,
	Flags:     []cli.Flag{keyFileFlag},
	Action:    runInspect,
}

func runGenerate(cctx *cli.Context) error {
	crv, err := parseCurve(cctx.String("crv"))
	if err != nil {
		return err
	}
	priv, err := jwk.NewPrivateJWK(crv)
	if err != nil {
		return err
	}
	logKey("generated key", priv.Public())
	return outputPrivate(cctx, priv)
}

func runImport(cctx *cli.Context) error {
	s := cctx.Args().First()
	if s == "" {
		return fmt.Errorf("need to provide hex private key as an argument")
	}
	crv, err := parseCurve(cctx.String("crv"))
	if err != nil {
		return err
	}
	priv, err := jwk.ToPrivateJWK(s, crv)
	if err != nil {
		return err
	}
	logKey("imported key", priv.Public())
	return outputPrivate(cctx, priv)
}

func outputPrivate(cctx *cli.Context, priv *jwk.PrivateJWK) error {
	out := cctx.String("out")
	if out == "" {
		return printJSON(cctx.App.Writer, priv)
	}
	if err := cliutil.SaveKeyToFile(priv, out); err != nil {
		return err
	}
	slog.Info("wrote private key", "path", out)
	return printJSON(cctx.App.Writer, priv.Public())
}

func runPublic(cctx *cli.Context) error {
	priv, err := loadKey(cctx)
	if err != nil {
		return err
	}
	return printJSON(cctx.App.Writer, priv.Public())
}

func runInspect(cctx *cli.Context) error {
	w := cctx.App.Writer
	s := cctx.Args().First()
	if s == "" {
		priv, err := loadKey(cctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Encoding: JWK (private)\n")
		privMultibase, err := didkey.EncodePrivateMultibase(*priv)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Secret Key (Multibase Syntax): %s\n", privMultibase)
		return describePublic(cctx, priv.Public())
	}

	if strings.HasPrefix(s, "did:key:") {
		pub, err := didkey.Parse(s)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Encoding: DID Key\n")
		return describePublic(cctx, *pub)
	}

	priv, err := didkey.ParsePrivateMultibase(s)
	if err != nil {
		return fmt.Errorf("unknown key encoding: %w", err)
	}
	fmt.Fprintf(w, "Encoding: multibase (private)\n")
	return describePublic(cctx, priv.Public())
}

func describePublic(cctx *cli.Context, pub jwk.PublicJWK) error {
	w := cctx.App.Writer
	tp, err := pub.Thumbprint()
	if err != nil {
		return err
	}
	did, err := didkey.Encode(pub)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Key Type: %s / %s\n", pub.KeyType, pub.Curve)
	fmt.Fprintf(w, "Thumbprint (SHA-256): %s\n", tp)
	fmt.Fprintf(w, "Public Key (DID Key Syntax): %s\n", did)
	return printJSON(w, pub)
}

func loadKey(cctx *cli.Context) (*jwk.PrivateJWK, error) {
	fpath := cctx.String("key")
	if fpath == "" {
		return nil, fmt.Errorf("need to provide a key file (--key or JWKIT_KEY_FILE)")
	}
	priv, err := cliutil.LoadKeyFromFile(fpath)
	if err != nil {
		return nil, err
	}
	slog.Debug("loaded private key", "path", fpath, "crv", priv.Curve)
	return priv, nil
}

func loadPublicKey(cctx *cli.Context) (*jwk.PublicJWK, error) {
	fpath := cctx.String("key")
	if fpath == "" {
		return nil, fmt.Errorf("need to provide a key file (--key or JWKIT_KEY_FILE)")
	}
	pub, err := cliutil.LoadPublicKeyFromFile(fpath)
	if err != nil {
		return nil, err
	}
	slog.Debug("loaded public key", "path", fpath, "crv", pub.Curve)
	return pub, nil
}

// never logs "d"
func logKey(msg string, pub jwk.PublicJWK) {
	tp, err := pub.Thumbprint()
	if err != nil {
		slog.Warn("computing thumbprint", "err", err)
	}
	slog.Info(msg, "kty", pub.KeyType, "crv", pub.Curve, "thumbprint", tp)
}
