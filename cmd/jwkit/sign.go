package main

import (
	"fmt"
	"log/slog"

	"github.com/bluesky-social/jwkit/jose"

	"github.com/urfave/cli/v2"
)

var cmdSign = &cli.Command{
	Name:      "sign",
	Usage:     "signs a payload, printing a compact JWS",
	ArgsUsage: `<payload>`,
	Flags: []cli.Flag{
		keyFileFlag,
		&cli.StringFlag{
			Name:    "kid",
			Usage:   "key ID to include in the JWS header",
			EnvVars: []string{"JWKIT_KID"},
		},
	},
	Action: runSign,
}

var cmdVerify = &cli.Command{
	Name:      "verify",
	Usage:     "verifies a compact JWS, printing the payload",
	ArgsUsage: `<token>`,
	Flags:     []cli.Flag{pubKeyFileFlag},
	Action:    runVerify,
}

func runSign(cctx *cli.Context) error {
	if cctx.Args().Len() != 1 {
		return fmt.Errorf("need to provide payload as an argument")
	}
	priv, err := loadKey(cctx)
	if err != nil {
		return err
	}
	token, err := jose.Sign(*priv, []byte(cctx.Args().First()), cctx.String("kid"))
	if err != nil {
		return err
	}
	fmt.Fprintln(cctx.App.Writer, token)
	return nil
}

func runVerify(cctx *cli.Context) error {
	token := cctx.Args().First()
	if token == "" {
		return fmt.Errorf("need to provide token as an argument")
	}
	pub, err := loadPublicKey(cctx)
	if err != nil {
		return err
	}
	payload, hdr, err := jose.Verify(*pub, token)
	if err != nil {
		slog.Warn("JWS verification failed", "crv", pub.Curve, "err", err)
		return err
	}
	slog.Info("JWS verified", "alg", hdr.Algorithm, "kid", hdr.KeyID)
	fmt.Fprintln(cctx.App.Writer, string(payload))
	return nil
}
