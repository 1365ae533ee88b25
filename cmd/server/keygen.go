package main

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jrsteele09/wallet-oidc-bridge/token/keys"
)

var keygenCmd = &cobra.Command{
	Use:     "keygen",
	Short:   "Generate an RSA signing key for identity tokens",
	Example: `  wallet-oidc-bridge keygen --out signing.pem --bits 3072`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		bits, _ := cmd.Flags().GetInt("bits")
		if out == "" {
			return errors.New("--out is required")
		}

		kp, err := keys.GenerateRSAKeyPair(cfg.GetSigningKeyID(), bits)
		if err != nil {
			return errors.Wrap(err, "GenerateRSAKeyPair")
		}
		if err := kp.WriteFile(out); err != nil {
			return errors.Wrap(err, "WriteFile")
		}
		log.Info().Str("file", out).Str("kid", cfg.GetSigningKeyID()).Msg("signing key written, set oauth.signing_key_file to use it")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd)

	keygenCmd.Flags().String("out", "", "path of the PEM file to write")
	keygenCmd.Flags().Int("bits", 2048, "RSA key size")
}
