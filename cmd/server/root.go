package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jrsteele09/wallet-oidc-bridge/internal/config"
	"github.com/jrsteele09/wallet-oidc-bridge/internal/logging"
)

var (
	configFile string
	v          = config.NewViper()
	cfg        config.Config
)

var rootCmd = &cobra.Command{
	Use:   "wallet-oidc-bridge",
	Short: "OpenID Connect provider for approved wallet identities",
	Long: `wallet-oidc-bridge accepts a wallet public key identity, holds it until an
administrator approves it and then federates it to a relying party over the
OpenID Connect authorization code flow.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		used, err := config.ReadFile(v, configFile)
		cfg = config.New(v)
		logging.Init(cfg.GetLogLevel(), cfg.GetLogFormat(), cfg.GetLogNoColor())
		if err != nil { // reported once logging is configured
			return err
		}
		if used != "" {
			log.Debug().Str("file", used).Msg("using config file")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	logging.InitDefault()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is ./bridge.yaml)")

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	_ = v.BindPFlag(config.LogLevelKey, rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.PersistentFlags().String("log-format", "console", "Log format (console, json)")
	_ = v.BindPFlag(config.LogFormatKey, rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.PersistentFlags().Bool("no-color", false, "Disable color output")
	_ = v.BindPFlag(config.LogNoColorKey, rootCmd.PersistentFlags().Lookup("no-color"))

	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
}
