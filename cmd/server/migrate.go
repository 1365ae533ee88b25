package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	Long: `Connects to storage.database_url and applies every pending migration.
The serve command migrates on startup as well; this is for running it as a
separate deployment step.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		pool, err := openPostgres(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer pool.Close()
		log.Info().Msg("migrations applied")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
