package main

import (
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jrsteele09/wallet-oidc-bridge/accounts"
	"github.com/jrsteele09/wallet-oidc-bridge/identity"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Inspect wallet accounts",
}

var accountsListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List accounts and their approval status",
	Example: `  wallet-oidc-bridge accounts list --status pending`,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")

		st, err := openStorage(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		registry, err := accounts.NewRegistry(st.accounts)
		if err != nil {
			return err
		}
		list, err := registry.List(cmd.Context(), accounts.Status(status))
		if err != nil {
			return err
		}
		if len(list) == 0 {
			log.Info().Msg("No accounts found")
			return nil
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"ID", "Public Key", "Name", "Status", "Created", "Decided By"})

		bold := color.New(color.Bold).SprintFunc()
		faint := color.New(color.Faint).SprintFunc()
		for _, account := range list {
			t.AppendRow(table.Row{
				faint(account.ID),
				identity.ShortKey(account.PublicKey),
				bold(account.DisplayName),
				statusColor(account.Status).Sprint(account.Status),
				account.CreatedAt.Format(time.RFC3339),
				account.DecidedBy,
			})
		}

		s := table.StyleRounded
		s.Format.Header = text.FormatDefault
		t.SetStyle(s)
		t.Render()
		return nil
	},
}

func statusColor(status accounts.Status) *color.Color {
	switch status {
	case accounts.StatusApproved:
		return color.New(color.FgGreen)
	case accounts.StatusRejected:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgYellow)
	}
}

func init() {
	rootCmd.AddCommand(accountsCmd)
	accountsCmd.AddCommand(accountsListCmd)

	accountsListCmd.Flags().String("status", "", "only list accounts with this status (pending, approved, rejected)")
}
