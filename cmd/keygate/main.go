package main

import (
	"os"

	"github.com/spf13/cobra"

	"keygate/internal/interfaces/cli/genkey"
	"keygate/internal/interfaces/cli/migrate"
	"keygate/internal/interfaces/cli/server"
	"keygate/internal/interfaces/cli/worker"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "keygate",
		Short: "Keygate - license server",
		Long:  `Keygate sells time-boxed, machine-bound licenses: accounts, payments, activation keys, heartbeats and admin overrides.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		worker.NewCommand(),
		migrate.NewCommand(),
		genkey.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
