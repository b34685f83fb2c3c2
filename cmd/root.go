package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/treegar/admin-console/cmd/worker"
)

var (
	cfgPath string
	rootCmd = &cobra.Command{
		Use:           "treegar-admin",
		Short:         "Treegar X back-office console",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		report(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config file (defaults are embedded)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(authCommands()...)
	rootCmd.AddCommand(resourceCommands()...)
	rootCmd.AddCommand(worker.NewWorkerCmd())
}
