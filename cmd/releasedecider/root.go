package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/slipstream/releasedecider/internal/config"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var envFile string

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "releasedecider",
		Short:         "Evaluate, filter and rank release candidates",
		Version:       config.VersionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A missing .env is not an error; an explicit one must exist.
			if cmd.Flags().Changed("env-file") {
				return godotenv.Load(envFile)
			}
			_ = godotenv.Load(envFile)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file loaded before the configuration")

	rootCmd.AddCommand(newParseCommand())
	rootCmd.AddCommand(newDecideCommand(ctx))
	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newMigrateCommand(ctx))
	rootCmd.AddCommand(newImportCommand(ctx))

	return rootCmd
}
