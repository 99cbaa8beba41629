package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/slipstream/releasedecider/internal/database"
	"github.com/slipstream/releasedecider/internal/library/snapshotfile"
	"github.com/slipstream/releasedecider/internal/library/store"
	"github.com/slipstream/releasedecider/internal/logger"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	printVersion := func(cmd *cobra.Command, db *database.DB) error {
		v, err := db.Version(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Schema version %d\n", v)
		return nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDatabase(cmd, true, func(db *database.DB, log *logger.Logger) error {
				return printVersion(cmd, db)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDatabase(cmd, false, func(db *database.DB, log *logger.Logger) error {
				if err := db.MigrateDown(cmd.Context()); err != nil {
					return err
				}
				return printVersion(cmd, db)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDatabase(cmd, false, func(db *database.DB, log *logger.Logger) error {
				return printVersion(cmd, db)
			})
		},
	})

	return cmd
}

func newImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <snapshot>",
		Short: "Import a snapshot file into the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := snapshotfile.Load(args[0])
			if err != nil {
				return err
			}

			err = ctx.withDatabase(cmd, true, func(db *database.DB, log *logger.Logger) error {
				return store.New(db.Conn(), log.Logger).Import(cmd.Context(), file)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d series, %d episodes, %d custom formats\n",
				len(file.Series), len(file.Episodes), len(file.Formats))
			return nil
		},
	}
}
