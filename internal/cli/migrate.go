package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jbweber/homelab/reel/internal/datastore"
	"github.com/jbweber/homelab/reel/internal/migrations"
)

// NewMigrateCommand creates the migrate command and its subcommands.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:          "up",
		Short:        "Apply all pending migrations",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatastore(cmd, rootOpts, func(ds *datastore.Datastore) error {
				if err := migrations.Run(cmd.Context(), ds); err != nil {
					return err
				}
				return printVersion(cmd, ds)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:          "down",
		Short:        "Roll back the latest migration",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatastore(cmd, rootOpts, func(ds *datastore.Datastore) error {
				m, err := migrations.RollbackLatest(cmd.Context(), ds)
				if errors.Is(err, migrations.ErrNothingToRollback) {
					fmt.Fprintln(cmd.OutOrStdout(), "nothing to roll back")
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d %s\n", m.Version, m.Name)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:          "version",
		Short:        "Print the current schema version",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatastore(cmd, rootOpts, func(ds *datastore.Datastore) error {
				return printVersion(cmd, ds)
			})
		},
	})

	return cmd
}

// withDatastore opens the configured store without migrating it.
func withDatastore(cmd *cobra.Command, rootOpts *RootOptions, fn func(ds *datastore.Datastore) error) error {
	cfg, logger, err := rootOpts.load(cmd)
	if err != nil {
		return err
	}

	ds, err := cfg.OpenDatabase(cmd.Context())
	if err != nil {
		return err
	}
	defer func() {
		if err := ds.Close(); err != nil {
			logger.Error("error closing database", "error", err)
		}
	}()

	return fn(ds)
}

func printVersion(cmd *cobra.Command, ds *datastore.Datastore) error {
	v, err := migrations.CurrentVersion(cmd.Context(), ds)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", v)
	return nil
}
