package cli

import (
	"fmt"

	"pettycash/internal/database"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newMigrateCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrations(s, func(runner *database.MigrationRunner) error {
				if err := runner.RunMigrations(); err != nil {
					return err
				}
				pterm.Success.Println("Migrations applied")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrations(s, func(runner *database.MigrationRunner) error {
				if err := runner.RollbackLast(); err != nil {
					return err
				}
				pterm.Success.Println("Rolled back one migration")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrations(s, func(runner *database.MigrationRunner) error {
				version, dirty, err := runner.GetMigrationStatus()
				if err != nil {
					return err
				}
				return pterm.DefaultTable.WithData(pterm.TableData{
					{"Version", fmt.Sprint(version)},
					{"Dirty", fmt.Sprint(dirty)},
				}).Render()
			})
		},
	})

	return cmd
}

func withMigrations(s *session, fn func(*database.MigrationRunner) error) error {
	cfg, err := s.config()
	if err != nil {
		return err
	}

	// auto migration would race the explicit command
	cfg.Database.AutoMigrate = false

	db, err := database.Initialize(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	runner, release, err := db.NewMigrationRunner()
	if err != nil {
		return err
	}
	defer release()

	return fn(runner)
}
