package cmd

import (
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/sponsornet/settlement-engine/cmd/migrate"
)

func NewMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate database schema",
	}
	cmd.AddCommand(
		migrate.NewMigrateUpCommand(),
		migrate.NewMigrateDownCommand(),
	)
	return cmd
}
