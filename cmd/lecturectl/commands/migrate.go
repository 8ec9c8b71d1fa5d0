package commands

import (
	"fmt"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/spf13/cobra"

	"github.com/johnquangdev/lecture-assistant/internal/infrastructure/database"
)

var migrationsDir string

// NewMigrateCmd creates the migrate command
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate [up|down]",
		Short: "Apply or roll back SQL migrations",
		Long: `Apply (up, the default) or roll back (down) the SQL migrations.

Examples:
  lecturectl migrate
  lecturectl migrate down --dir ./migrations`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"up", "down"},
		RunE:      runMigrate,
	}
	cmd.Flags().StringVar(&migrationsDir, "dir", database.DefaultMigrationsDir, "Migrations directory")
	return cmd
}

func runMigrate(cmd *cobra.Command, args []string) error {
	direction := migrate.Up
	if len(args) == 1 {
		switch args[0] {
		case "up":
		case "down":
			direction = migrate.Down
		default:
			return fmt.Errorf("unknown direction %q", args[0])
		}
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := database.NewPostgresDB(cfg, logger)
	if err != nil {
		return err
	}
	defer database.CloseDB(db)

	n, err := database.Migrate(db, migrationsDir, direction, logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s)\n", n)
	return nil
}
