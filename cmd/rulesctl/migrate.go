package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/udisondev/mudcore/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	dsn := cfg.Database.DSN()
	if err := db.RunMigrations(ctx, dsn); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	version, err := db.MigrationVersion(ctx, dsn)
	if err != nil {
		return err
	}
	fmt.Printf("Database at migration version %d\n", version)
	return nil
}

