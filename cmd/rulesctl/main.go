// Package main is rulesctl, the operator CLI for the rules core: formula
// evaluation, catalog inspection and import, and schema migrations.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/udisondev/mudcore/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "rulesctl",
	Short: "Operate the mudcore rules core",
	Long:  `rulesctl evaluates formulas, inspects and imports the ability catalog, and applies database migrations.`,
	PersistentPreRunE: func(*cobra.Command, []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading .env: %w", err)
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
		return nil
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/mudcore.yaml", "Path to the server config file")
	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(migrateCmd)
}

func loadConfig() (config.Server, error) {
	cfg, err := config.LoadServer(configPath)
	if err != nil {
		return config.Server{}, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}
