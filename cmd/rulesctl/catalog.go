package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/udisondev/mudcore/internal/catalog"
	"github.com/udisondev/mudcore/internal/config"
	"github.com/udisondev/mudcore/internal/db"
)

var (
	catalogSource string
	catalogFile   string
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and import the ability catalog",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List abilities with their restrictions",
	RunE:  runCatalogList,
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Replace the database catalog with a YAML catalog",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogImport,
}

func init() {
	catalogListCmd.Flags().StringVar(&catalogSource, "source", "", "Catalog source: yaml or postgres (default from config)")
	catalogListCmd.Flags().StringVar(&catalogFile, "file", "", "YAML catalog path (default from config)")
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogImportCmd)
}

func runCatalogList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if catalogSource != "" {
		cfg.Catalog.Source = catalogSource
	}
	if catalogFile != "" {
		cfg.Catalog.Path = catalogFile
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	var src catalog.Source = catalog.YAMLSource{Path: cfg.Catalog.Path}
	if strings.EqualFold(cfg.Catalog.Source, "postgres") {
		database, err := db.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()
		src = db.NewCatalogRepository(database.Pool())
	}

	rec, err := src.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}
	snap, err := catalog.Build(rec)
	if err != nil {
		return fmt.Errorf("validating catalog: %w", err)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tKIND\tTARGETS\tLEVEL\tMANA\tCOOLDOWN\tCAST\tEFFECTS")
	for _, ab := range snap.Abilities() {
		var r catalog.Restriction
		if rr, ok := snap.Restriction(ab.ID); ok {
			r = *rr
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%s\t%s\t%d\n",
			ab.ID, ab.Name, ab.Kind, strings.Join(ab.TargetFlags.Names(), ","),
			r.MinLevel, r.ManaCost, r.Cooldown, r.CastTime, len(snap.Links(ab.ID)))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	counts := snap.Counts()
	fmt.Printf("\n%d abilities, %d effects, %d links\n", counts.Abilities, counts.Effects, counts.Links)
	return nil
}

func runCatalogImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	rec, err := catalog.YAMLSource{Path: args[0]}.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	database, err := openMigrated(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.NewCatalogRepository(database.Pool()).Replace(ctx, rec); err != nil {
		return fmt.Errorf("importing catalog: %w", err)
	}
	fmt.Printf("Imported %d abilities and %d effects from %s\n", len(rec.Abilities), len(rec.Effects), args[0])
	return nil
}

func openMigrated(ctx context.Context, cfg config.DatabaseConfig) (*db.DB, error) {
	dsn := cfg.DSN()
	if err := db.RunMigrations(ctx, dsn); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	database, err := db.New(ctx, dsn, cfg.MaxConns)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return database, nil
}
