package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/conference-companion-go/internal/cms"
	"github.com/kapu/conference-companion-go/internal/service/database"
)

// CLI flags
var (
	dir     = flag.String("dir", "data/export", "Directory holding <collection>.json exports")
	dryRun  = flag.Bool("dry-run", false, "Parse and validate without writing to the database")
	dbHost  = flag.String("db-host", "localhost", "PostgreSQL host")
	dbPort  = flag.Int("db-port", 5432, "PostgreSQL port")
	dbUser  = flag.String("db-user", "companion", "PostgreSQL user")
	dbPass  = flag.String("db-pass", "companion", "PostgreSQL password")
	dbName  = flag.String("db-name", "companion", "PostgreSQL database")
	verbose = flag.Bool("verbose", false, "Verbose output")
)

type export struct {
	Collection cms.Collection
	Path       string
	Items      any
	Count      int
}

func main() {
	flag.Parse()

	log.Println("===========================")
	log.Println("CMS export to snapshot archive")
	log.Println("===========================")

	if *dryRun {
		log.Println("[DRY RUN MODE] No database changes will be made")
	}

	exports, err := loadExports(*dir)
	if err != nil {
		log.Fatalf("Failed to load exports: %v", err)
	}
	if len(exports) == 0 {
		log.Fatalf("No collection exports found in %s", *dir)
	}
	log.Printf("✓ Loaded %d collection exports", len(exports))

	if *dryRun {
		printSummary(exports)
		log.Println("✓ Dry-run completed successfully")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pg, err := database.NewPostgresService(ctx, database.PostgresConfig{
		Host:     *dbHost,
		Port:     *dbPort,
		User:     *dbUser,
		Password: *dbPass,
		Database: *dbName,
	}, zap.NewNop())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pg.Close()

	repo := database.NewSnapshotRepository(pg.GetDB(), zap.NewNop())
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to prepare snapshot table: %v", err)
	}

	for _, e := range exports {
		if err := repo.SaveCollection(ctx, e.Collection.String(), e.Items); err != nil {
			log.Fatalf("Failed to save %s: %v", e.Collection, err)
		}
		if *verbose {
			log.Printf("  → Saved: %s (%d items)", e.Collection, e.Count)
		}
	}

	log.Printf("✓ Imported %d collections", len(exports))
}

// loadExports reads every known collection file in dir. Missing files are
// skipped so a partial export can refresh only some collections.
func loadExports(dir string) ([]export, error) {
	var exports []export
	for _, c := range cms.Collections {
		path := filepath.Join(dir, c.String()+".json")
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		items, count, err := cms.DecodeExport(c, data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		exports = append(exports, export{Collection: c, Path: path, Items: items, Count: count})
	}

	if err := rejectUnknownFiles(dir); err != nil {
		return nil, err
	}
	return exports, nil
}

func rejectUnknownFiles(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".json")
		if _, ok := cms.ParseCollection(name); !ok {
			return fmt.Errorf("unknown collection file: %s", entry.Name())
		}
	}
	return nil
}

func printSummary(exports []export) {
	log.Println("\n=== Import Summary ===")
	total := 0
	for _, e := range exports {
		log.Printf("  %-18s %5d items  (%s)", e.Collection, e.Count, e.Path)
		total += e.Count
	}
	log.Printf("  %-18s %5d items", "total", total)
}
