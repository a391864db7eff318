package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-catalog/catalog/config"
	"github.com/Astemirdum/library-catalog/catalog/internal/importer"
	"github.com/Astemirdum/library-catalog/catalog/internal/repository"
	"github.com/Astemirdum/library-catalog/catalog/migrations"
	"github.com/Astemirdum/library-catalog/pkg/logger"
	"github.com/Astemirdum/library-catalog/pkg/postgres"
)

// Import seeds the catalog from a CSV file and prints a summary to out.
func Import(ctx context.Context, cfg *config.Import, path string, atomic bool, out io.Writer) error {
	log := logger.NewLogger(cfg.Log, "catalog-import")
	defer func() { _ = log.Sync() }()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	db, err := postgres.NewPostgresDB(ctx, &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		return fmt.Errorf("db init %v", err)
	}
	defer db.Close()

	repo, err := repository.NewRepository(db, log)
	if err != nil {
		return fmt.Errorf("repo %v", err)
	}

	stats, runErr := importer.New(repo, log).Run(ctx, f, atomic)
	if runErr != nil {
		log.Error("import", zap.String("file", path), zap.Error(runErr))
	}
	writeSummary(out, path, atomic, stats, runErr)
	return runErr
}

func writeSummary(out io.Writer, path string, atomic bool, stats importer.Stats, runErr error) {
	status := "ok"
	if runErr != nil {
		status = runErr.Error()
	}
	mode := "per-row"
	if atomic {
		mode = "atomic"
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetTitle(path)
	t.AppendHeader(table.Row{"Mode", "Rows", "Imported", "Authors", "Status"})
	t.AppendRow(table.Row{mode, stats.Rows, stats.Imported, stats.Authors, status})
	t.Render()
}
