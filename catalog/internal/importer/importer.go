package importer

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-catalog/catalog/internal/model"
	catalogRepo "github.com/Astemirdum/library-catalog/catalog/internal/repository"
)

const columns = 4 // isbn, title, author, release_year

type Stats struct {
	Rows     int
	Imported int
	Authors  int
}

type Importer struct {
	repo catalogRepo.ImportRepository
	log  *zap.Logger
}

func New(repo catalogRepo.ImportRepository, log *zap.Logger) *Importer {
	return &Importer{
		repo: repo,
		log:  log.Named("importer"),
	}
}

// Run loads a headered CSV. The whole file is parsed before anything is written.
// With atomic set the file is imported in one transaction, otherwise every row
// commits on its own and the run stops at the first failing row.
func (im *Importer) Run(ctx context.Context, r io.Reader, atomic bool) (Stats, error) {
	records, err := Parse(r)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{Rows: len(records), Authors: distinctAuthors(records)}

	if atomic {
		err := im.repo.WithinTx(ctx, func(ctx context.Context, tx catalogRepo.ImportRepository) error {
			for _, rec := range records {
				if err := tx.ImportRecord(ctx, rec); err != nil {
					return errors.Wrapf(err, "line %d", rec.Line)
				}
			}
			return nil
		})
		if err != nil {
			return stats, err
		}
		stats.Imported = len(records)
		return stats, nil
	}

	for _, rec := range records {
		err := im.repo.WithinTx(ctx, func(ctx context.Context, tx catalogRepo.ImportRepository) error {
			return tx.ImportRecord(ctx, rec)
		})
		if err != nil {
			return stats, errors.Wrapf(err, "line %d", rec.Line)
		}
		stats.Imported++
		im.log.Debug("imported", zap.String("isbn", rec.ISBN), zap.Int("line", rec.Line))
	}
	return stats, nil
}

// Parse reads isbn,title,author,release_year records, skipping the header row.
func Parse(r io.Reader) ([]model.ImportRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = columns
	cr.TrimLeadingSpace = true

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "header")
	}

	var records []model.ImportRecord
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		year, err := strconv.Atoi(strings.TrimSpace(row[3]))
		if err != nil {
			return nil, errors.Errorf("line %d: release year %q is not a number", line, row[3])
		}
		records = append(records, model.ImportRecord{
			Line:   line,
			ISBN:   strings.TrimSpace(row[0]),
			Title:  strings.TrimSpace(row[1]),
			Author: strings.TrimSpace(row[2]),
			Year:   year,
		})
	}
	return records, nil
}

func distinctAuthors(records []model.ImportRecord) int {
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		seen[rec.Author] = struct{}{}
	}
	return len(seen)
}
