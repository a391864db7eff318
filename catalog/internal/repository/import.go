package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/Astemirdum/library-catalog/catalog/internal/model"
)

func (r *repository) ImportRecord(ctx context.Context, rec model.ImportRecord) error {
	authorID, err := r.upsertAuthor(ctx, rec.Author)
	if err != nil {
		return errors.Wrapf(err, "author %q", rec.Author)
	}

	query, args, err := qb.Insert(bookTableName).
		Columns("isbn", "title", "author", "release_year").
		Values(rec.ISBN, rec.Title, authorID, rec.Year).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return errors.Wrapf(translateError(err), "book %s", rec.ISBN)
	}
	return nil
}

// upsertAuthor is idempotent on the author name.
func (r *repository) upsertAuthor(ctx context.Context, name string) (int, error) {
	insert, args, err := qb.Insert(authorTableName).
		Columns("name").
		Values(name).
		Suffix("ON CONFLICT (name) DO NOTHING").
		ToSql()
	if err != nil {
		return 0, err
	}
	if _, err := r.db.Exec(ctx, insert, args...); err != nil {
		return 0, translateError(err)
	}

	query, args, err := qb.Select("id").
		From(authorTableName).
		Where(sq.Eq{"name": name}).
		ToSql()
	if err != nil {
		return 0, err
	}
	var id int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}
