package repository

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-catalog/catalog/internal/errs"
	"github.com/Astemirdum/library-catalog/catalog/internal/model"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching s as a literal substring.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func selectBooks() sq.SelectBuilder {
	return qb.Select("b.isbn", "b.title", "coalesce(b.release_year, 0) AS release_year", "a.name AS author").
		From(bookTableName + " b").
		Join(authorTableName + " a ON a.id = b.author")
}

// filterBooks adds the conjunctive partial-match predicates. Matching is case-sensitive.
func filterBooks(q sq.SelectBuilder, f model.SearchFilter) sq.SelectBuilder {
	if f.Author != "" {
		q = q.Where(sq.Like{"a.name": containsPattern(f.Author)})
	}
	if f.ISBN != "" {
		q = q.Where(sq.Like{"b.isbn": containsPattern(f.ISBN)})
	}
	if f.Title != "" {
		q = q.Where(sq.Like{"b.title": containsPattern(f.Title)})
	}
	return q
}

func paged(f model.SearchFilter) bool {
	return f.Page > 0 && f.Size > 0
}

func searchQuery(f model.SearchFilter) sq.SelectBuilder {
	q := filterBooks(selectBooks(), f).OrderBy("b.isbn")
	if paged(f) {
		q = q.Limit(uint64(f.Size)).Offset(uint64(f.Page-1) * uint64(f.Size))
	}
	return q
}

// countQuery counts every match of f regardless of paging.
func countQuery(f model.SearchFilter) sq.SelectBuilder {
	return filterBooks(qb.Select("count(*)").
		From(bookTableName+" b").
		Join(authorTableName+" a ON a.id = b.author"), f)
}

func (r *repository) SearchBooks(ctx context.Context, filter model.SearchFilter) (model.ListBooks, error) {
	query, args, err := searchQuery(filter).ToSql()
	if err != nil {
		return model.ListBooks{}, err
	}
	r.log.Debug("SearchBooks", zap.String("query", query), zap.Any("args", args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return model.ListBooks{}, err
	}
	defer rows.Close()

	books, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Book])
	if err != nil {
		return model.ListBooks{}, errors.Wrap(err, "pgx.CollectRows")
	}

	total := len(books)
	if paged(filter) {
		if total, err = r.countBooks(ctx, filter); err != nil {
			return model.ListBooks{}, err
		}
	}

	return model.ListBooks{
		Paging: model.Paging{
			Page:          filter.Page,
			PageSize:      filter.Size,
			TotalElements: total,
		},
		Items: books,
	}, nil
}

func (r *repository) countBooks(ctx context.Context, filter model.SearchFilter) (int, error) {
	query, args, err := countQuery(filter).ToSql()
	if err != nil {
		return 0, err
	}
	var total int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, errors.Wrap(err, "count books")
	}
	return total, nil
}

func (r *repository) GetBook(ctx context.Context, isbn string) (model.Book, error) {
	query, args, err := selectBooks().
		Where(sq.Eq{"b.isbn": isbn}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return model.Book{}, err
	}
	defer rows.Close()

	book, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Book])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Book{}, errs.ErrNotFound
		}
		return model.Book{}, err
	}
	return book, nil
}
