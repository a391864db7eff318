package repository

import (
	"strings"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/Astemirdum/library-catalog/catalog/internal/errs"
	"github.com/Astemirdum/library-catalog/catalog/internal/model"
)

const baseSelect = "SELECT b.isbn, b.title, coalesce(b.release_year, 0) AS release_year, a.name AS author FROM book b JOIN author a ON a.id = b.author"

func Test_searchQuery(t *testing.T) {
	tests := []struct {
		name     string
		filter   model.SearchFilter
		wantSQL  string
		wantArgs []interface{}
	}{
		{
			name:    "no fragments match everything",
			filter:  model.SearchFilter{},
			wantSQL: baseSelect + " ORDER BY b.isbn",
		},
		{
			name:     "author only",
			filter:   model.SearchFilter{Author: "Austen"},
			wantSQL:  baseSelect + " WHERE a.name LIKE $1 ORDER BY b.isbn",
			wantArgs: []interface{}{"%Austen%"},
		},
		{
			name:     "title only",
			filter:   model.SearchFilter{Title: "Harry"},
			wantSQL:  baseSelect + " WHERE b.title LIKE $1 ORDER BY b.isbn",
			wantArgs: []interface{}{"%Harry%"},
		},
		{
			name:     "all fragments are conjunctive",
			filter:   model.SearchFilter{ISBN: "0143", Title: "Pers", Author: "Austen"},
			wantSQL:  baseSelect + " WHERE a.name LIKE $1 AND b.isbn LIKE $2 AND b.title LIKE $3 ORDER BY b.isbn",
			wantArgs: []interface{}{"%Austen%", "%0143%", "%Pers%"},
		},
		{
			name:     "wildcards are literal",
			filter:   model.SearchFilter{Title: `100%_\`},
			wantSQL:  baseSelect + " WHERE b.title LIKE $1 ORDER BY b.isbn",
			wantArgs: []interface{}{`%100\%\_\\%`},
		},
		{
			name:     "injection attempt is a bound value",
			filter:   model.SearchFilter{Author: "'; DROP TABLE book; --"},
			wantSQL:  baseSelect + " WHERE a.name LIKE $1 ORDER BY b.isbn",
			wantArgs: []interface{}{"%'; DROP TABLE book; --%"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args, err := searchQuery(tt.filter).ToSql()
			require.NoError(t, err)
			require.Equal(t, tt.wantSQL, query)
			require.Equal(t, tt.wantArgs, args)
		})
	}
}

func Test_searchQuery_Paging(t *testing.T) {
	query, _, err := searchQuery(model.SearchFilter{Title: "Harry", Page: 2, Size: 10}).ToSql()
	require.NoError(t, err)
	require.Contains(t, query, "LIMIT 10")
	require.Contains(t, query, "OFFSET 10")
}

func Test_countQuery(t *testing.T) {
	f := model.SearchFilter{Author: "Austen", Title: "Pers", Page: 3, Size: 5}
	query, args, err := countQuery(f).ToSql()
	require.NoError(t, err)
	require.Equal(t, "SELECT count(*) FROM book b JOIN author a ON a.id = b.author WHERE a.name LIKE $1 AND b.title LIKE $2", query)
	require.Equal(t, []interface{}{"%Austen%", "%Pers%"}, args)

	// same predicates as the page query, no ordering or paging
	_, pageArgs, err := searchQuery(f).ToSql()
	require.NoError(t, err)
	require.Equal(t, args, pageArgs)
	require.NotContains(t, query, "LIMIT")
}

// unescapeLike reverses containsPattern for a pattern without unescaped wildcards.
func unescapeLike(pattern string) string {
	inner := strings.TrimSuffix(strings.TrimPrefix(pattern, "%"), "%")
	var b strings.Builder
	escaped := false
	for _, r := range inner {
		if !escaped && r == '\\' {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return b.String()
}

func Test_containsPattern_Roundtrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.String().Draw(t, "fragment")
		p := containsPattern(s)
		if unescapeLike(p) != s {
			t.Fatalf("pattern %q does not round trip to %q", p, s)
		}
	})
}

func Test_translateError(t *testing.T) {
	err := translateError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "book_pkey"})
	require.ErrorIs(t, err, errs.ErrAlreadyExists)

	err = translateError(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, ConstraintName: "book_author_fkey"})
	require.ErrorIs(t, err, errs.ErrUnknownAuthor)

	plain := errs.ErrNotFound
	require.Equal(t, plain, translateError(plain))
}
