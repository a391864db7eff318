package repository_test

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-catalog/catalog/internal/errs"
	"github.com/Astemirdum/library-catalog/catalog/internal/importer"
	"github.com/Astemirdum/library-catalog/catalog/internal/model"
	"github.com/Astemirdum/library-catalog/catalog/internal/repository"
	"github.com/Astemirdum/library-catalog/catalog/migrations"
	"github.com/Astemirdum/library-catalog/pkg/postgres"
)

const csvHeader = "isbn,title,author,release_year\n"

// newTestPool connects to DATABASE_URL and applies migrations. Rows created by a test
// are removed in cleanup; nothing else in the database is touched.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL is not set")
	}
	pool, err := postgres.NewPostgresDB(context.Background(), &postgres.DB{
		URL:            url,
		MaxConns:       4,
		ConnectTimeout: 5 * time.Second,
	}, migrations.MigrationFiles)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func randomISBN() string {
	return fmt.Sprintf("%010d", rand.Int63n(10_000_000_000))
}

func cleanup(t *testing.T, pool *pgxpool.Pool, author string, isbns ...string) {
	t.Cleanup(func() {
		ctx := context.Background()
		_, err := pool.Exec(ctx, "DELETE FROM book WHERE isbn = ANY($1)", isbns)
		require.NoError(t, err)
		_, err = pool.Exec(ctx, "DELETE FROM author WHERE name = $1", author)
		require.NoError(t, err)
	})
}

func TestImport_AuthorIdempotent(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	repo, err := repository.NewRepository(pool, zap.NewNop())
	require.NoError(t, err)

	author := "Jane Austen " + uuid.NewString()[:8]
	persuasion, emma := randomISBN(), randomISBN()
	cleanup(t, pool, author, persuasion, emma)

	im := importer.New(repo, zap.NewNop())
	file := csvHeader + persuasion + ",Persuasion," + author + ",1817\n"

	stats, err := im.Run(ctx, strings.NewReader(file), false)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Imported)

	// the same file again fails on the book, not on the author
	_, err = im.Run(ctx, strings.NewReader(file), false)
	require.ErrorIs(t, err, errs.ErrAlreadyExists)
	require.Contains(t, err.Error(), "line 2")

	_, err = im.Run(ctx, strings.NewReader(csvHeader+emma+",Emma,"+author+",1815\n"), true)
	require.NoError(t, err)

	var authors int
	require.NoError(t, pool.QueryRow(ctx, "SELECT count(*) FROM author WHERE name = $1", author).Scan(&authors))
	require.Equal(t, 1, authors)

	books, err := repo.SearchBooks(ctx, model.SearchFilter{Author: author})
	require.NoError(t, err)
	require.Len(t, books.Items, 2)
	for _, b := range books.Items {
		require.Equal(t, author, b.Author)
	}
}

func TestSearchBooks_Postgres(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	repo, err := repository.NewRepository(pool, zap.NewNop())
	require.NoError(t, err)

	author := "Jane Austen " + uuid.NewString()[:8]
	isbn := randomISBN()
	cleanup(t, pool, author, isbn)
	require.NoError(t, repo.WithinTx(ctx, func(ctx context.Context, tx repository.ImportRepository) error {
		return tx.ImportRecord(ctx, model.ImportRecord{ISBN: isbn, Title: "Persuasion", Author: author, Year: 1817})
	}))

	var total int
	require.NoError(t, pool.QueryRow(ctx, "SELECT count(*) FROM book").Scan(&total))

	all, err := repo.SearchBooks(ctx, model.SearchFilter{})
	require.NoError(t, err)
	require.Len(t, all.Items, total)
	require.Contains(t, all.Items, model.Book{ISBN: isbn, Title: "Persuasion", Author: author, Year: 1817})

	byAuthor, err := repo.SearchBooks(ctx, model.SearchFilter{Author: author[len("Jane "):]})
	require.NoError(t, err)
	require.Equal(t, []model.Book{{ISBN: isbn, Title: "Persuasion", Author: author, Year: 1817}}, byAuthor.Items)

	// case-sensitive substring
	none, err := repo.SearchBooks(ctx, model.SearchFilter{Author: strings.ToLower(author)})
	require.NoError(t, err)
	require.Empty(t, none.Items)

	paged, err := repo.SearchBooks(ctx, model.SearchFilter{Page: 1, Size: 1})
	require.NoError(t, err)
	require.Len(t, paged.Items, 1)
	require.Equal(t, total, paged.TotalElements)

	book, err := repo.GetBook(ctx, isbn)
	require.NoError(t, err)
	require.Equal(t, "Persuasion", book.Title)

	_, err = repo.GetBook(ctx, "xxxxxxxxxx")
	require.ErrorIs(t, err, errs.ErrNotFound)
}
