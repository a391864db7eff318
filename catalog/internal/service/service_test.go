package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-catalog/catalog/internal/errs"
	"github.com/Astemirdum/library-catalog/catalog/internal/model"
)

var persuasion = model.Book{ISBN: "0143127559", Title: "Persuasion", Author: "Jane Austen", Year: 1817}

func TestService_BookView(t *testing.T) {
	repo := &fakeCatalog{books: map[string]model.Book{persuasion.ISBN: persuasion}}
	rated := model.Rating{ReviewCount: model.Available(28), AverageScore: model.Available(4.06)}

	tests := []struct {
		name    string
		isbn    string
		rating  fakeRating
		want    model.BookView
		wantErr error
	}{
		{
			name:   "ok",
			isbn:   persuasion.ISBN,
			rating: fakeRating{rating: rated},
			want:   model.BookView{Book: persuasion, Rating: rated},
		},
		{
			name:   "rating failure degrades",
			isbn:   persuasion.ISBN,
			rating: fakeRating{err: errs.ErrRatingUnavailable},
			want:   model.BookView{Book: persuasion, Rating: model.UnavailableRating()},
		},
		{
			name:    "unknown isbn",
			isbn:    "0143127550",
			rating:  fakeRating{rating: rated},
			wantErr: errs.ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(repo, tt.rating, zap.NewNop())
			got, err := svc.BookView(context.Background(), tt.isbn)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestService_BookView_UnknownIsbnSkipsRating(t *testing.T) {
	repo := &fakeCatalog{books: map[string]model.Book{persuasion.ISBN: persuasion}}
	rating := &countingRating{}
	svc := NewService(repo, rating, zap.NewNop())

	for i := 0; i < 20; i++ {
		_, err := svc.BookView(context.Background(), "0000000000")
		require.ErrorIs(t, err, errs.ErrNotFound)
	}
	require.EqualValues(t, 0, rating.calls.Load())

	_, err := svc.BookView(context.Background(), persuasion.ISBN)
	require.NoError(t, err)
	require.EqualValues(t, 1, rating.calls.Load())
}
