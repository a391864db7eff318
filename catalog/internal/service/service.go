package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/Astemirdum/library-catalog/catalog/internal/model"
	catalogRepo "github.com/Astemirdum/library-catalog/catalog/internal/repository"
)

type RatingClient interface {
	GetRating(ctx context.Context, isbn string) (model.Rating, error)
}

type Service struct {
	log    *zap.Logger
	repo   catalogRepo.CatalogRepository
	rating RatingClient
}

func NewService(repo catalogRepo.CatalogRepository, rating RatingClient, log *zap.Logger) *Service {
	return &Service{
		log:    log.Named("catalog"),
		repo:   repo,
		rating: rating,
	}
}

func (s *Service) SearchBooks(ctx context.Context, filter model.SearchFilter) (model.ListBooks, error) {
	return s.repo.SearchBooks(ctx, filter)
}

func (s *Service) GetBook(ctx context.Context, isbn string) (model.Book, error) {
	return s.repo.GetBook(ctx, isbn)
}

// BookView loads the book and then its rating. Unknown isbns never reach the rating
// client. A rating failure degrades to an unavailable rating.
func (s *Service) BookView(ctx context.Context, isbn string) (model.BookView, error) {
	book, err := s.repo.GetBook(ctx, isbn)
	if err != nil {
		return model.BookView{}, err
	}
	rat, err := s.rating.GetRating(ctx, isbn)
	if err != nil {
		s.log.Warn("rating unavailable", zap.String("isbn", isbn), zap.Error(err))
		rat = model.UnavailableRating()
	}
	return model.BookView{Book: book, Rating: rat}, nil
}
