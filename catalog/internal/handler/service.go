package handler

import (
	"context"

	"github.com/Astemirdum/library-catalog/catalog/internal/model"
	"github.com/Astemirdum/library-catalog/catalog/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

var (
	_ CatalogService  = (*service.Service)(nil)
	_ IdentityService = (*service.Identity)(nil)
)

type CatalogService interface {
	SearchBooks(ctx context.Context, filter model.SearchFilter) (model.ListBooks, error)
	BookView(ctx context.Context, isbn string) (model.BookView, error)
}

type IdentityService interface {
	Register(ctx context.Context, req model.RegisterRequest) error
	Login(ctx context.Context, sessionID string, req model.LoginRequest) (string, error)
	Logout(ctx context.Context, sessionID string) error
	Session(ctx context.Context, sessionID string) (model.Session, error)
}

type Enqueuer interface {
	Enqueue(topic string, v any) error
}
