package service

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/Astemirdum/library-catalog/catalog/internal/errs"
	"github.com/Astemirdum/library-catalog/catalog/internal/model"
)

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]model.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[string]model.User)}
}

func (f *fakeUsers) CreateUser(_ context.Context, email, passwordHash string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[email]; ok {
		return model.User{}, errs.ErrAlreadyExists
	}
	u := model.User{ID: len(f.users) + 1, Email: email, PasswordHash: passwordHash}
	f.users[email] = u
	return u, nil
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[email]
	if !ok {
		return model.User{}, errs.ErrNotFound
	}
	return u, nil
}

type fakeCatalog struct {
	books map[string]model.Book
}

func (f *fakeCatalog) SearchBooks(_ context.Context, _ model.SearchFilter) (model.ListBooks, error) {
	items := make([]model.Book, 0, len(f.books))
	for _, b := range f.books {
		items = append(items, b)
	}
	return model.ListBooks{Paging: model.Paging{TotalElements: len(items)}, Items: items}, nil
}

func (f *fakeCatalog) GetBook(_ context.Context, isbn string) (model.Book, error) {
	b, ok := f.books[isbn]
	if !ok {
		return model.Book{}, errs.ErrNotFound
	}
	return b, nil
}

type fakeRating struct {
	rating model.Rating
	err    error
}

func (f fakeRating) GetRating(_ context.Context, _ string) (model.Rating, error) {
	return f.rating, f.err
}

type countingRating struct {
	calls atomic.Int32
}

func (f *countingRating) GetRating(_ context.Context, _ string) (model.Rating, error) {
	f.calls.Add(1)
	return model.Rating{ReviewCount: model.Available(1), AverageScore: model.Available(5)}, nil
}
