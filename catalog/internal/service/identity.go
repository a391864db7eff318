package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Astemirdum/library-catalog/catalog/internal/errs"
	"github.com/Astemirdum/library-catalog/catalog/internal/model"
	catalogRepo "github.com/Astemirdum/library-catalog/catalog/internal/repository"
	"github.com/Astemirdum/library-catalog/catalog/internal/session"
)

const maxPasswordBytes = 72

// Identity owns user credentials and the login state of browser sessions.
type Identity struct {
	log       *zap.Logger
	users     catalogRepo.UserRepository
	sessions  session.Store
	cost      int
	dummyHash []byte
}

type IdentityOption func(*Identity)

func WithBcryptCost(cost int) IdentityOption {
	return func(i *Identity) {
		i.cost = cost
	}
}

func NewIdentity(users catalogRepo.UserRepository, sessions session.Store, log *zap.Logger, opts ...IdentityOption) *Identity {
	i := &Identity{
		log:      log.Named("identity"),
		users:    users,
		sessions: sessions,
		cost:     bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(i)
	}
	// compared against when the email is unknown so both failures cost the same
	hash, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), i.cost)
	if err != nil {
		i.log.Error("dummy hash", zap.Error(err))
	}
	i.dummyHash = hash
	return i
}

func (i *Identity) Register(ctx context.Context, req model.RegisterRequest) error {
	email := strings.TrimSpace(req.Email)
	if len(req.Password) > maxPasswordBytes {
		return errs.ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), i.cost)
	if err != nil {
		return errors.Wrap(err, "bcrypt")
	}
	if _, err := i.users.CreateUser(ctx, email, string(hash)); err != nil {
		return err
	}
	i.log.Info("user registered", zap.String("email", email))
	return nil
}

// Login authenticates and moves the session to a fresh id, returned to the caller.
// The previous id is dropped. On any credential mismatch the session is left untouched.
func (i *Identity) Login(ctx context.Context, sessionID string, req model.LoginRequest) (string, error) {
	email := strings.TrimSpace(req.Email)
	user, err := i.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(i.dummyHash, []byte(req.Password))
			return "", errs.ErrInvalidCredentials
		}
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return "", errs.ErrInvalidCredentials
	}

	newID := uuid.NewString()
	if err := i.sessions.Save(ctx, newID, model.Session{Email: user.Email, IsLogged: true}); err != nil {
		return "", errors.Wrap(err, "save session")
	}
	if sessionID != "" {
		if err := i.sessions.Delete(ctx, sessionID); err != nil {
			i.log.Warn("drop previous session", zap.Error(err))
		}
	}
	return newID, nil
}

func (i *Identity) Logout(ctx context.Context, sessionID string) error {
	return i.sessions.Delete(ctx, sessionID)
}

func (i *Identity) Session(ctx context.Context, sessionID string) (model.Session, error) {
	if sessionID == "" {
		return model.Session{}, nil
	}
	return i.sessions.Load(ctx, sessionID)
}
