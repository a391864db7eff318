package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Astemirdum/library-catalog/catalog/config"
	"github.com/Astemirdum/library-catalog/catalog/internal/errs"
	"github.com/Astemirdum/library-catalog/catalog/internal/handler"
	"github.com/Astemirdum/library-catalog/catalog/internal/model"
	"github.com/Astemirdum/library-catalog/catalog/internal/service"
	"github.com/Astemirdum/library-catalog/catalog/internal/session"

	service_mocks "github.com/Astemirdum/library-catalog/catalog/internal/handler/mocks"
)

type memUsers struct {
	mu    sync.Mutex
	users map[string]model.User
}

func (u *memUsers) CreateUser(_ context.Context, email, passwordHash string) (model.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.users[email]; ok {
		return model.User{}, errs.ErrAlreadyExists
	}
	user := model.User{ID: len(u.users) + 1, Email: email, PasswordHash: passwordHash}
	u.users[email] = user
	return user, nil
}

func (u *memUsers) GetUserByEmail(_ context.Context, email string) (model.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	user, ok := u.users[email]
	if !ok {
		return model.User{}, errs.ErrNotFound
	}
	return user, nil
}

func TestHandler_LoginRotatesSession(t *testing.T) {
	const plantedSID = "11111111-1111-1111-1111-111111111111"
	ctx := context.Background()

	store := session.NewMemoryStore(time.Hour)
	identity := service.NewIdentity(&memUsers{users: map[string]model.User{}}, store, zap.NewNop(),
		service.WithBcryptCost(bcrypt.MinCost))
	catalog := service_mocks.NewMockCatalogService(gomock.NewController(t))
	h := handler.New(catalog, identity, nil, config.Session{CookieName: "session_id"}, zap.NewNop())
	e := h.NewRouter()

	post := func(target string, form url.Values) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
		r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
		r.AddCookie(&http.Cookie{Name: "session_id", Value: plantedSID})
		w := httptest.NewRecorder()
		e.ServeHTTP(w, r)
		return w
	}
	creds := url.Values{"email": {"a@b.com"}, "password": {"secret"}}

	require.Equal(t, http.StatusSeeOther, post("/register", creds).Code)

	wrong := post("/login", url.Values{"email": {"a@b.com"}, "password": {"wrong"}})
	require.Equal(t, http.StatusUnauthorized, wrong.Code)
	require.Empty(t, wrong.Result().Cookies())

	w := post("/login", creds)
	require.Equal(t, http.StatusFound, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	newSID := cookies[0].Value
	require.Equal(t, "session_id", cookies[0].Name)
	require.NotEqual(t, plantedSID, newSID)

	planted, err := store.Load(ctx, plantedSID)
	require.NoError(t, err)
	require.Equal(t, model.Session{}, planted)

	rotated, err := store.Load(ctx, newSID)
	require.NoError(t, err)
	require.Equal(t, model.Session{Email: "a@b.com", IsLogged: true}, rotated)

	// the planted id still cannot reach a login-only page
	r := httptest.NewRequest(http.MethodGet, "/search?author=Austen", http.NoBody)
	r.AddCookie(&http.Cookie{Name: "session_id", Value: plantedSID})
	sw := httptest.NewRecorder()
	e.ServeHTTP(sw, r)
	require.Equal(t, http.StatusFound, sw.Code)
	require.Equal(t, "/login_form", sw.Header().Get(echo.HeaderLocation))
}
