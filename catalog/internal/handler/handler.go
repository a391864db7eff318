package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-catalog/catalog/config"
	_ "github.com/Astemirdum/library-catalog/catalog/docs"
	"github.com/Astemirdum/library-catalog/catalog/internal/errs"
	"github.com/Astemirdum/library-catalog/catalog/internal/model"
	md "github.com/Astemirdum/library-catalog/pkg/middleware"
	"github.com/Astemirdum/library-catalog/pkg/kafka"
	"github.com/Astemirdum/library-catalog/pkg/validate"
)

type Handler struct {
	catalog  CatalogService
	identity IdentityService
	enqueuer Enqueuer
	cookie   config.Session
	renderer *Renderer
	log      *zap.Logger
}

func New(catalogSvc CatalogService, identitySvc IdentityService, enqueuer Enqueuer, cookie config.Session, log *zap.Logger) *Handler {
	if enqueuer == nil {
		enqueuer = NewEnqueuer(nil)
	}
	return &Handler{
		catalog:  catalogSvc,
		identity: identitySvc,
		enqueuer: enqueuer,
		cookie:   cookie,
		renderer: NewRenderer(),
		log:      log.Named("handler"),
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Renderer = h.renderer
	e.Validator = validate.NewCustomValidator()

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)
	base.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig(h.log)),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
	)
	api.GET("/:isbn", h.GetBookAPI)

	web := e.Group("",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig(h.log)),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
		h.sessionMW,
	)
	web.GET("/", h.Index)
	web.GET("/reg_form", h.RegisterForm)
	web.GET("/login_form", h.LoginForm)
	web.POST("/register", h.Register)
	web.POST("/login", h.Login)
	web.GET("/logout", h.Logout)

	web.GET("/search", h.Search, h.requireLogin)
	web.GET("/book_view", h.BookView, h.requireLogin)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (h *Handler) Index(c echo.Context) error {
	sess, err := h.currentSession(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.Render(http.StatusOK, pageIndex, pageData{Email: sess.Email})
}

func (h *Handler) RegisterForm(c echo.Context) error {
	return c.Render(http.StatusOK, pageRegister, pageData{})
}

func (h *Handler) LoginForm(c echo.Context) error {
	return c.Render(http.StatusOK, pageLogin, pageData{})
}

func (h *Handler) Register(c echo.Context) error {
	var req model.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.Render(http.StatusBadRequest, pageRegister, pageData{Error: "invalid form"})
	}
	if err := c.Validate(&req); err != nil {
		return c.Render(http.StatusBadRequest, pageRegister, pageData{Error: "a valid email and a password of at most 72 characters are required"})
	}

	if err := h.identity.Register(c.Request().Context(), req); err != nil {
		switch {
		case errors.Is(err, errs.ErrAlreadyExists):
			return c.Render(http.StatusConflict, pageRegister, pageData{Error: "email is already registered"})
		case errors.Is(err, errs.ErrPasswordTooLong):
			return c.Render(http.StatusBadRequest, pageRegister, pageData{Error: err.Error()})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.publish(kafka.EventUserRegistered, req.Email, "")
	return c.Redirect(http.StatusSeeOther, "/login_form")
}

func (h *Handler) Login(c echo.Context) error {
	var req model.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.Render(http.StatusBadRequest, pageLogin, pageData{Error: "invalid form"})
	}
	if err := c.Validate(&req); err != nil {
		return c.Render(http.StatusBadRequest, pageLogin, pageData{Error: "email and password are required"})
	}

	sid, err := h.identity.Login(c.Request().Context(), sessionID(c), req)
	if err != nil {
		if errors.Is(err, errs.ErrInvalidCredentials) {
			return c.Render(http.StatusUnauthorized, pageLogin, pageData{Error: err.Error()})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.setSessionCookie(c, sid)
	h.publish(kafka.EventUserLoggedIn, req.Email, "")
	return c.Redirect(http.StatusFound, "/")
}

func (h *Handler) Logout(c echo.Context) error {
	if err := h.identity.Logout(c.Request().Context(), sessionID(c)); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.Redirect(http.StatusFound, "/")
}

func (h *Handler) Search(c echo.Context) error {
	var filter model.SearchFilter
	if err := c.Bind(&filter); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid search parameters")
	}
	if err := c.Validate(&filter); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "page must be within 0..100000 and size within 0..100")
	}

	books, err := h.catalog.SearchBooks(c.Request().Context(), filter)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	sess, _ := h.currentSession(c)
	return c.Render(http.StatusOK, pageSearch, pageData{Email: sess.Email, Filter: filter, Books: books.Items})
}

func (h *Handler) BookView(c echo.Context) error {
	isbn := c.QueryParam("isbn")
	if isbn == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "isbn is required")
	}
	view, err := h.catalog.BookView(c.Request().Context(), isbn)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	sess, _ := h.currentSession(c)
	h.publish(kafka.EventBookViewed, sess.Email, isbn)
	return c.Render(http.StatusOK, pageBook, pageData{Email: sess.Email, View: view})
}

// GetBookAPI godoc
// @Summary      Book lookup
// @Description  Catalog data for the isbn with Goodreads rating aggregates. Missing ratings are "N/A".
// @Tags         api
// @Produce      json
// @Param        isbn  path      string  true  "ISBN"
// @Success      200   {object}  model.BookResponse
// @Failure      404   {object}  echo.HTTPError
// @Router       /api/{isbn} [get]
func (h *Handler) GetBookAPI(c echo.Context) error {
	isbn := c.Param("isbn")
	view, err := h.catalog.BookView(c.Request().Context(), isbn)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, model.NewBookResponse(view))
}
