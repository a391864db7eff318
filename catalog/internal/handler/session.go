package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-catalog/catalog/internal/model"
)

const (
	sessionIDKey = "sessionID"
	sessionKey   = "session"

	defaultCookieName = "session_id"
)

// sessionMW makes sure every request carries a session id. The cookie has no
// expiry so it lives as long as the browser session.
func (h *Handler) sessionMW(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		var sid string
		if cookie, err := c.Cookie(h.cookieName()); err == nil {
			if _, err := uuid.Parse(cookie.Value); err == nil {
				sid = cookie.Value
			}
		}
		if sid == "" {
			h.setSessionCookie(c, uuid.NewString())
		} else {
			c.Set(sessionIDKey, sid)
		}
		return next(c)
	}
}

// setSessionCookie binds the request to sid. The cookie has no expiry.
func (h *Handler) setSessionCookie(c echo.Context, sid string) {
	c.SetCookie(&http.Cookie{
		Name:     h.cookieName(),
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	c.Set(sessionIDKey, sid)
	c.Set(sessionKey, nil)
}

// requireLogin redirects anonymous sessions to the login form.
func (h *Handler) requireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, err := h.currentSession(c)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if !sess.IsLogged {
			return c.Redirect(http.StatusFound, "/login_form")
		}
		return next(c)
	}
}

func (h *Handler) cookieName() string {
	if h.cookie.CookieName == "" {
		return defaultCookieName
	}
	return h.cookie.CookieName
}

func sessionID(c echo.Context) string {
	sid, _ := c.Get(sessionIDKey).(string)
	return sid
}

func (h *Handler) currentSession(c echo.Context) (model.Session, error) {
	if sess, ok := c.Get(sessionKey).(model.Session); ok {
		return sess, nil
	}
	sess, err := h.identity.Session(c.Request().Context(), sessionID(c))
	if err != nil {
		h.log.Error("load session", zap.Error(err))
		return model.Session{}, err
	}
	c.Set(sessionKey, sess)
	return sess, nil
}
