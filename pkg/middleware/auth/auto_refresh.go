package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/primaverasorvetes810-collab/studio-sub000/pkg/tokens"
)

// Tokens is a freshly issued access/refresh pair.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

// Refresher exchanges a refresh token for a new pair.
type Refresher interface {
	RefreshTokens(ctx context.Context, refreshToken string) (*Tokens, error)
}

// GateVerifier checks the back-office gate cookie of a user.
type GateVerifier interface {
	Verify(token string, userID uuid.UUID) (time.Time, error)
}

type AutoRefreshMiddleware struct {
	JWTSecret []byte
	Refresher Refresher
	Secure    bool
}

func NewAutoRefreshMiddleware(secret []byte, refresher Refresher, secure bool) *AutoRefreshMiddleware {
	return &AutoRefreshMiddleware{
		JWTSecret: secret,
		Refresher: refresher,
		Secure:    secure,
	}
}

type ValidatorFunc func(claims *tokens.AccessClaims) error

func (m *AutoRefreshMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, nil)
}

func (m *AutoRefreshMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, func(claims *tokens.AccessClaims) error {
		if claims.Role != tokens.RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return nil
	})
}

// RequireGate must run after RequireAdmin: the gate cookie has to belong to
// the authenticated user.
func (m *AutoRefreshMiddleware) RequireGate(gate GateVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, err := UserID(c)
			if err != nil {
				return err
			}
			cookie, err := c.Cookie(tokens.GateCookie)
			if err != nil || cookie.Value == "" {
				return echo.NewHTTPError(http.StatusForbidden, "back-office locked")
			}
			if _, err := gate.Verify(cookie.Value, userID); err != nil {
				c.SetCookie(tokens.DeleteCookie(tokens.GateCookie, "/", m.Secure))
				return echo.NewHTTPError(http.StatusForbidden, "back-office locked")
			}
			return next(c)
		}
	}
}

func (m *AutoRefreshMiddleware) requireAuthWithValidator(next echo.HandlerFunc, validator ValidatorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		accessCookie, err := c.Cookie(tokens.AccessCookie)
		accessValue := ""
		if err == nil {
			accessValue = accessCookie.Value
		}

		var claims *tokens.AccessClaims
		if accessValue != "" {
			claims, err = tokens.AccessClaimsFromToken(accessValue, m.JWTSecret)
			if err == nil && claims != nil {
				if validator != nil {
					if validationErr := validator(claims); validationErr != nil {
						return validationErr
					}
				}
				setUserContext(c, claims)
				return next(c)
			}
			if !errors.Is(err, jwt.ErrTokenExpired) {
				m.clearAuthCookies(c)
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
			}
		}

		refreshCookie, rErr := c.Cookie(tokens.RefreshCookie)
		if rErr != nil || refreshCookie.Value == "" {
			if accessValue == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
			}
			m.clearAuthCookies(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "refresh token missing")
		}

		fresh, refErr := m.Refresher.RefreshTokens(c.Request().Context(), refreshCookie.Value)
		if refErr != nil {
			m.clearAuthCookies(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "session expired")
		}

		c.SetCookie(tokens.CreateCookie(tokens.AccessCookie, fresh.AccessToken, "/", fresh.AccessExp, m.Secure))
		c.SetCookie(tokens.CreateCookie(tokens.RefreshCookie, fresh.RefreshToken, "/", fresh.RefreshExp, m.Secure))

		newClaims, pErr := tokens.AccessClaimsFromToken(fresh.AccessToken, m.JWTSecret)
		if pErr != nil || newClaims == nil {
			m.clearAuthCookies(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "new access token invalid")
		}

		if validator != nil {
			if validationErr := validator(newClaims); validationErr != nil {
				return validationErr
			}
		}

		setUserContext(c, newClaims)
		return next(c)
	}
}

func (m *AutoRefreshMiddleware) clearAuthCookies(c echo.Context) {
	c.SetCookie(tokens.DeleteCookie(tokens.AccessCookie, "/", m.Secure))
	c.SetCookie(tokens.DeleteCookie(tokens.RefreshCookie, "/", m.Secure))
}

func setUserContext(c echo.Context, claims *tokens.AccessClaims) {
	c.Set("user_id", claims.Subject)
	c.Set("role", claims.Role)
}

// UserID returns the authenticated user set by RequireAuth or RequireAdmin.
func UserID(c echo.Context) (uuid.UUID, error) {
	raw, _ := c.Get("user_id").(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	return id, nil
}
