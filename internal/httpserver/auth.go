package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/primaverasorvetes810-collab/studio-sub000/internal/service"
	"github.com/primaverasorvetes810-collab/studio-sub000/internal/transport"
	"github.com/primaverasorvetes810-collab/studio-sub000/pkg/logging"
	authmw "github.com/primaverasorvetes810-collab/studio-sub000/pkg/middleware/auth"
	"github.com/primaverasorvetes810-collab/studio-sub000/pkg/tokens"
)

type AuthHTTP struct {
	Svc    *service.AuthService
	Secure bool
}

// Refresher adapts the auth service to the auto-refresh middleware.
func (h *AuthHTTP) Refresher() authmw.Refresher {
	return sessionRefresher{svc: h.Svc}
}

type sessionRefresher struct {
	svc *service.AuthService
}

func (r sessionRefresher) RefreshTokens(ctx context.Context, refreshToken string) (*authmw.Tokens, error) {
	res, err := r.svc.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return &authmw.Tokens{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		AccessExp:    res.AccessExp,
		RefreshExp:   res.RefreshExp,
	}, nil
}

func (h *AuthHTTP) setSession(c echo.Context, res *service.LoginResult) {
	c.SetCookie(tokens.CreateCookie(tokens.AccessCookie, res.AccessToken, "/", res.AccessExp, h.Secure))
	c.SetCookie(tokens.CreateCookie(tokens.RefreshCookie, res.RefreshToken, "/", res.RefreshExp, h.Secure))
}

func (h *AuthHTTP) clearSession(c echo.Context) {
	c.SetCookie(tokens.DeleteCookie(tokens.AccessCookie, "/", h.Secure))
	c.SetCookie(tokens.DeleteCookie(tokens.RefreshCookie, "/", h.Secure))
	c.SetCookie(tokens.DeleteCookie(tokens.GateCookie, "/", h.Secure))
}

func authResponse(res *service.LoginResult) transport.AuthResponse {
	return transport.AuthResponse{User: res.User, IsAdmin: res.IsAdmin, AccessExpiresAt: res.AccessExp}
}

// Register creates the account and signs the new user in.
func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "register_error", "invalid body", err)
	}

	if _, err := h.Svc.Register(ctx, req); err != nil {
		return fail(l, "register_error", err)
	}
	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return fail(l, "register_error", err)
	}
	h.setSession(c, res)

	l.Info("register_success", "user_id", res.User.ID)
	return c.JSON(http.StatusCreated, authResponse(res))
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "login_error", "invalid body", err)
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return fail(l, "login_failed", err)
	}
	h.setSession(c, res)

	l.Info("login_successful", "user_id", res.User.ID, "is_admin", res.IsAdmin)
	return c.JSON(http.StatusOK, authResponse(res))
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	cookie, err := c.Cookie(tokens.RefreshCookie)
	if err != nil || cookie.Value == "" {
		l.Warn("refresh_failed", "status", http.StatusUnauthorized, "reason", "no refresh cookie")
		return echo.NewHTTPError(http.StatusUnauthorized, "refresh token missing")
	}

	res, err := h.Svc.Refresh(ctx, cookie.Value)
	if err != nil {
		h.clearSession(c)
		return fail(l, "refresh_failed", err)
	}
	h.setSession(c, res)

	l.Info("refresh_success", "user_id", res.User.ID)
	return c.JSON(http.StatusOK, authResponse(res))
}

func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	var token string
	if cookie, err := c.Cookie(tokens.RefreshCookie); err == nil {
		token = cookie.Value
	}
	err := h.Svc.LogOut(ctx, token)
	h.clearSession(c)
	if err != nil {
		l.Error("logout_failed", "status", http.StatusInternalServerError, "reason", "cannot revoke refresh token", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot log out")
	}

	l.Info("successful_logout")
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.me")

	userID, err := authmw.UserID(c)
	if err != nil {
		return err
	}
	user, err := h.Svc.Me(ctx, userID)
	if err != nil {
		return fail(l, "me_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user":     user,
		"is_admin": c.Get("role") == tokens.RoleAdmin,
	})
}

func (h *AuthHTTP) UpdateMe(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.update_me")

	userID, err := authmw.UserID(c)
	if err != nil {
		return err
	}
	var req transport.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_profile_error", "invalid body", err)
	}

	user, err := h.Svc.UpdateProfile(ctx, userID, req)
	if err != nil {
		return fail(l, "update_profile_error", err)
	}

	l.Info("update_profile_success", "user_id", userID)
	return c.JSON(http.StatusOK, user)
}
