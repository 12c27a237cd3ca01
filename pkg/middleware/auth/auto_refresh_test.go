package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/primaverasorvetes810-collab/studio-sub000/pkg/tokens"
)

var secret = []byte("test-jwt-secret")

type stubRefresher struct {
	calls int
	role  string
	user  string
	fail  bool
}

func (s *stubRefresher) RefreshTokens(_ context.Context, refreshToken string) (*Tokens, error) {
	s.calls++
	if s.fail || refreshToken != "valid-refresh" {
		return nil, errors.New("invalid refresh token")
	}
	exp := time.Now().Add(15 * time.Minute)
	access, err := tokens.SignAccess(s.user, s.role, exp, secret)
	if err != nil {
		return nil, err
	}
	return &Tokens{AccessToken: access, RefreshToken: "rotated", AccessExp: exp, RefreshExp: exp.Add(time.Hour)}, nil
}

type stubGate struct{}

func (stubGate) Verify(token string, userID uuid.UUID) (time.Time, error) {
	if token != "open-"+userID.String() {
		return time.Time{}, errors.New("locked")
	}
	return time.Now().Add(time.Hour), nil
}

func signAccess(t *testing.T, user, role string, exp time.Time) string {
	t.Helper()
	tok, err := tokens.SignAccess(user, role, exp, secret)
	require.NoError(t, err)
	return tok
}

func run(t *testing.T, h echo.HandlerFunc, cookies ...*http.Cookie) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return rec, h(c)
}

func ok(c echo.Context) error {
	id, err := UserID(c)
	if err != nil {
		return err
	}
	return c.String(http.StatusOK, id.String())
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	require.True(t, errors.As(err, &he), "expected echo.HTTPError, got %v", err)
	return he.Code
}

func TestRequireAuth_ValidAccessToken(t *testing.T) {
	user := uuid.NewString()
	m := NewAutoRefreshMiddleware(secret, &stubRefresher{}, false)

	rec, err := run(t, m.RequireAuth(ok), &http.Cookie{Name: tokens.AccessCookie, Value: signAccess(t, user, tokens.RoleUser, time.Now().Add(time.Minute))})
	require.NoError(t, err)
	assert.Equal(t, user, rec.Body.String())
}

func TestRequireAuth_MissingTokens(t *testing.T) {
	m := NewAutoRefreshMiddleware(secret, &stubRefresher{}, false)
	_, err := run(t, m.RequireAuth(ok))
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
}

func TestRequireAuth_GarbageToken(t *testing.T) {
	m := NewAutoRefreshMiddleware(secret, &stubRefresher{}, false)
	rec, err := run(t, m.RequireAuth(ok), &http.Cookie{Name: tokens.AccessCookie, Value: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
	assert.Contains(t, rec.Header().Values("Set-Cookie")[0], tokens.AccessCookie+"=;")
}

func TestRequireAuth_RefreshesExpiredToken(t *testing.T) {
	user := uuid.NewString()
	ref := &stubRefresher{user: user, role: tokens.RoleUser}
	m := NewAutoRefreshMiddleware(secret, ref, false)

	expired := signAccess(t, user, tokens.RoleUser, time.Now().Add(-time.Minute))
	rec, err := run(t, m.RequireAuth(ok),
		&http.Cookie{Name: tokens.AccessCookie, Value: expired},
		&http.Cookie{Name: tokens.RefreshCookie, Value: "valid-refresh"},
	)
	require.NoError(t, err)
	assert.Equal(t, 1, ref.calls)
	assert.Equal(t, user, rec.Body.String())

	setCookies := rec.Result().Cookies()
	require.Len(t, setCookies, 2)
	assert.Equal(t, tokens.RefreshCookie, setCookies[1].Name)
	assert.Equal(t, "rotated", setCookies[1].Value)
}

func TestRequireAuth_RefreshWithoutAccessCookie(t *testing.T) {
	user := uuid.NewString()
	m := NewAutoRefreshMiddleware(secret, &stubRefresher{user: user, role: tokens.RoleUser}, false)

	rec, err := run(t, m.RequireAuth(ok), &http.Cookie{Name: tokens.RefreshCookie, Value: "valid-refresh"})
	require.NoError(t, err)
	assert.Equal(t, user, rec.Body.String())
}

func TestRequireAuth_RefreshFails(t *testing.T) {
	m := NewAutoRefreshMiddleware(secret, &stubRefresher{fail: true}, false)
	expired := signAccess(t, uuid.NewString(), tokens.RoleUser, time.Now().Add(-time.Minute))

	_, err := run(t, m.RequireAuth(ok),
		&http.Cookie{Name: tokens.AccessCookie, Value: expired},
		&http.Cookie{Name: tokens.RefreshCookie, Value: "valid-refresh"},
	)
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
}

func TestRequireAdmin(t *testing.T) {
	user := uuid.NewString()
	m := NewAutoRefreshMiddleware(secret, &stubRefresher{}, false)

	_, err := run(t, m.RequireAdmin(ok), &http.Cookie{Name: tokens.AccessCookie, Value: signAccess(t, user, tokens.RoleUser, time.Now().Add(time.Minute))})
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	rec, err := run(t, m.RequireAdmin(ok), &http.Cookie{Name: tokens.AccessCookie, Value: signAccess(t, user, tokens.RoleAdmin, time.Now().Add(time.Minute))})
	require.NoError(t, err)
	assert.Equal(t, user, rec.Body.String())
}

func TestRequireGate(t *testing.T) {
	user := uuid.New()
	m := NewAutoRefreshMiddleware(secret, &stubRefresher{}, false)
	h := m.RequireAdmin(m.RequireGate(stubGate{})(ok))
	access := &http.Cookie{Name: tokens.AccessCookie, Value: signAccess(t, user.String(), tokens.RoleAdmin, time.Now().Add(time.Minute))}

	_, err := run(t, h, access)
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	_, err = run(t, h, access, &http.Cookie{Name: tokens.GateCookie, Value: "open-" + uuid.NewString()})
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	rec, err := run(t, h, access, &http.Cookie{Name: tokens.GateCookie, Value: "open-" + user.String()})
	require.NoError(t, err)
	assert.Equal(t, user.String(), rec.Body.String())
}
