package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/primaverasorvetes810-collab/studio-sub000/internal/service"
)

// fail logs err under event and converts it to the matching HTTP error.
// A compare-and-set conflict carries the current state in the body.
func fail(l *slog.Logger, event string, err error) error {
	var conflict *service.ConflictError
	switch {
	case errors.As(err, &conflict):
		l.Warn(event, "status", http.StatusConflict, "reason", conflict.Reason)
		return echo.NewHTTPError(http.StatusConflict, echo.Map{
			"message": conflict.Error(),
			"current": conflict.Current,
		})
	case errors.Is(err, service.ErrValidation):
		l.Warn(event, "status", http.StatusBadRequest, "reason", "invalid input", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, strings.TrimPrefix(err.Error(), service.ErrValidation.Error()+": "))
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidRefreshToken),
		errors.Is(err, service.ErrUnauthorized):
		l.Warn(event, "status", http.StatusUnauthorized, "reason", err.Error())
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrForbidden):
		l.Warn(event, "status", http.StatusForbidden, "reason", err.Error())
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	case errors.Is(err, service.ErrNotFound):
		l.Warn(event, "status", http.StatusNotFound, "reason", err.Error())
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrConflict):
		l.Warn(event, "status", http.StatusConflict, "reason", err.Error())
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		l.Error(event, "status", http.StatusInternalServerError, "reason", "unexpected error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func badRequest(l *slog.Logger, event, reason string, err error) error {
	l.Warn(event, "status", http.StatusBadRequest, "reason", reason, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, reason)
}

func uuidParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, errors.New(name + " is not a uuid")
	}
	return id, nil
}
