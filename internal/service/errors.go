package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/primaverasorvetes810-collab/studio-sub000/pkg/events"
	"github.com/primaverasorvetes810-collab/studio-sub000/pkg/logging"
	"github.com/primaverasorvetes810-collab/studio-sub000/pkg/objectstore"
)

var (
	ErrValidation          = errors.New("validation")           // 400
	ErrUnauthorized        = errors.New("unauthorized")         // 401
	ErrInvalidCredentials  = errors.New("invalid credentials")  // 401
	ErrInvalidRefreshToken = errors.New("invalid refresh token") // 401
	ErrForbidden           = errors.New("forbidden")            // 403
	ErrNotFound            = errors.New("not found")            // 404
	ErrConflict            = errors.New("conflict")             // 409
)

func validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// translate maps storage errors onto the service sentinels.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", what, ErrConflict)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%s: %w", what, ErrValidation)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}

// publish sends a domain event. Delivery failures are logged, never returned.
func publish(ctx context.Context, p events.Publisher, topic, key, typ string, data map[string]any) {
	if p == nil {
		return
	}
	if err := p.PublishEvent(ctx, topic, key, events.New(typ, data)); err != nil {
		logging.FromContext(ctx).Error("event_publish_failed", "topic", topic, "type", typ, "error", err)
	}
}

// removeObject drops an uploaded file. Failures are logged; the row change already happened.
func removeObject(ctx context.Context, store objectstore.Store, key string) {
	if store == nil || key == "" {
		return
	}
	if err := store.Remove(ctx, key); err != nil {
		logging.FromContext(ctx).Error("object_remove_failed", "key", key, "error", err)
	}
}

// ConflictError reports a rejected compare-and-set write together with the
// state that won, so callers can roll back their optimistic view.
type ConflictError struct {
	Reason  string
	Current any
}

func (e *ConflictError) Error() string { return "conflict: " + e.Reason }

func (e *ConflictError) Unwrap() error { return ErrConflict }
