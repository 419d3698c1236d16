// Package services holds the request-independent core of the platform: input
// validation, ownership checks and orchestration over the repositories and the
// media delegate. Every operation returns a value or an *apperr.Error.
package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/storage"
)

// AssetReaper schedules asynchronous deletion of assets no record references anymore.
type AssetReaper interface {
	Enqueue(ctx context.Context, url string) error
}

// TokenIssuer issues, rotates and revokes session tokens.
type TokenIssuer interface {
	Issue(ctx context.Context, identity auth.Identity) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, auth.Identity, error)
	Revoke(ctx context.Context, userID string) error
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

// validateInput runs struct validation and reports every failing field.
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperr.Unknown(err)
	}

	details := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, describeFieldError(fe))
	}
	return apperr.Validation("invalid input", details...)
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// requireID rejects malformed identifiers before they reach a store.
func requireID(field, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperr.Validation(fmt.Sprintf("%s is not valid", field))
	}
	return nil
}

// storeError maps repository sentinels onto error kinds. Errors that already
// carry a kind pass through.
func storeError(err error, notFound string) error {
	var appErr *apperr.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, repositories.ErrNotFound):
		return apperr.NotFound(notFound)
	default:
		return apperr.Unknown(err)
	}
}

// uploadAsset hands a spooled file to the media delegate.
func uploadAsset(ctx context.Context, media storage.Delegate, asset *storage.Asset, what string) (storage.Uploaded, error) {
	if asset == nil {
		return storage.Uploaded{}, apperr.Validation(what + " file is required")
	}
	if media == nil {
		return storage.Uploaded{}, apperr.Upload(what+" upload failed", storage.ErrDelegateUnavailable)
	}

	uploaded, err := media.Upload(ctx, *asset)
	if err != nil {
		return storage.Uploaded{}, apperr.Upload(what+" upload failed", err)
	}
	if uploaded.URL == "" {
		return storage.Uploaded{}, apperr.Upload(what+" upload failed", storage.ErrUploadFailed)
	}
	return uploaded, nil
}

// reap schedules orphaned assets for deletion. Scheduling failures are logged;
// the asset stays orphaned on the delegate.
func reap(ctx context.Context, reaper AssetReaper, urls ...string) {
	if reaper == nil {
		return
	}
	logger := logging.FromContext(ctx)
	for _, url := range urls {
		if url == "" {
			continue
		}
		if err := reaper.Enqueue(ctx, url); err != nil {
			logger.Warn("failed to schedule asset cleanup", "url", url, "error", err)
		}
	}
}

func utcNow() time.Time {
	return time.Now().UTC()
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	return &trimmed
}
