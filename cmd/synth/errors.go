package main

import (
	"errors"
	"fmt"

	"github.com/phrazzld/synth-study/internal/appctx"
	"github.com/phrazzld/synth-study/internal/backend"
	"github.com/phrazzld/synth-study/internal/domain"
	"github.com/phrazzld/synth-study/internal/study"
)

// userError turns an error into the message shown on the terminal.
func userError(err error) error {
	var (
		validationErr *domain.ValidationError
		apiErr        *backend.APIError
		gradingErr    *study.GradingError
	)

	switch {
	case errors.Is(err, appctx.ErrSessionExpired):
		return errors.New("your session has expired, run `synth login` again")
	case backend.IsUnauthorized(err), errors.Is(err, appctx.ErrNotLoggedIn):
		return errors.New("not authorized, run `synth login` and try again")
	case errors.Is(err, backend.ErrSubscriptionLimit):
		msg := "your plan does not allow this"
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			msg = apiErr.Message
		}
		return fmt.Errorf("%s, see `synth subscription pricing`", msg)
	case errors.As(err, &gradingErr):
		if gradingErr.Timeout() {
			return errors.New("grading took too long, please try again")
		}
		return errors.New("failed to grade answer, please try again")
	case errors.As(err, &validationErr):
		return fmt.Errorf("%s %s", validationErr.Field, validationErr.Message)
	case errors.Is(err, backend.ErrNotFound):
		return errors.New("not found")
	case errors.Is(err, backend.ErrUnavailable):
		return errors.New("the study service is temporarily unavailable")
	case errors.As(err, &apiErr):
		if apiErr.Message != "" && apiErr.Status < 500 {
			return errors.New(apiErr.Message)
		}
		return fmt.Errorf("the study service returned an error (%d)", apiErr.Status)
	default:
		return err
	}
}
