package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Failure classes for one publish job. Every error that reaches the caller is
// tagged with exactly one of these markers so the API layer can map it to a
// status code without string matching.
var (
	ErrCredentialNotFound  = errors.New("credential not found")
	ErrCredentialEmpty     = errors.New("credential empty")
	ErrCredentialMalformed = errors.New("credential malformed")
	ErrSoundNotFound       = errors.New("sound not found")
	ErrMixFailed           = errors.New("mix failed")
	ErrBusy                = errors.New("publisher busy")
	ErrDriver              = errors.New("publish driver error")
	ErrValidation          = errors.New("validation error")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrDriver
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify returns the short class name for a tagged error, or "internal" for
// anything unclassified.
func Classify(err error) string {
	switch {
	case errors.Is(err, ErrCredentialNotFound):
		return "credential_not_found"
	case errors.Is(err, ErrCredentialEmpty):
		return "credential_empty"
	case errors.Is(err, ErrCredentialMalformed):
		return "credential_malformed"
	case errors.Is(err, ErrSoundNotFound):
		return "sound_not_found"
	case errors.Is(err, ErrMixFailed):
		return "mix_failed"
	case errors.Is(err, ErrBusy):
		return "busy"
	case errors.Is(err, ErrDriver):
		return "driver_error"
	case errors.Is(err, ErrValidation):
		return "validation_error"
	default:
		return "internal"
	}
}

// HTTPStatus maps a tagged error to the status code the API should return.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrCredentialNotFound),
		errors.Is(err, ErrCredentialEmpty),
		errors.Is(err, ErrCredentialMalformed),
		errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrSoundNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBusy):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
