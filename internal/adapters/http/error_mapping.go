package httpadapter

import (
	"errors"
	"net/http"

	"github.com/kachastepien/Backoffice/internal/core/domain"
	"github.com/kachastepien/Backoffice/internal/core/usecase"
	"github.com/kachastepien/Backoffice/internal/infrastructure/resilience"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput),
		domain.IsKind(err, domain.ErrEmptyInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrCaseNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrNotReady),
		errors.Is(err, usecase.ErrRunSuperseded):
		return http.StatusConflict
	case resilience.IsCircuitOpen(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
