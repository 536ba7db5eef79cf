package httpapi

import (
	"errors"
	"net/http"

	"grantcore/pkg/domain"
)

// classifyError maps domain errors onto HTTP statuses and the shared error
// envelope fields. Unclassified errors surface as 500 without leaking
// internals.
func classifyError(err error) (status int, code, message string, details any) {
	var validation domain.ValidationError
	if errors.As(err, &validation) {
		return http.StatusUnprocessableEntity, "validation_failed", "input validation failed", validation.ByField()
	}
	var notFound domain.NotFoundError
	if errors.As(err, &notFound) {
		return http.StatusNotFound, "not_found", notFound.Error(), nil
	}
	var forbidden domain.ForbiddenError
	if errors.As(err, &forbidden) {
		return http.StatusForbidden, "forbidden", forbidden.Error(), nil
	}
	var invalidState domain.InvalidStateError
	if errors.As(err, &invalidState) {
		return http.StatusConflict, "invalid_state", invalidState.Error(), nil
	}
	var conflict domain.ConflictError
	if errors.As(err, &conflict) {
		return http.StatusConflict, "conflict", conflict.Error(), nil
	}
	var rule domain.RuleViolationError
	if errors.As(err, &rule) {
		return http.StatusConflict, "rule_violation", rule.Error(), rule.Result.Violations
	}
	return http.StatusInternalServerError, "internal", "internal server error", nil
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	status, code, message, details := classifyError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeError(w, status, code, message, details)
}
