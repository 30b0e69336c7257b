package gateway

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/lotquery/lotquery/internal/execution"
	"github.com/lotquery/lotquery/internal/nlq"
	"github.com/lotquery/lotquery/internal/sqlbuild"
)

// Error codes carried in every failure response. Client mistakes map to 400,
// engine and collaborator failures to 500.
const (
	codeInvalidInput   = "INVALID_INPUT"
	codeMissingInput   = "MISSING_INPUT"
	codeTranslation    = "TRANSLATION_ERROR"
	codeQueryExecution = "QUERY_EXECUTION_ERROR"
	codeQueryTimeout   = "QUERY_TIMEOUT"
	codeUnknownMode    = "UNKNOWN_MODE"
	codeUpstream       = "UPSTREAM_ERROR"
)

type missingInputError struct {
	Field string
}

func (e *missingInputError) Error() string {
	return fmt.Sprintf("missing required parameter %q", e.Field)
}

type unknownModeError struct {
	Mode string
}

func (e *unknownModeError) Error() string {
	return fmt.Sprintf("unknown mode %q: use %q or %q", e.Mode, ModeFilters, ModeNaturalLanguage)
}

// classify maps any pipeline failure onto the response taxonomy. The debug
// payload is non-empty only for translation failures, where the raw model
// output is the thing worth looking at.
func classify(err error) (status int, code, message, debug string) {
	var invalid *sqlbuild.InvalidInputError
	if errors.As(err, &invalid) {
		return http.StatusBadRequest, codeInvalidInput, invalid.Error(), ""
	}
	var missing *missingInputError
	if errors.As(err, &missing) {
		return http.StatusBadRequest, codeMissingInput, missing.Error(), ""
	}
	var unknownMode *unknownModeError
	if errors.As(err, &unknownMode) {
		return http.StatusBadRequest, codeUnknownMode, unknownMode.Error(), ""
	}
	var translation *nlq.TranslationError
	if errors.As(err, &translation) {
		return http.StatusBadRequest, codeTranslation, "the model could not produce a valid query", translation.RawOutput
	}
	var execErr *execution.ExecutionError
	if errors.As(err, &execErr) {
		return http.StatusInternalServerError, codeQueryExecution, execErr.Error(), ""
	}
	var timeout *execution.TimeoutError
	if errors.As(err, &timeout) {
		return http.StatusInternalServerError, codeQueryTimeout, timeout.Error(), ""
	}
	return http.StatusInternalServerError, codeUpstream, err.Error(), ""
}
