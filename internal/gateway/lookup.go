package gateway

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/lotquery/lotquery/internal/execution"
	"github.com/lotquery/lotquery/internal/observability"
	"github.com/lotquery/lotquery/internal/sqlbuild"
)

const (
	ModeFilters         = "filters"
	ModeNaturalLanguage = "natural_language"
)

// offTopicReply is the fixed redirect returned when the translator flags a
// question as unrelated to the parking system.
const offTopicReply = "Lo siento, solo puedo ayudarte con preguntas sobre el parking: " +
	"plazas libres, ocupadas, capacidad, etc. ¿En qué puedo ayudarte?"

func handleLookup(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	mode := strings.ToLower(strings.TrimSpace(params.Get("mode")))
	if mode == "" {
		mode = ModeNaturalLanguage
	}

	switch mode {
	case ModeFilters:
		handleFilterLookup(deps, w, r)
	case ModeNaturalLanguage:
		handleNaturalLanguageLookup(deps, w, r)
	default:
		observability.ObserveLookup(mode, "client_error")
		respondError(deps, r, w, &unknownModeError{Mode: mode})
	}
}

func handleFilterLookup(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	limit := sqlbuild.DefaultLimit
	if raw := strings.TrimSpace(params.Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			observability.ObserveLookup(ModeFilters, "client_error")
			respondError(deps, r, w, &sqlbuild.InvalidInputError{Field: "limit", Reason: "must be an integer"})
			return
		}
		limit = parsed
	}

	filters := sqlbuild.Filters{
		DeviceID: strings.TrimSpace(params.Get("device_id")),
		Date:     strings.TrimSpace(params.Get("date")),
		Latest:   strings.EqualFold(strings.TrimSpace(params.Get("latest")), "true"),
		Limit:    sqlbuild.ClampLimit(limit),
	}

	stmt, err := deps.Builder.Build(filters)
	if err != nil {
		observability.ObserveLookup(ModeFilters, "client_error")
		respondError(deps, r, w, err)
		return
	}

	table, err := deps.Executor.Execute(r.Context(), stmt)
	if err != nil {
		observability.ObserveLookup(ModeFilters, "server_error")
		respondError(deps, r, w, err)
		return
	}

	observability.ObserveLookup(ModeFilters, "ok")
	writeJSON(w, http.StatusOK, map[string]any{
		"mode":   ModeFilters,
		"query":  stmt,
		"result": table,
	})
}

func handleNaturalLanguageLookup(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	question := strings.TrimSpace(r.URL.Query().Get("prompt"))
	if question == "" {
		observability.ObserveLookup(ModeNaturalLanguage, "client_error")
		respondError(deps, r, w, &missingInputError{Field: "prompt"})
		return
	}

	translation, err := deps.Translator.Translate(r.Context(), question)
	if err != nil {
		observability.ObserveLookup(ModeNaturalLanguage, "translation_error")
		respondError(deps, r, w, err)
		return
	}

	if translation.OffTopic {
		observability.ObserveLookup(ModeNaturalLanguage, "off_topic")
		writeJSON(w, http.StatusOK, map[string]any{
			"output": offTopicReply,
			"sql":    nil,
			"result": emptyTable(),
		})
		return
	}

	table, err := deps.Executor.Execute(r.Context(), translation.SQL)
	if err != nil {
		observability.ObserveLookup(ModeNaturalLanguage, "server_error")
		respondError(deps, r, w, err)
		return
	}

	answer, err := deps.Answerer.Answer(r.Context(), question, table)
	if err != nil {
		observability.ObserveLookup(ModeNaturalLanguage, "server_error")
		respondError(deps, r, w, err)
		return
	}

	observability.ObserveLookup(ModeNaturalLanguage, "ok")
	writeJSON(w, http.StatusOK, map[string]any{
		"output": answer,
		"sql":    translation.SQL,
		"result": table,
	})
}

func respondError(deps Dependencies, r *http.Request, w http.ResponseWriter, err error) {
	status, code, message, debug := classify(err)
	if deps.Logger != nil && status >= http.StatusInternalServerError {
		deps.Logger.ErrorContext(r.Context(), "lookup failed",
			slog.String("trace_id", observability.TraceIDFromContext(r.Context())),
			slog.String("code", code),
			slog.Any("error", err),
		)
	}
	writeError(w, status, code, message, debug)
}

func emptyTable() execution.Table {
	return execution.Table{Columns: []string{}, Rows: []map[string]*string{}}
}
