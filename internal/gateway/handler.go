// Package gateway routes lookup requests to the filter or natural-language
// pipeline and shapes every response uniformly: a status code, permissive
// CORS headers, and a JSON body.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lotquery/lotquery/internal/config"
	"github.com/lotquery/lotquery/internal/execution"
	"github.com/lotquery/lotquery/internal/nlq"
	"github.com/lotquery/lotquery/internal/observability"
	"github.com/lotquery/lotquery/internal/sqlbuild"
)

type ReadinessCheck func(ctx context.Context) error

// Executor runs one statement against the query engine and materializes the
// rows. Exactly one execution happens per request.
type Executor interface {
	Execute(ctx context.Context, sql string) (execution.Table, error)
}

type Translator interface {
	Translate(ctx context.Context, question string) (nlq.Translation, error)
}

type Answerer interface {
	Answer(ctx context.Context, question string, table execution.Table) (string, error)
}

type Dependencies struct {
	Logger            *slog.Logger
	Readiness         ReadinessCheck
	AuthMiddleware    func(http.Handler) http.Handler
	DependencyTimeout time.Duration
	Builder           *sqlbuild.Builder
	Executor          Executor
	Translator        Translator
	Answerer          Answerer
}

func NewHandler(cfg config.Config, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(observability.TraceMiddleware)
	r.Use(observability.MetricsMiddleware)
	if deps.Logger != nil {
		r.Use(observability.LoggingMiddleware(deps.Logger))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:     []string{"*"},
		AllowedMethods:     []string{http.MethodOptions, http.MethodGet, http.MethodPost},
		AllowedHeaders:     []string{"Content-Type", "Authorization"},
		OptionsPassthrough: true,
	}))

	r.Get("/v1/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "service": cfg.Service.Name})
	})

	r.Get("/v1/ready", func(w http.ResponseWriter, req *http.Request) {
		if deps.Readiness == nil {
			writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
			return
		}
		timeout := deps.DependencyTimeout
		if timeout <= 0 {
			timeout = 2 * time.Second
		}
		ctx, cancel := context.WithTimeout(req.Context(), timeout)
		defer cancel()
		if err := deps.Readiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "not_ready", "error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	})

	r.Method(http.MethodGet, "/v1/metrics", promhttp.Handler())

	// Preflight acknowledgement; the CORS middleware has already attached
	// the shared headers before passing the request through.
	r.Options("/v1/lookup", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	lookup := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		handleLookup(deps, w, req)
	})
	var lookupHandler http.Handler = lookup
	if cfg.Auth.Required {
		if deps.AuthMiddleware == nil {
			if deps.Logger != nil {
				deps.Logger.Error("auth required but auth middleware missing")
			}
			lookupHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				writeError(w, http.StatusInternalServerError, codeUpstream, "auth middleware is required by configuration", "")
			})
		} else {
			lookupHandler = deps.AuthMiddleware(lookup)
		}
	}
	r.Method(http.MethodGet, "/v1/lookup", lookupHandler)
	r.Method(http.MethodPost, "/v1/lookup", lookupHandler)

	return r
}

func CheckEngineConfig(cfg config.Config) ReadinessCheck {
	return func(_ context.Context) error {
		if cfg.Engine.Database == "" {
			return errors.New("engine database is not configured")
		}
		if cfg.Engine.Table == "" {
			return errors.New("engine table is not configured")
		}
		if cfg.Engine.OutputLocation == "" {
			return errors.New("engine output location is not configured")
		}
		return nil
	}
}

func CheckModelConfig(cfg config.Config) ReadinessCheck {
	return func(_ context.Context) error {
		if cfg.Model.BaseURL == "" {
			return errors.New("model gateway base URL is not configured")
		}
		if cfg.Secrets.SecretName == "" {
			return errors.New("model gateway secret name is not configured")
		}
		return nil
	}
}

func CombineReadinessChecks(checks ...ReadinessCheck) ReadinessCheck {
	filtered := make([]ReadinessCheck, 0, len(checks))
	for _, check := range checks {
		if check != nil {
			filtered = append(filtered, check)
		}
	}
	return func(ctx context.Context) error {
		for _, check := range filtered {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message, debug string) {
	body := map[string]any{
		"error": message,
		"code":  code,
	}
	if debug != "" {
		body["debug"] = debug
	}
	writeJSON(w, status, body)
}
