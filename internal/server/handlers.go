package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"slideforge/internal/core"
	"slideforge/internal/orchestrator"
	"slideforge/internal/scheduler"
	"slideforge/internal/version"
)

// GenerationService is the orchestration surface the handlers consume.
type GenerationService interface {
	Generate(ctx context.Context, req *core.GenerationRequest, principal string) (*core.GeneratedArtifact, error)
	Stats() orchestrator.Stats
}

// CycleReporter exposes scheduler state for the status surface. Nil when
// the scheduler is not running in this process.
type CycleReporter interface {
	State() scheduler.State
	LastCycle() *scheduler.CycleSummary
}

// Handler holds the HTTP handlers.
type Handler struct {
	service GenerationService
	cycles  CycleReporter
}

// NewHandler creates a handler. cycles may be nil.
func NewHandler(service GenerationService, cycles CycleReporter) *Handler {
	return &Handler{
		service: service,
		cycles:  cycles,
	}
}

// maxCallerTimeout caps the per-request timeout a caller may ask for.
const maxCallerTimeout = 60 * time.Second

// generateRequest is the wire shape of POST /v1/generate.
type generateRequest struct {
	Prompt         string `json:"prompt"`
	Kind           string `json:"kind"`
	Style          string `json:"style"`
	Category       string `json:"category"`
	CardCount      int    `json:"card_count"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// Generate handles POST /v1/generate. The principal is taken from the
// X-Principal header; a caller-supplied timeout bounds the whole fallback
// chain and releases the credit hold on abort.
func (h *Handler) Generate(c echo.Context) error {
	var body generateRequest
	if err := c.Bind(&body); err != nil {
		return handleError(c, core.NewInvalidRequestError("invalid request body: "+err.Error()))
	}

	principal := c.Request().Header.Get("X-Principal")
	if principal == "" {
		return handleError(c, core.NewInvalidRequestError("missing X-Principal header"))
	}

	kind := core.ContentKind(body.Kind)
	if body.Kind == "" {
		kind = core.KindPresentation
	}
	if body.CardCount <= 0 {
		body.CardCount = 10
	}

	req := &core.GenerationRequest{
		Prompt:    body.Prompt,
		Kind:      kind,
		Style:     body.Style,
		Category:  body.Category,
		CardCount: body.CardCount,
	}

	ctx := c.Request().Context()
	if body.TimeoutSeconds > 0 {
		timeout := time.Duration(body.TimeoutSeconds) * time.Second
		if timeout > maxCallerTimeout {
			timeout = maxCallerTimeout
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	artifact, err := h.service.Generate(ctx, req, principal)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(http.StatusOK, artifact)
}

// Status handles GET /v1/status: per-provider quota state, cache hit
// ratio, and the last scheduler cycle when a scheduler runs in-process.
func (h *Handler) Status(c echo.Context) error {
	stats := h.service.Stats()

	resp := map[string]any{
		"version": version.Version,
		"quotas":  stats.Quotas,
		"cache": map[string]any{
			"hits":      stats.Cache.Hits,
			"misses":    stats.Cache.Misses,
			"hit_ratio": stats.Cache.HitRatio(),
		},
	}
	if h.cycles != nil {
		sched := map[string]any{"state": h.cycles.State()}
		if last := h.cycles.LastCycle(); last != nil {
			sched["last_cycle"] = last
		}
		resp["scheduler"] = sched
	}
	return c.JSON(http.StatusOK, resp)
}

// Health handles GET /health.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

// handleError converts orchestration errors to HTTP responses.
func handleError(c echo.Context, err error) error {
	var oerr *core.OrchestratorError
	if errors.As(err, &oerr) {
		return c.JSON(oerr.HTTPStatusCode(), oerr.ToJSON())
	}
	return c.JSON(http.StatusInternalServerError, map[string]any{
		"error": map[string]any{
			"type":    "internal_error",
			"message": "an unexpected error occurred",
		},
	})
}
