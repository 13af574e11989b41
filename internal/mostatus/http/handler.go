// Package mostatushttp exposes the MO status dashboard over HTTP.
package mostatushttp

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/mrp-dashboard/internal/action"
	"github.com/odyssey-erp/mrp-dashboard/internal/mostatus"
	"github.com/odyssey-erp/mrp-dashboard/internal/notify"
	"github.com/odyssey-erp/mrp-dashboard/internal/platform/httpx"
)

const requestTimeout = 30 * time.Second

type dashboardService interface {
	Now() time.Time
	LoadChart(ctx context.Context, n notify.Notifier, r mostatus.DateRange) (mostatus.ChartData, error)
	RenderChart(ctx context.Context, n notify.Notifier, chart mostatus.ChartData) (template.HTML, error)
	RecentMOs(ctx context.Context, n notify.Notifier) []mostatus.RecentMO
	OperationTypes(ctx context.Context, n notify.Notifier) []mostatus.OperationType
	OperationDocuments(ctx context.Context, n notify.Notifier, typeID int64) []mostatus.OperationDoc
	CardCounts(ctx context.Context, c mostatus.Card, now time.Time) (mostatus.CardCounts, error)
	OperationTiles(ctx context.Context, n notify.Notifier, now time.Time) []mostatus.OperationTile
	OperationTile(ctx context.Context, n notify.Notifier, typeID int64, now time.Time) (mostatus.OperationTile, bool)
	FindOperationType(ctx context.Context, n notify.Notifier, typeID int64) (mostatus.OperationType, bool)
	WorkcenterLoads(ctx context.Context, n notify.Notifier) []mostatus.WorkcenterLoad
	WorkcenterLoad(ctx context.Context, n notify.Notifier, workcenterID int64) (mostatus.WorkcenterLoad, error)
}

// Handler serves the MO status dashboard endpoints.
type Handler struct {
	logger   *slog.Logger
	service  dashboardService
	notifier notify.Notifier
}

// NewHandler constructs the handler. Notices raised while serving a request are
// returned to the caller and also forwarded to notifier.
func NewHandler(logger *slog.Logger, service dashboardService, notifier notify.Notifier) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, notifier: notifier}
}

// MountRoutes registers the dashboard routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/mrp/status", func(r chi.Router) {
		r.Get("/", h.handleChart)
		r.Get("/chart.svg", h.handleChartSVG)
		r.Get("/recent", h.handleRecent)
		r.Get("/operation-types", h.handleOperationTypes)
		r.Get("/operation-types/{id}/documents", h.handleOperationDocuments)
		r.Get("/cards", h.handleCards)
		r.Get("/cards/{card}", h.handleCard)
		r.Get("/cards/{card}/{kind}/action", h.handleCardAction)
		r.Get("/operations", h.handleOperations)
		r.Get("/operations/{id}", h.handleOperation)
		r.Get("/operations/{id}/{kind}/action", h.handleOperationAction)
		r.Get("/workorders", h.handleWorkorders)
		r.Get("/workorders/graph.svg", h.handleWorkorderGraphSVG)
		r.Get("/workorders/{workcenter}", h.handleWorkcenter)
		r.Get("/workorders/{workcenter}/action", h.handleWorkcenterAction)
		r.Post("/navigate", h.handleNavigate)
	})
}

type chartResponse struct {
	Range mostatus.DateRange `json:"range"`
	Chart mostatus.ChartData `json:"chart"`
	action.Envelope
}

func (h *Handler) handleChart(w http.ResponseWriter, r *http.Request) {
	rng, err := h.parseRange(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	out := action.NewOutbox(h.notifier)
	chart, err := h.service.LoadChart(ctx, out, rng)
	if err != nil {
		httpx.JSON(w, http.StatusBadGateway, chartResponse{Range: rng, Envelope: out.Snapshot()})
		return
	}
	httpx.JSON(w, http.StatusOK, chartResponse{Range: rng, Chart: chart, Envelope: out.Snapshot()})
}

func (h *Handler) handleChartSVG(w http.ResponseWriter, r *http.Request) {
	rng, err := h.parseRange(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	out := action.NewOutbox(h.notifier)
	chart, err := h.service.LoadChart(ctx, out, rng)
	if err != nil {
		httpx.JSON(w, http.StatusBadGateway, chartResponse{Range: rng, Envelope: out.Snapshot()})
		return
	}
	svg, err := h.service.RenderChart(ctx, out, chart)
	if err != nil {
		h.logger.Error("render chart", slog.Any("error", err))
		httpx.JSON(w, http.StatusInternalServerError, chartResponse{Range: rng, Chart: chart, Envelope: out.Snapshot()})
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(svg))
}

type listResponse[T any] struct {
	Items []T `json:"items"`
	action.Envelope
}

func (h *Handler) handleRecent(w http.ResponseWriter, r *http.Request) {
	out := action.NewOutbox(h.notifier)
	items := h.service.RecentMOs(r.Context(), out)
	httpx.JSON(w, http.StatusOK, listResponse[mostatus.RecentMO]{Items: items, Envelope: out.Snapshot()})
}

func (h *Handler) handleOperationTypes(w http.ResponseWriter, r *http.Request) {
	out := action.NewOutbox(h.notifier)
	items := h.service.OperationTypes(r.Context(), out)
	httpx.JSON(w, http.StatusOK, listResponse[mostatus.OperationType]{Items: items, Envelope: out.Snapshot()})
}

func (h *Handler) handleOperationDocuments(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 0 {
		httpx.RespondError(w, fmt.Errorf("%w: operation type id", httpx.ErrValidation))
		return
	}
	out := action.NewOutbox(h.notifier)
	items := h.service.OperationDocuments(r.Context(), out, id)
	httpx.JSON(w, http.StatusOK, listResponse[mostatus.OperationDoc]{Items: items, Envelope: out.Snapshot()})
}

func (h *Handler) handleCards(w http.ResponseWriter, r *http.Request) {
	now := h.service.Now()
	cards := make([]mostatus.CardCounts, 0, len(mostatus.Cards()))
	for _, c := range mostatus.Cards() {
		counts, err := h.service.CardCounts(r.Context(), c, now)
		if err != nil {
			h.logger.Warn("card counts", slog.String("card", string(c)), slog.Any("error", err))
			httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrUpstream, err))
			return
		}
		cards = append(cards, counts)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": cards})
}

func (h *Handler) handleCard(w http.ResponseWriter, r *http.Request) {
	card, err := mostatus.ParseCard(chi.URLParam(r, "card"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrNotFound, err))
		return
	}
	counts, err := h.service.CardCounts(r.Context(), card, h.service.Now())
	if err != nil {
		h.logger.Warn("card counts", slog.String("card", string(card)), slog.Any("error", err))
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrUpstream, err))
		return
	}
	httpx.JSON(w, http.StatusOK, counts)
}

func (h *Handler) handleCardAction(w http.ResponseWriter, r *http.Request) {
	card, err := mostatus.ParseCard(chi.URLParam(r, "card"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrNotFound, err))
		return
	}
	kind, err := parseKind(chi.URLParam(r, "kind"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, mostatus.CardAction(card, kind, h.service.Now()))
}

func parseKind(raw string) (mostatus.CountKind, error) {
	kind := mostatus.CountKind(raw)
	switch kind {
	case mostatus.KindAll, mostatus.KindReady, mostatus.KindWaiting, mostatus.KindLate, mostatus.KindInProgress:
		return kind, nil
	default:
		return "", fmt.Errorf("%w: unknown counter %q", httpx.ErrValidation, raw)
	}
}

func parseID(r *http.Request, param string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s", httpx.ErrValidation, param)
	}
	return id, nil
}

func (h *Handler) handleOperations(w http.ResponseWriter, r *http.Request) {
	out := action.NewOutbox(h.notifier)
	items := h.service.OperationTiles(r.Context(), out, h.service.Now())
	httpx.JSON(w, http.StatusOK, listResponse[mostatus.OperationTile]{Items: items, Envelope: out.Snapshot()})
}

type tileResponse struct {
	Tile *mostatus.OperationTile `json:"tile"`
	action.Envelope
}

func (h *Handler) handleOperation(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := action.NewOutbox(h.notifier)
	tile, ok := h.service.OperationTile(r.Context(), out, id, h.service.Now())
	env := out.Snapshot()
	switch {
	case ok:
		httpx.JSON(w, http.StatusOK, tileResponse{Tile: &tile, Envelope: env})
	case len(env.Notices) > 0:
		httpx.JSON(w, http.StatusBadGateway, tileResponse{Envelope: env})
	default:
		httpx.RespondError(w, fmt.Errorf("%w: operation type %d", httpx.ErrNotFound, id))
	}
}

func (h *Handler) handleOperationAction(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	kind, err := parseKind(chi.URLParam(r, "kind"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	opType, ok := h.service.FindOperationType(r.Context(), h.notifier, id)
	if !ok {
		httpx.RespondError(w, fmt.Errorf("%w: operation type %d", httpx.ErrNotFound, id))
		return
	}
	httpx.JSON(w, http.StatusOK, mostatus.OperationAction(opType, kind, h.service.Now()))
}

type workordersResponse struct {
	Items []mostatus.WorkcenterLoad `json:"items"`
	Graph mostatus.WorkorderGraph   `json:"graph"`
	action.Envelope
}

func (h *Handler) handleWorkorders(w http.ResponseWriter, r *http.Request) {
	out := action.NewOutbox(h.notifier)
	loads := h.service.WorkcenterLoads(r.Context(), out)
	httpx.JSON(w, http.StatusOK, workordersResponse{Items: loads, Graph: mostatus.BuildWorkorderGraph(loads), Envelope: out.Snapshot()})
}

func (h *Handler) handleWorkorderGraphSVG(w http.ResponseWriter, r *http.Request) {
	out := action.NewOutbox(h.notifier)
	graph := mostatus.BuildWorkorderGraph(h.service.WorkcenterLoads(r.Context(), out))
	svg, err := mostatus.RenderWorkorderGraph(graph, 0, 0)
	if err != nil {
		h.logger.Error("render work order graph", slog.Any("error", err))
		httpx.JSON(w, http.StatusInternalServerError, workordersResponse{Graph: graph, Envelope: out.Snapshot()})
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(svg))
}

type workcenterResponse struct {
	Load *mostatus.WorkcenterLoad `json:"load"`
	action.Envelope
}

func (h *Handler) handleWorkcenter(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "workcenter")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := action.NewOutbox(h.notifier)
	load, err := h.service.WorkcenterLoad(r.Context(), out, id)
	if err != nil {
		httpx.JSON(w, http.StatusBadGateway, workcenterResponse{Envelope: out.Snapshot()})
		return
	}
	httpx.JSON(w, http.StatusOK, workcenterResponse{Load: &load, Envelope: out.Snapshot()})
}

func (h *Handler) handleWorkcenterAction(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "workcenter")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	load, err := h.service.WorkcenterLoad(r.Context(), h.notifier, id)
	if err != nil {
		load.Workcenter.ID = id
	}
	httpx.JSON(w, http.StatusOK, mostatus.WorkorderAction(load.Workcenter))
}

type navigateRequest struct {
	Model string `json:"model"`
	ID    int64  `json:"id"`
}

func (h *Handler) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req navigateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	switch req.Model {
	case mostatus.ModelProduction, mostatus.ModelPicking:
	default:
		httpx.RespondError(w, fmt.Errorf("%w: unsupported model %q", httpx.ErrValidation, req.Model))
		return
	}
	out := action.NewOutbox(h.notifier)
	nav := action.NewNavigator(out, out)
	if err := nav.Open(r.Context(), req.Model, req.ID); err != nil {
		h.logger.Warn("navigate", slog.String("model", req.Model), slog.Int64("id", req.ID), slog.Any("error", err))
	}
	httpx.JSON(w, http.StatusOK, out.Snapshot())
}

func (h *Handler) parseRange(r *http.Request) (mostatus.DateRange, error) {
	q := r.URL.Query()
	start, end := q.Get("start"), q.Get("end")
	if start == "" && end == "" {
		return mostatus.DefaultRange(h.service.Now()), nil
	}
	rng, err := mostatus.ParseDateRange(start, end)
	if err != nil {
		if errors.Is(err, mostatus.ErrInvalidRange) {
			return mostatus.DateRange{}, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
		}
		return mostatus.DateRange{}, err
	}
	return rng, nil
}
