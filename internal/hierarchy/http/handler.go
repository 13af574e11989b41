// Package hierarchyhttp exposes the delivery and cost hierarchy viewer over HTTP.
package hierarchyhttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/mrp-dashboard/internal/action"
	"github.com/odyssey-erp/mrp-dashboard/internal/hierarchy"
	"github.com/odyssey-erp/mrp-dashboard/internal/notify"
	"github.com/odyssey-erp/mrp-dashboard/internal/platform/httpx"
	"github.com/odyssey-erp/mrp-dashboard/internal/shared"
)

const (
	requestTimeout = 45 * time.Second
	xlsxType       = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type loader interface {
	Load(ctx context.Context, n notify.Notifier, req hierarchy.Request) hierarchy.Result
}

type exporter interface {
	Export(ctx context.Context, exec action.Executor, n notify.Notifier, moID int64) error
}

type viewStore interface {
	Create(ctx context.Context) (string, hierarchy.ViewState, error)
	Get(ctx context.Context, id string) (hierarchy.ViewState, error)
	Update(ctx context.Context, id string, fn func(hierarchy.ViewState) hierarchy.ViewState) (hierarchy.ViewState, error)
}

// Handler serves the hierarchy viewer endpoints.
type Handler struct {
	logger   *slog.Logger
	loader   loader
	exporter exporter
	views    viewStore
	notifier notify.Notifier
	validate *validator.Validate
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, loader loader, exporter exporter, views viewStore, notifier notify.Notifier) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:   logger,
		loader:   loader,
		exporter: exporter,
		views:    views,
		notifier: notifier,
		validate: validator.New(),
	}
}

// MountRoutes registers the viewer routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/mrp/hierarchy", func(r chi.Router) {
		r.Get("/", h.handleShow)
		r.Post("/views", h.handleCreateView)
		r.Post("/views/{view}/deliveries/{id}/toggle", h.handleToggleDelivery)
		r.Post("/views/{view}/components/{id}/toggle", h.handleToggleComponent)
		r.Post("/open", h.handleOpen)
		r.Post("/{mo}/export", h.handleExport)
		r.Get("/{mo}/export.xlsx", h.handleExportXLSX)
	})
}

type totals struct {
	Currency       string `json:"currency"`
	MOCost         string `json:"mo_cost"`
	DeliveriesCost string `json:"deliveries_cost"`
	GrandTotal     string `json:"grand_total"`
	MOShare        string `json:"mo_share"`
	DeliveryShare  string `json:"delivery_share"`
}

type showResponse struct {
	ViewID     string                   `json:"view_id"`
	View       hierarchy.ViewState      `json:"view"`
	Deliveries []hierarchy.Delivery     `json:"deliveries"`
	Overview   *hierarchy.Overview      `json:"overview"`
	Breakdown  *hierarchy.CostBreakdown `json:"breakdown"`
	Summary    hierarchy.CostSummary    `json:"summary"`
	Totals     totals                   `json:"totals"`
	action.Envelope
}

func (h *Handler) handleShow(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseRequest(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	viewID, view, err := h.resolveView(ctx, r.URL.Query().Get("view"))
	if err != nil {
		h.logger.Error("resolve view", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	out := action.NewOutbox(h.notifier)
	res := h.loader.Load(ctx, out, req)
	summary := hierarchy.Summary(res.Overview, res.Deliveries)
	httpx.JSON(w, http.StatusOK, showResponse{
		ViewID:     viewID,
		View:       view,
		Deliveries: res.Deliveries,
		Overview:   res.Overview,
		Breakdown:  hierarchy.Breakdown(res.Overview, res.Deliveries),
		Summary:    summary,
		Totals: totals{
			Currency:       shared.Currency.String(),
			MOCost:         shared.FormatCurrency(summary.MOCost),
			DeliveriesCost: shared.FormatCurrency(summary.DeliveriesCost),
			GrandTotal:     shared.FormatCurrency(summary.GrandTotal),
			MOShare:        shared.FormatPercent(summary.MOPercentage),
			DeliveryShare:  shared.FormatPercent(summary.DeliveriesPercentage),
		},
		Envelope: out.Snapshot(),
	})
}

// resolveView loads the named view or starts a new one when it is missing or expired.
func (h *Handler) resolveView(ctx context.Context, id string) (string, hierarchy.ViewState, error) {
	if id != "" {
		view, err := h.views.Get(ctx, id)
		if err == nil {
			return id, view, nil
		}
		if !errors.Is(err, hierarchy.ErrViewNotFound) {
			return "", hierarchy.ViewState{}, err
		}
	}
	return h.views.Create(ctx)
}

type viewResponse struct {
	ViewID string              `json:"view_id"`
	View   hierarchy.ViewState `json:"view"`
}

func (h *Handler) handleCreateView(w http.ResponseWriter, r *http.Request) {
	id, view, err := h.views.Create(r.Context())
	if err != nil {
		h.logger.Error("create view", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, viewResponse{ViewID: id, View: view})
}

func (h *Handler) handleToggleDelivery(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, hierarchy.ViewState.ToggleDelivery)
}

func (h *Handler) handleToggleComponent(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, hierarchy.ViewState.ToggleComponent)
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request, fn func(hierarchy.ViewState, hierarchy.ID) hierarchy.ViewState) {
	viewID := chi.URLParam(r, "view")
	nodeID := hierarchy.ID(strings.TrimSpace(chi.URLParam(r, "id")))
	if nodeID == "" {
		httpx.RespondError(w, fmt.Errorf("%w: node id", httpx.ErrValidation))
		return
	}
	view, err := h.views.Update(r.Context(), viewID, func(v hierarchy.ViewState) hierarchy.ViewState {
		return fn(v, nodeID)
	})
	if err != nil {
		if errors.Is(err, hierarchy.ErrViewNotFound) {
			httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrNotFound, err))
			return
		}
		h.logger.Error("toggle view", slog.String("view", viewID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, viewResponse{ViewID: viewID, View: view})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	moID, err := parseMOID(chi.URLParam(r, "mo"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	out := action.NewOutbox(h.notifier)
	if err := h.exporter.Export(ctx, out, out, moID); err != nil {
		httpx.JSON(w, http.StatusBadGateway, out.Snapshot())
		return
	}
	httpx.JSON(w, http.StatusOK, out.Snapshot())
}

func (h *Handler) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	moID, err := parseMOID(chi.URLParam(r, "mo"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ids, err := parseIDs(r.URL.Query().Get("delivery_ids"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	res := h.loader.Load(ctx, h.notifier, hierarchy.Request{MOID: moID, DeliveryIDs: ids})
	if res.Overview == nil {
		httpx.RespondError(w, fmt.Errorf("%w: manufacturing order %d", httpx.ErrNotFound, moID))
		return
	}
	var buf bytes.Buffer
	if err := hierarchy.WriteWorkbook(&buf, res.Overview, res.Deliveries); err != nil {
		h.logger.Error("write workbook", slog.Int64("mo_id", moID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	filename := fmt.Sprintf("mo_overview_%d.xlsx", moID)
	if err := httpx.Attachment(w, xlsxType, filename, buf.Bytes()); err != nil {
		h.logger.Warn("stream workbook", slog.Any("error", err))
	}
}

type openRequest struct {
	Model string `json:"model" validate:"required,oneof=mrp.production stock.picking"`
	ID    int64  `json:"id"`
}

func (h *Handler) handleOpen(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	out := action.NewOutbox(h.notifier)
	if err := action.NewNavigator(out, out).Open(r.Context(), req.Model, req.ID); err != nil {
		h.logger.Warn("open document", slog.String("model", req.Model), slog.Int64("id", req.ID), slog.Any("error", err))
	}
	httpx.JSON(w, http.StatusOK, out.Snapshot())
}

func (h *Handler) parseRequest(r *http.Request) (hierarchy.Request, error) {
	q := r.URL.Query()
	var req hierarchy.Request
	if raw := q.Get("mo_id"); raw != "" {
		id, err := parseMOID(raw)
		if err != nil {
			return req, err
		}
		req.MOID = id
	}
	ids, err := parseIDs(q.Get("delivery_ids"))
	if err != nil {
		return req, err
	}
	req.DeliveryIDs = ids
	if err := h.validate.Struct(req); err != nil {
		return req, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	return req, nil
}

func parseMOID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("%w: manufacturing order id %q", httpx.ErrValidation, raw)
	}
	return id, nil
}

func parseIDs(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: delivery id %q", httpx.ErrValidation, p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
