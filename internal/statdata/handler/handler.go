// Package handler wires the data point endpoints to the data service.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	indicatormodels "satudata/internal/indicator/models"
	"satudata/internal/statdata/models"
	"satudata/internal/statdata/service"
	id "satudata/pkg/domain"
	dErrors "satudata/pkg/domain-errors"
	"satudata/pkg/platform/httputil"
	"satudata/pkg/requestcontext"
)

// Service defines the interface for data point operations.
type Service interface {
	Create(ctx context.Context, in service.CreateInput) (*models.DataPoint, error)
	Update(ctx context.Context, pointID id.DataPointID, in service.UpdateInput) (*models.DataPoint, error)
	Verify(ctx context.Context, pointID id.DataPointID) (*models.DataPoint, error)
	Delete(ctx context.Context, pointID id.DataPointID) error
	Get(ctx context.Context, pointID id.DataPointID) (*models.DataPoint, error)
	ListByIndicator(ctx context.Context, indicatorID id.IndicatorID) ([]*models.DataPoint, error)
	BulkImport(ctx context.Context, in service.BulkImportInput) (*service.BulkImportResult, error)
}

// CatalogService supplies the indicator list for the import helper endpoint.
type CatalogService interface {
	ListVisible(ctx context.Context, role id.Role, category id.Category) ([]*indicatormodels.Indicator, error)
}

// Handler wires data point endpoints to the data service.
type Handler struct {
	service Service
	catalog CatalogService
	logger  *slog.Logger
}

// New constructs a data point handler with its dependencies.
func New(service Service, catalog CatalogService, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		catalog: catalog,
		logger:  logger,
	}
}

// Register mounts data point endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/datapoints", h.HandleCreate)
	r.Get("/datapoints/{id}", h.HandleGet)
	r.Patch("/datapoints/{id}", h.HandleUpdate)
	r.Delete("/datapoints/{id}", h.HandleDelete)
	r.Post("/datapoints/{id}/verify", h.HandleVerify)
	r.Post("/import", h.HandleBulkImport)
	r.Get("/import", h.HandleImportMeta)
	r.Get("/indicators/{id}/datapoints", h.HandleListDataPoints)
}

// requireIdentity rejects unauthenticated requests before any service call.
func (h *Handler) requireIdentity(w http.ResponseWriter, r *http.Request) bool {
	if requestcontext.UserID(r.Context()) == (id.UserID{}) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return false
	}
	return true
}

func pointIDFromURL(r *http.Request) (id.DataPointID, error) {
	return id.ParseDataPointID(chi.URLParam(r, "id"))
}

// HandleCreate handles POST /datapoints requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	if !h.requireIdentity(w, r) {
		return
	}

	req, ok := httputil.DecodeAndPrepare[CreateDataPointRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	dp, err := h.service.Create(ctx, service.CreateInput{
		IndicatorID:    req.ParsedIndicatorID(),
		Period:         models.PeriodInput{Year: req.Year, Month: req.PeriodMonth, Quarter: req.PeriodQuarter},
		Value:          req.Value,
		Status:         req.Status,
		Notes:          req.Notes,
		SourceDocument: req.SourceDocument,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "data point creation failed",
			"request_id", requestID,
			"indicator_id", req.IndicatorID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromDataPoint(dp))
}

// HandleGet handles GET /datapoints/{id} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireIdentity(w, r) {
		return
	}
	pointID, err := pointIDFromURL(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	dp, err := h.service.Get(ctx, pointID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDataPoint(dp))
}

// HandleUpdate handles PATCH /datapoints/{id} requests.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	if !h.requireIdentity(w, r) {
		return
	}
	pointID, err := pointIDFromURL(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateDataPointRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	dp, err := h.service.Update(ctx, pointID, service.UpdateInput{
		Value:          req.Value,
		Status:         req.Status,
		Notes:          req.Notes,
		SourceDocument: req.SourceDocument,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "data point update failed",
			"request_id", requestID,
			"data_point_id", pointID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDataPoint(dp))
}

// HandleDelete handles DELETE /datapoints/{id} requests.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireIdentity(w, r) {
		return
	}
	pointID, err := pointIDFromURL(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Delete(ctx, pointID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleVerify handles POST /datapoints/{id}/verify requests.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireIdentity(w, r) {
		return
	}
	pointID, err := pointIDFromURL(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	dp, err := h.service.Verify(ctx, pointID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDataPoint(dp))
}

// HandleBulkImport handles POST /import requests. A fully clean batch is 200;
// any row error downgrades the response to 207 with per-row detail.
func (h *Handler) HandleBulkImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()
	if !h.requireIdentity(w, r) {
		return
	}

	req, ok := httputil.DecodeAndPrepare[BulkImportRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.BulkImport(ctx, service.BulkImportInput{
		Rows:      req.Data,
		Category:  id.Category(req.Category),
		Operation: service.ImportOperation(req.Operation),
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "bulk import failed",
			"request_id", requestID,
			"rows", len(req.Data),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "bulk import processed",
		"request_id", requestID,
		"batch_id", result.BatchID.String(),
		"total_rows", result.TotalRows,
		"errors", result.ErrorCount,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	status := http.StatusOK
	if !result.Success {
		status = http.StatusMultiStatus
	}
	httputil.WriteJSON(w, status, result)
}

// HandleImportMeta handles GET /import requests: the template schema or the
// indicator list, selected by the action query parameter.
func (h *Handler) HandleImportMeta(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireIdentity(w, r) {
		return
	}

	switch action := r.URL.Query().Get("action"); action {
	case "template":
		httputil.WriteJSON(w, http.StatusOK, importTemplate())
	case "indicators":
		role := requestcontext.Role(ctx)
		category := id.Category(r.URL.Query().Get("category"))
		indicators, err := h.catalog.ListVisible(ctx, role, category)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, FromIndicators(indicators))
	default:
		httputil.WriteError(w, dErrors.Newf(dErrors.CodeBadRequest, "unknown action: %q", action))
	}
}

// HandleListDataPoints handles GET /indicators/{id}/datapoints requests.
func (h *Handler) HandleListDataPoints(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireIdentity(w, r) {
		return
	}
	indicatorID, err := id.ParseIndicatorID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	points, err := h.service.ListByIndicator(ctx, indicatorID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDataPoints(points))
}
