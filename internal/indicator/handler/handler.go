// Package handler wires catalog endpoints to the indicator service.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"satudata/internal/indicator/models"
	id "satudata/pkg/domain"
	dErrors "satudata/pkg/domain-errors"
	"satudata/pkg/platform/httputil"
	"satudata/pkg/requestcontext"
)

// Service defines the interface for catalog operations.
type Service interface {
	ListVisible(ctx context.Context, role id.Role, category id.Category) ([]*models.Indicator, error)
	Resolve(ctx context.Context, indicatorID id.IndicatorID) (*models.Indicator, error)
	Deactivate(ctx context.Context, indicatorID id.IndicatorID) (*models.Indicator, error)
}

// Handler wires catalog endpoints to the indicator service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a catalog handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts catalog endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/indicators", h.HandleList)
	r.Get("/indicators/{id}", h.HandleGet)
	r.Post("/indicators/{id}/deactivate", h.HandleDeactivate)
}

// IndicatorResponse is the HTTP shape of one catalog entry.
type IndicatorResponse struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Sequence    int       `json:"sequence"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Subcategory string    `json:"subcategory,omitempty"`
	Unit        string    `json:"unit,omitempty"`
	PeriodType  string    `json:"period_type"`
	Active      bool      `json:"active"`
	Description string    `json:"description,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func fromIndicator(indicator *models.Indicator) *IndicatorResponse {
	return &IndicatorResponse{
		ID:          indicator.ID.String(),
		Code:        indicator.Code,
		Sequence:    indicator.Sequence,
		Name:        indicator.Name,
		Category:    string(indicator.Category),
		Subcategory: indicator.Subcategory,
		Unit:        indicator.Unit,
		PeriodType:  string(indicator.PeriodType),
		Active:      indicator.Active,
		Description: indicator.Description,
		UpdatedAt:   indicator.UpdatedAt,
	}
}

func (h *Handler) requireIdentity(w http.ResponseWriter, r *http.Request) bool {
	if requestcontext.UserID(r.Context()) == (id.UserID{}) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return false
	}
	return true
}

// HandleList handles GET /indicators requests, scoped to the caller's role.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireIdentity(w, r) {
		return
	}
	role := requestcontext.Role(ctx)
	category := id.Category(r.URL.Query().Get("category"))
	indicators, err := h.service.ListVisible(ctx, role, category)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]*IndicatorResponse, 0, len(indicators))
	for _, indicator := range indicators {
		out = append(out, fromIndicator(indicator))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// HandleGet handles GET /indicators/{id} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireIdentity(w, r) {
		return
	}
	indicatorID, err := id.ParseIndicatorID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	indicator, err := h.service.Resolve(ctx, indicatorID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromIndicator(indicator))
}

// HandleDeactivate handles POST /indicators/{id}/deactivate requests.
func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	if !h.requireIdentity(w, r) {
		return
	}
	indicatorID, err := id.ParseIndicatorID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	indicator, err := h.service.Deactivate(ctx, indicatorID)
	if err != nil {
		h.logger.WarnContext(ctx, "indicator deactivation failed",
			"request_id", requestID,
			"indicator_id", indicatorID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromIndicator(indicator))
}
