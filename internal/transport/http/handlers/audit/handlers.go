package audithandler

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gocarina/gocsv"

	"timesheets/internal/domain/audit"
	"timesheets/internal/domain/auth"
	"timesheets/internal/transport/http/api"
	"timesheets/internal/transport/http/middleware"
	"timesheets/internal/transport/http/shared"
)

type EventReader interface {
	Count(ctx context.Context, tenantID string, filter audit.Filter) (int, error)
	List(ctx context.Context, tenantID string, filter audit.Filter, includeDetails bool, limit, offset int) ([]audit.Event, error)
}

type Handler struct {
	Service EventReader
	Perms   middleware.PermissionStore
}

func NewHandler(service EventReader, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/audit", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermAuditRead, h.Perms)).Get("/events", h.handleListEvents)
		r.With(middleware.RequirePermission(auth.PermAuditRead, h.Perms)).Get("/events/export", h.handleExportEvents)
	})
}

// filterFromQuery reads the event filters. from and to are inclusive
// calendar days.
func filterFromQuery(r *http.Request, v *shared.Validator) audit.Filter {
	q := r.URL.Query()
	filter := audit.Filter{
		Action:     q.Get("action"),
		EntityType: q.Get("entityType"),
		EntityID:   q.Get("entityId"),
		ActorUser:  q.Get("actorUserId"),
	}
	if raw := q.Get("from"); raw != "" {
		filter.Since, _ = v.Date("from", raw)
	}
	var to time.Time
	if raw := q.Get("to"); raw != "" {
		to, _ = v.Date("to", raw)
	}
	v.DateOrder("from", filter.Since, "to", to)
	if !to.IsZero() {
		filter.Until = to.AddDate(0, 0, 1)
	}
	return filter
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	page := shared.ParsePagination(r, v, 100, 500)
	filter := filterFromQuery(r, v)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	includeDetails := r.URL.Query().Get("includeDetails") == "true"
	total, err := h.Service.Count(r.Context(), user.TenantID, filter)
	if err != nil {
		slog.Warn("audit count failed", "err", err)
	}

	events, err := h.Service.List(r.Context(), user.TenantID, filter, includeDetails, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "audit_list_failed", "failed to list audit events", middleware.GetRequestID(r.Context()))
		return
	}
	if events == nil {
		events = []audit.Event{}
	}

	shared.SetTotal(w, total)
	api.Success(w, events, middleware.GetRequestID(r.Context()))
}

type exportRow struct {
	ID         string `csv:"id"`
	ActorID    string `csv:"actor_user_id"`
	Action     string `csv:"action"`
	EntityType string `csv:"entity_type"`
	EntityID   string `csv:"entity_id"`
	RequestID  string `csv:"request_id"`
	IP         string `csv:"ip"`
	CreatedAt  string `csv:"created_at"`
}

const exportLimit = 10000

func (h *Handler) handleExportEvents(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	filter := filterFromQuery(r, v)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	events, err := h.Service.List(r.Context(), user.TenantID, filter, false, exportLimit, 0)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "audit_export_failed", "failed to export audit events", middleware.GetRequestID(r.Context()))
		return
	}

	rows := make([]exportRow, 0, len(events))
	for _, evt := range events {
		rows = append(rows, exportRow{
			ID:         evt.ID,
			ActorID:    evt.ActorID,
			Action:     evt.Action,
			EntityType: evt.EntityType,
			EntityID:   evt.EntityID,
			RequestID:  evt.RequestID,
			IP:         evt.IP,
			CreatedAt:  evt.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	var buf bytes.Buffer
	if err := gocsv.Marshal(rows, &buf); err != nil {
		slog.Warn("audit export failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "audit_export_failed", "failed to export audit events", middleware.GetRequestID(r.Context()))
		return
	}
	api.Attachment(w, "text/csv", "audit-events.csv", buf.Bytes())
}
