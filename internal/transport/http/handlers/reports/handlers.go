package reportshandler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"timesheets/internal/domain/auth"
	"timesheets/internal/domain/reconciliation"
	"timesheets/internal/transport/http/api"
	"timesheets/internal/transport/http/middleware"
	"timesheets/internal/transport/http/shared"
)

type ReportSource interface {
	Report(ctx context.Context, tenantID string, month, year int) (reconciliation.Report, error)
}

type Handler struct {
	Service ReportSource
	Perms   middleware.PermissionStore
	Now     func() time.Time
}

func NewHandler(service ReportSource, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms, Now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermReportsRead, h.Perms)).Get("/reconciliation", h.handleReconciliation)
		r.With(middleware.RequirePermission(auth.PermReportsRead, h.Perms)).Get("/payroll.csv", h.handlePayrollCSV)
		r.With(middleware.RequirePermission(auth.PermReportsRead, h.Perms)).Get("/invoice.csv", h.handleInvoiceCSV)
	})
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (reconciliation.Report, bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return reconciliation.Report{}, false
	}
	now := h.Now()
	v := shared.NewValidator()
	month, year := shared.Period(r, v, int(now.Month()), now.Year())
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return reconciliation.Report{}, false
	}

	report, err := h.Service.Report(r.Context(), user.TenantID, month, year)
	if err != nil {
		shared.FailError(w, r, err, middleware.GetRequestID(r.Context()))
		return reconciliation.Report{}, false
	}
	return report, true
}

func (h *Handler) handleReconciliation(w http.ResponseWriter, r *http.Request) {
	report, ok := h.load(w, r)
	if !ok {
		return
	}
	api.Success(w, report, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePayrollCSV(w http.ResponseWriter, r *http.Request) {
	report, ok := h.load(w, r)
	if !ok {
		return
	}
	h.writeCSV(w, r, reconciliation.PayrollFileName(report.Month, report.Year), func(out io.Writer) error {
		return reconciliation.WritePayrollCSV(out, report)
	})
}

func (h *Handler) handleInvoiceCSV(w http.ResponseWriter, r *http.Request) {
	report, ok := h.load(w, r)
	if !ok {
		return
	}
	h.writeCSV(w, r, reconciliation.InvoiceFileName(report.Month, report.Year), func(out io.Writer) error {
		return reconciliation.WriteInvoiceCSV(out, report)
	})
}

// writeCSV buffers the export so a marshal failure still yields a JSON error.
func (h *Handler) writeCSV(w http.ResponseWriter, r *http.Request, filename string, write func(io.Writer) error) {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		shared.FailError(w, r, fmt.Errorf("export %s: %w", filename, err), middleware.GetRequestID(r.Context()))
		return
	}
	api.Attachment(w, "text/csv", filename, buf.Bytes())
}
