package payrollhandler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"timesheets/internal/domain/auth"
	"timesheets/internal/domain/payroll"
	"timesheets/internal/transport/http/api"
	"timesheets/internal/transport/http/middleware"
	"timesheets/internal/transport/http/shared"
)

type Service interface {
	Settings(ctx context.Context, tenantID string) (payroll.Settings, error)
	UpdateSettings(ctx context.Context, tenantID string, settings payroll.Settings) (payroll.Settings, error)
	Earnings(ctx context.Context, tenantID, contractorID string, month, year int) (payroll.MonthEarnings, error)
	CurrentMonth(ctx context.Context, tenantID, contractorID string, now time.Time) (payroll.MonthEarnings, error)
	Disbursement(ctx context.Context, tenantID, contractorID string, now time.Time) (payroll.Disbursement, error)
	Payslip(ctx context.Context, tenantID, contractorID string, month, year int, asContractor bool) (payroll.Payslip, error)
}

type Handler struct {
	Service Service
	Perms   middleware.PermissionStore
	Now     func() time.Time
}

func NewHandler(service Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms, Now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermPayrollRead, h.Perms)
	payslips := middleware.RequirePermission(auth.PermPayslipRead, h.Perms)

	r.Route("/payroll", func(r chi.Router) {
		r.With(read).Get("/earnings", h.handleEarnings)
		r.With(read).Get("/current", h.handleCurrent)
		r.With(read).Get("/disbursement", h.handleDisbursement)
		r.With(read).Get("/settings", h.handleGetSettings)
		r.With(middleware.RequirePermission(auth.PermPayrollSettings, h.Perms)).Put("/settings", h.handleUpdateSettings)
		r.With(payslips).Get("/payslip", h.handlePayslip)
		r.With(payslips).Get("/payslip.pdf", h.handlePayslipPDF)
	})
}

// contractorParam resolves whose pay is requested. Contractors always get
// their own; other roles must name one unless optional is set.
func (h *Handler) contractorParam(w http.ResponseWriter, r *http.Request, user auth.UserContext, optional bool) (string, bool) {
	if user.IsContractor() {
		if user.ContractorID == "" {
			api.Fail(w, http.StatusForbidden, "forbidden", "no contractor profile linked to user", middleware.GetRequestID(r.Context()))
			return "", false
		}
		return user.ContractorID, true
	}
	id := r.URL.Query().Get("contractorId")
	if id == "" {
		if optional {
			return "", true
		}
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "contractorId", Reason: "is required"}})
		return "", false
	}
	allowed, err := h.Perms.HasPermission(r.Context(), user.RoleName, auth.PermPayrollReadOthers)
	if err != nil || !allowed {
		api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", middleware.GetRequestID(r.Context()))
		return "", false
	}
	return id, true
}

// period reads month and year, defaulting to the previous month.
func (h *Handler) period(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	now := h.Now()
	prev := time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, time.UTC)
	v := shared.NewValidator()
	month, year := shared.Period(r, v, int(prev.Month()), prev.Year())
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return 0, 0, false
	}
	return month, year, true
}

func (h *Handler) handleEarnings(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	contractorID, ok := h.contractorParam(w, r, user, false)
	if !ok {
		return
	}
	month, year, ok := h.period(w, r)
	if !ok {
		return
	}

	earnings, err := h.Service.Earnings(r.Context(), user.TenantID, contractorID, month, year)
	if err != nil {
		shared.FailError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, earnings, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCurrent(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	contractorID, ok := h.contractorParam(w, r, user, false)
	if !ok {
		return
	}

	earnings, err := h.Service.CurrentMonth(r.Context(), user.TenantID, contractorID, h.Now())
	if err != nil {
		shared.FailError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, earnings, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDisbursement(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	contractorID, ok := h.contractorParam(w, r, user, true)
	if !ok {
		return
	}

	d, err := h.Service.Disbursement(r.Context(), user.TenantID, contractorID, h.Now())
	if err != nil {
		shared.FailError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, d, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	settings, err := h.Service.Settings(r.Context(), user.TenantID)
	if err != nil {
		shared.FailError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, settings, middleware.GetRequestID(r.Context()))
}

type settingsPayload struct {
	DisbursementDay         *int  `json:"disbursementDay"`
	ShowPayslipToContractor *bool `json:"showPayslipToContractor"`
}

// handleUpdateSettings merges the supplied fields over the current settings.
func (h *Handler) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload settingsPayload
	if !shared.DecodeJSON(w, r, &payload, false, middleware.GetRequestID(r.Context())) {
		return
	}

	settings, err := h.Service.Settings(r.Context(), user.TenantID)
	if err != nil {
		shared.FailError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}
	if payload.DisbursementDay != nil {
		settings.DisbursementDay = *payload.DisbursementDay
	}
	if payload.ShowPayslipToContractor != nil {
		settings.ShowPayslipToContractor = *payload.ShowPayslipToContractor
	}

	saved, err := h.Service.UpdateSettings(r.Context(), user.TenantID, settings)
	if err != nil {
		shared.FailError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, saved, middleware.GetRequestID(r.Context()))
}

func (h *Handler) loadPayslip(w http.ResponseWriter, r *http.Request) (payroll.Payslip, string, bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return payroll.Payslip{}, "", false
	}
	contractorID, ok := h.contractorParam(w, r, user, false)
	if !ok {
		return payroll.Payslip{}, "", false
	}
	month, year, ok := h.period(w, r)
	if !ok {
		return payroll.Payslip{}, "", false
	}

	slip, err := h.Service.Payslip(r.Context(), user.TenantID, contractorID, month, year, user.IsContractor())
	if err != nil {
		shared.FailError(w, r, err, middleware.GetRequestID(r.Context()))
		return payroll.Payslip{}, "", false
	}
	return slip, contractorID, true
}

func (h *Handler) handlePayslip(w http.ResponseWriter, r *http.Request) {
	slip, _, ok := h.loadPayslip(w, r)
	if !ok {
		return
	}
	api.Success(w, slip, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handlePayslipPDF(w http.ResponseWriter, r *http.Request) {
	slip, contractorID, ok := h.loadPayslip(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := payroll.RenderPDF(&buf, slip); err != nil {
		shared.FailError(w, r, fmt.Errorf("render payslip: %w", err), middleware.GetRequestID(r.Context()))
		return
	}

	code := slip.Employee.EmployeeCode
	if code == "" {
		code = contractorID
	}
	api.Attachment(w, "application/pdf", fmt.Sprintf("payslip-%s-%04d-%02d.pdf", code, slip.Year, slip.Month), buf.Bytes())
}
