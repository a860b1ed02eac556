package timesheethandler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"timesheets/internal/domain/auth"
	"timesheets/internal/domain/timesheet"
	"timesheets/internal/transport/http/api"
	"timesheets/internal/transport/http/middleware"
	"timesheets/internal/transport/http/shared"
)

type Service interface {
	Create(ctx context.Context, tenantID, contractorID, projectID string, month, year int) (timesheet.Timesheet, error)
	Get(ctx context.Context, tenantID, id string) (timesheet.Timesheet, error)
	Sheet(ctx context.Context, tenantID, contractorID, projectID string, month, year int) (timesheet.Timesheet, bool, error)
	List(ctx context.Context, tenantID string, filter timesheet.Filter, limit, offset int) (timesheet.ListResult, error)
	SaveEntries(ctx context.Context, tenantID, id string, entries []timesheet.Entry) (timesheet.Timesheet, error)
	Submit(ctx context.Context, tenantID, id string) (timesheet.Timesheet, error)
	Approve(ctx context.Context, tenantID, id string) (timesheet.Timesheet, error)
	Reject(ctx context.Context, tenantID, id, reason string) (timesheet.Timesheet, error)
	Revert(ctx context.Context, tenantID, id string) (timesheet.Timesheet, error)
	Delete(ctx context.Context, tenantID, id string) error
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
	read := middleware.RequirePermission(auth.PermTimesheetRead, h.Perms)
	write := middleware.RequirePermission(auth.PermTimesheetWrite, h.Perms)
	approve := middleware.RequirePermission(auth.PermTimesheetApprove, h.Perms)

	r.Route("/timesheets", func(r chi.Router) {
		r.With(read).Get("/", h.handleList)
		r.With(write).Post("/", h.handleCreate)
		r.With(read).Get("/sheet", h.handleSheet)
		r.With(read).Get("/{timesheetID}", h.handleGet)
		r.With(write).Put("/{timesheetID}/entries", h.handleSaveEntries)
		r.With(write).Post("/{timesheetID}/days/{day}/cycle", h.handleCycleDay)
		r.With(write).Put("/{timesheetID}/days/{day}", h.handleSetDayHours)
		r.With(write).Post("/{timesheetID}/submit", h.handleSubmit)
		r.With(approve).Post("/{timesheetID}/approve", h.handleApprove)
		r.With(approve).Post("/{timesheetID}/reject", h.handleReject)
		r.With(approve).Post("/{timesheetID}/revert", h.handleRevert)
		r.With(write).Delete("/{timesheetID}", h.handleDelete)
	})
}

// contractorScope returns the contractor a caller is pinned to, or the
// requested one for approvers and admins.
func contractorScope(user auth.UserContext, requested string) string {
	if user.IsContractor() {
		return user.ContractorID
	}
	return strings.TrimSpace(requested)
}

// load fetches a sheet and hides other contractors' sheets from contractors.
func (h *Handler) load(w http.ResponseWriter, r *http.Request, user auth.UserContext) (timesheet.Timesheet, bool) {
	requestID := middleware.GetRequestID(r.Context())
	t, err := h.Service.Get(r.Context(), user.TenantID, chi.URLParam(r, "timesheetID"))
	if err != nil {
		shared.FailError(w, r, err, requestID)
		return timesheet.Timesheet{}, false
	}
	if user.IsContractor() && t.ContractorID != user.ContractorID {
		shared.FailError(w, r, timesheet.ErrNotFound, requestID)
		return timesheet.Timesheet{}, false
	}
	return t, true
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	month, year := shared.Period(r, v, 0, 0)
	status := r.URL.Query().Get("status")
	v.Enum("status", status, []string{
		string(timesheet.StatusDraft),
		string(timesheet.StatusSubmitted),
		string(timesheet.StatusApproved),
		string(timesheet.StatusRejected),
	}, "must be draft, submitted, approved or rejected")
	page := shared.ParsePagination(r, v, 50, 200)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	filter := timesheet.Filter{
		ContractorID: contractorScope(user, r.URL.Query().Get("contractorId")),
		ProjectID:    r.URL.Query().Get("projectId"),
		Month:        month,
		Year:         year,
		Status:       timesheet.Status(strings.ToLower(strings.TrimSpace(status))),
	}
	result, err := h.Service.List(r.Context(), user.TenantID, filter, page.Limit, page.Offset)
	if err != nil {
		shared.FailError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}
	shared.SetTotal(w, result.Total)
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

type createPayload struct {
	ContractorID string `json:"contractorId"`
	ProjectID    string `json:"projectId"`
	Month        int    `json:"month"`
	Year         int    `json:"year"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload createPayload
	if !shared.DecodeJSON(w, r, &payload, false, middleware.GetRequestID(r.Context())) {
		return
	}
	payload.ContractorID = contractorScope(user, payload.ContractorID)

	v := shared.NewValidator()
	v.Required("contractorId", payload.ContractorID, "is required")
	v.Required("projectId", payload.ProjectID, "is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	t, err := h.Service.Create(r.Context(), user.TenantID, payload.ContractorID, payload.ProjectID, payload.Month, payload.Year)
	if err != nil {
		shared.FailError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, t, middleware.GetRequestID(r.Context()))
}

type sheetResponse struct {
	timesheet.Timesheet
	Persisted bool `json:"persisted"`
}

// handleSheet returns the sheet for a contractor, project and period,
// falling back to an unsaved skeleton. Month and year default to now.
func (h *Handler) handleSheet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	now := h.Now()
	v := shared.NewValidator()
	month, year := shared.Period(r, v, int(now.Month()), now.Year())
	contractorID := contractorScope(user, r.URL.Query().Get("contractorId"))
	projectID := r.URL.Query().Get("projectId")
	v.Required("contractorId", contractorID, "is required")
	v.Required("projectId", projectID, "is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	t, persisted, err := h.Service.Sheet(r.Context(), user.TenantID, contractorID, projectID, month, year)
	if err != nil {
		shared.FailError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, sheetResponse{Timesheet: t, Persisted: persisted}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	t, ok := h.load(w, r, user)
	if !ok {
		return
	}
	api.Success(w, t, middleware.GetRequestID(r.Context()))
}

type entryPayload struct {
	Date   string  `json:"date"`
	Hours  float64 `json:"hours"`
	Status string  `json:"status"`
}

type entriesPayload struct {
	Entries []entryPayload `json:"entries"`
}

func (h *Handler) handleSaveEntries(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	var payload entriesPayload
	if !shared.DecodeJSON(w, r, &payload, false, middleware.GetRequestID(r.Context())) {
		return
	}
	v := shared.NewValidator()
	entries := make([]timesheet.Entry, 0, len(payload.Entries))
	for i, e := range payload.Entries {
		date, ok := v.Date(fmt.Sprintf("entries[%d].date", i), e.Date)
		if !ok {
			continue
		}
		entries = append(entries, timesheet.Entry{
			Date:   date,
			Hours:  e.Hours,
			Status: timesheet.DayStatus(strings.ToLower(strings.TrimSpace(e.Status))),
		})
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	current, ok := h.load(w, r, user)
	if !ok {
		return
	}
	t, err := h.Service.SaveEntries(r.Context(), user.TenantID, current.ID, entries)
	if err != nil {
		shared.FailError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, t, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCycleDay(w http.ResponseWriter, r *http.Request) {
	h.editDay(w, r, func(t *timesheet.Timesheet, day int) bool {
		return t.CycleDay(day)
	})
}

type hoursPayload struct {
	Hours float64 `json:"hours"`
}

func (h *Handler) handleSetDayHours(w http.ResponseWriter, r *http.Request) {
	var payload hoursPayload
	if !shared.DecodeJSON(w, r, &payload, false, middleware.GetRequestID(r.Context())) {
		return
	}
	v := shared.NewValidator()
	v.Range("hours", payload.Hours, 0, timesheet.MaxHours)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}
	h.editDay(w, r, func(t *timesheet.Timesheet, day int) bool {
		return t.SetDayHours(day, payload.Hours)
	})
}

// editDay applies a single-day edit to a draft and persists the full
// entry list.
func (h *Handler) editDay(w http.ResponseWriter, r *http.Request, edit func(*timesheet.Timesheet, int) bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	day, err := shared.ParseDay(chi.URLParam(r, "day"))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_day", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}

	t, ok := h.load(w, r, user)
	if !ok {
		return
	}
	if !t.Editable() {
		shared.FailError(w, r, timesheet.ErrNotEditable, middleware.GetRequestID(r.Context()))
		return
	}
	if !edit(&t, day) {
		shared.FailError(w, r, fmt.Errorf("%w: day %d is not editable", timesheet.ErrOutOfRange, day), middleware.GetRequestID(r.Context()))
		return
	}

	saved, err := h.Service.SaveEntries(r.Context(), user.TenantID, t.ID, t.Entries)
	if err != nil {
		shared.FailError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, saved, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.Submit)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.Approve)
}

func (h *Handler) handleRevert(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.Revert)
}

type rejectPayload struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	var payload rejectPayload
	if !shared.DecodeJSON(w, r, &payload, true, middleware.GetRequestID(r.Context())) {
		return
	}
	h.transition(w, r, func(ctx context.Context, tenantID, id string) (timesheet.Timesheet, error) {
		return h.Service.Reject(ctx, tenantID, id, payload.Reason)
	})
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, tenantID, id string) (timesheet.Timesheet, error)) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	current, ok := h.load(w, r, user)
	if !ok {
		return
	}
	t, err := apply(r.Context(), user.TenantID, current.ID)
	if err != nil {
		shared.FailError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, t, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	current, ok := h.load(w, r, user)
	if !ok {
		return
	}
	if err := h.Service.Delete(r.Context(), user.TenantID, current.ID); err != nil {
		shared.FailError(w, r, err, middleware.GetRequestID(r.Context()))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
