package shared

import (
	"errors"
	"log/slog"
	"net/http"

	"timesheets/internal/domain/payroll"
	"timesheets/internal/domain/registry"
	"timesheets/internal/domain/timesheet"
	"timesheets/internal/transport/http/api"
)

type errorMapping struct {
	target error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{timesheet.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
	{timesheet.ErrDuplicatePeriod, http.StatusConflict, "duplicate_period"},
	{timesheet.ErrNotEditable, http.StatusConflict, "not_editable"},
	{timesheet.ErrMissingReason, http.StatusBadRequest, "missing_reason"},
	{timesheet.ErrOutOfRange, http.StatusBadRequest, "out_of_range"},
	{timesheet.ErrProjectNotAssigned, http.StatusUnprocessableEntity, "project_not_assigned"},
	{timesheet.ErrProjectInactive, http.StatusUnprocessableEntity, "project_inactive"},
	{timesheet.ErrNotFound, http.StatusNotFound, "not_found"},
	{payroll.ErrOutOfRange, http.StatusBadRequest, "out_of_range"},
	{payroll.ErrIncompletePayProfile, http.StatusUnprocessableEntity, "incomplete_pay_profile"},
	{payroll.ErrPayslipHidden, http.StatusForbidden, "payslip_hidden"},
	{registry.ErrContractorNotFound, http.StatusNotFound, "not_found"},
	{registry.ErrProjectNotFound, http.StatusNotFound, "not_found"},
	{registry.ErrClientNotFound, http.StatusNotFound, "not_found"},
}

// FailError writes the HTTP response for a domain error. Unknown errors are
// logged and reported as 500 without leaking their text.
func FailError(w http.ResponseWriter, r *http.Request, err error, requestID string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			api.Fail(w, m.status, m.code, err.Error(), requestID)
			return
		}
	}
	slog.ErrorContext(r.Context(), "request failed", "err", err, "path", r.URL.Path, "request_id", requestID)
	api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", requestID)
}
