package reportshandler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timesheets/internal/domain/auth"
	"timesheets/internal/domain/reconciliation"
	"timesheets/internal/domain/timesheet"
	"timesheets/internal/transport/http/middleware"
)

type fakeReports struct {
	month, year int
}

func (f *fakeReports) Report(_ context.Context, _ string, month, year int) (reconciliation.Report, error) {
	if err := timesheet.ValidatePeriod(month, year); err != nil {
		return reconciliation.Report{}, err
	}
	f.month, f.year = month, year
	d := decimal.RequireFromString
	return reconciliation.Report{
		Month: month,
		Year:  year,
		Rows: []reconciliation.Row{{
			ContractorID:      "c1",
			EmployeeCode:      "EMP-1",
			ContractorName:    "Asha",
			ProjectName:       "Apollo",
			ClientName:        "Globex",
			PayRate:           d("1000"),
			WorkingDays:       d("20"),
			GrossAmount:       d("20000"),
			TDSAmount:         d("400"),
			ContractorPayable: d("19600"),
			BillingRate:       d("1500"),
			ClientBillable:    d("30000"),
			Margin:            d("10400"),
		}},
	}, nil
}

func serve(svc ReportSource, role, path string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := middleware.WithUser(req.Context(), auth.UserContext{UserID: "u1", TenantID: "t1", RoleName: role})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	h := NewHandler(svc, auth.StaticPermissions{})
	h.Now = func() time.Time { return time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC) }
	h.RegisterRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestReconciliationDefaultsToCurrentMonth(t *testing.T) {
	svc := &fakeReports{}
	rec := serve(svc, auth.RoleApprover, "/reports/reconciliation")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, svc.month)
	assert.Equal(t, 2024, svc.year)
	assert.Contains(t, rec.Body.String(), `"margin":"10400"`)
}

func TestReportsForbiddenForContractors(t *testing.T) {
	assert.Equal(t, http.StatusForbidden, serve(&fakeReports{}, auth.RoleContractor, "/reports/reconciliation").Code)
}

func TestReportsRejectBadPeriod(t *testing.T) {
	rec := serve(&fakeReports{}, auth.RoleAdmin, "/reports/reconciliation?month=0&year=2024")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "out_of_range")
}

func TestPayrollCSVDownload(t *testing.T) {
	rec := serve(&fakeReports{}, auth.RoleAdmin, "/reports/payroll.csv?month=2&year=2024")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=payroll_2_2024.csv", rec.Header().Get("Content-Disposition"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Employee ID,Name,Working Days,Rate,Total Payable", lines[0])
	assert.Equal(t, "EMP-1,Asha,20,1000.00,19600.00", lines[1])
}

func TestInvoiceCSVDownload(t *testing.T) {
	rec := serve(&fakeReports{}, auth.RoleAdmin, "/reports/invoice.csv?month=2&year=2024")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "attachment; filename=invoice_2_2024.csv", rec.Header().Get("Content-Disposition"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Client,Project,Contractor,Working Days,Billing Rate,Billable Amount", lines[0])
	assert.Equal(t, "Globex,Apollo,Asha,20,1500.00,30000.00", lines[1])
}
