package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timesheets/internal/domain/payroll"
	"timesheets/internal/domain/timesheet"
	"timesheets/internal/transport/http/api"
)

func TestFailErrorMapsDomainErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("approve timesheet: %w", timesheet.ErrInvalidTransition), http.StatusConflict, "invalid_transition"},
		{timesheet.ErrDuplicatePeriod, http.StatusConflict, "duplicate_period"},
		{timesheet.ErrMissingReason, http.StatusBadRequest, "missing_reason"},
		{payroll.ErrOutOfRange, http.StatusBadRequest, "out_of_range"},
		{payroll.ErrPayslipHidden, http.StatusForbidden, "payslip_hidden"},
		{timesheet.ErrNotFound, http.StatusNotFound, "not_found"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		FailError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tc.err, "req-1")
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())

		var env api.Envelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
		require.NotNil(t, env.Error)
		assert.Equal(t, tc.code, env.Error.Code)
		assert.Equal(t, "req-1", env.RequestID)
	}
}

func TestFailErrorHidesInternalText(t *testing.T) {
	rec := httptest.NewRecorder()
	FailError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("pq: secret detail"), "")
	assert.NotContains(t, rec.Body.String(), "secret detail")
}

func TestPeriodDefaultsAndValidation(t *testing.T) {
	v := NewValidator()
	m, y := Period(httptest.NewRequest(http.MethodGet, "/?month=2", nil), v, 5, 2024)
	assert.Equal(t, 2, m)
	assert.Equal(t, 2024, y)
	assert.False(t, v.HasIssues())

	v = NewValidator()
	Period(httptest.NewRequest(http.MethodGet, "/?month=feb&year=x", nil), v, 5, 2024)
	issues := v.Issues()
	require.Len(t, issues, 2)
	assert.Equal(t, "month", issues[0].Field)
	assert.Equal(t, "year", issues[1].Field)
}

func TestValidatorRejectWritesDetails(t *testing.T) {
	v := NewValidator()
	v.Required("projectId", " ", "is required")
	rec := httptest.NewRecorder()
	assert.True(t, v.Reject(rec, "req-2"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"projectId"`)
	assert.Contains(t, rec.Body.String(), "validation_error")
}

func TestParsePagination(t *testing.T) {
	p := ParsePagination(httptest.NewRequest(http.MethodGet, "/?limit=500&offset=10", nil), nil, 50, 200)
	assert.Equal(t, Pagination{Limit: 200, Offset: 10}, p)

	v := NewValidator()
	p = ParsePagination(httptest.NewRequest(http.MethodGet, "/?limit=-1&offset=x", nil), v, 50, 200)
	assert.Equal(t, Pagination{Limit: 50, Offset: 0}, p)
	issues := v.Issues()
	require.Len(t, issues, 2)
	assert.Equal(t, "limit", issues[0].Field)
	assert.Equal(t, "offset", issues[1].Field)
}

func TestParseDateTruncatesToDay(t *testing.T) {
	got, err := ParseDate("2024-02-05T23:30:00-02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.February, 6, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseDate("2024-02-05")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.February, 5, 0, 0, 0, 0, time.UTC), got)

	_, err = ParseDate("05/02/2024")
	assert.Error(t, err)
}

func TestParseDay(t *testing.T) {
	day, err := ParseDay("29")
	require.NoError(t, err)
	assert.Equal(t, 29, day)

	for _, raw := range []string{"0", "32", "x", ""} {
		_, err := ParseDay(raw)
		assert.Error(t, err, raw)
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Hours float64 `json:"hours"`
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"hours":7.5}`))
	require.True(t, DecodeJSON(rec, req, &dst, false, "r"))
	assert.Equal(t, 7.5, dst.Hours)

	rec = httptest.NewRecorder()
	assert.True(t, DecodeJSON(rec, httptest.NewRequest(http.MethodPost, "/", http.NoBody), &dst, true, "r"))

	rec = httptest.NewRecorder()
	assert.False(t, DecodeJSON(rec, httptest.NewRequest(http.MethodPost, "/", http.NoBody), &dst, false, "r"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"hours":`+strings.Repeat("1", 64)+`}`))
	req.Body = http.MaxBytesReader(rec, req.Body, 16)
	assert.False(t, DecodeJSON(rec, req, &dst, false, "r"))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "payload_too_large")
}
