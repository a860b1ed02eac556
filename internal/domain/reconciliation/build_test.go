package reconciliation_test

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timesheets/internal/domain/reconciliation"
	"timesheets/internal/domain/registry"
	"timesheets/internal/domain/timesheet"
)

func nd(v int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(v))
}

var (
	acme     = &registry.Client{ID: "cl1", Name: "Acme"}
	globex   = &registry.Client{ID: "cl2", Name: "Globex"}
	atlas    = &registry.Project{ID: "p1", Name: "Atlas", ClientID: "cl1", Active: true}
	borealis = &registry.Project{ID: "p2", Name: "Borealis", ClientID: "cl2", Active: true}

	asha = &registry.Contractor{
		ID: "c1", EmployeeCode: "EMP-1", Name: "Asha",
		PayProfile: registry.PayProfile{PayType: registry.PayTypeDaily, DailyRate: nd(1000), ClientBillingRate: nd(1500)},
	}
	ravi = &registry.Contractor{
		ID: "c2", Name: "Ravi",
		PayProfile: registry.PayProfile{PayType: registry.PayTypeMonthly, MonthlyRate: nd(60000), ClientBillingRate: nd(3000)},
	}
)

func approved(id, contractor, project string, days float64) timesheet.Timesheet {
	return timesheet.Timesheet{
		ID:           id,
		ContractorID: contractor,
		ProjectID:    project,
		Month:        10,
		Year:         2025,
		Status:       timesheet.StatusApproved,
		Totals:       timesheet.Totals{TotalHours: days * 8, TotalWorkingDays: days},
	}
}

func sampleLines() []reconciliation.Line {
	return []reconciliation.Line{
		{Timesheet: approved("t1", "c1", "p1", 20), Contractor: asha, Project: atlas, Client: acme},
		{Timesheet: approved("t2", "c1", "p2", 2.5), Contractor: asha, Project: borealis, Client: globex},
		{Timesheet: approved("t3", "c2", "p1", 20), Contractor: ravi, Project: atlas, Client: acme},
		{Timesheet: approved("t4", "c2", "p2", 0), Contractor: ravi, Project: borealis, Client: globex},
		{Timesheet: approved("t5", "c9", "p1", 5), Project: atlas, Client: acme},
	}
}

func TestBuildComputesMargins(t *testing.T) {
	report := reconciliation.Build(10, 2025, sampleLines())

	require.Len(t, report.Rows, 3)
	assert.Equal(t, 1, report.Omitted)
	assert.Equal(t, 1, report.Skipped)

	// sorted by client, project, contractor
	first := report.Rows[0]
	assert.Equal(t, "Acme", first.ClientName)
	assert.Equal(t, "Asha", first.ContractorName)
	assert.Equal(t, "19600.00", first.ContractorPayable.StringFixed(2))
	assert.Equal(t, "30000.00", first.ClientBillable.StringFixed(2))
	assert.Equal(t, "10400.00", first.Margin.StringFixed(2))

	second := report.Rows[1]
	assert.Equal(t, "Ravi", second.ContractorName)
	assert.Equal(t, "51130.91", second.ContractorPayable.StringFixed(2))
	assert.Equal(t, "60000.00", second.ClientBillable.StringFixed(2))
	assert.Equal(t, "8869.09", second.Margin.StringFixed(2))
}

func TestBuildTotalsEqualColumnSums(t *testing.T) {
	report := reconciliation.Build(10, 2025, sampleLines())

	payable, billable, margin, days := decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
	for _, r := range report.Rows {
		payable = payable.Add(r.ContractorPayable)
		billable = billable.Add(r.ClientBillable)
		margin = margin.Add(r.Margin)
		days = days.Add(r.WorkingDays)
	}
	assert.True(t, payable.Equal(report.Totals.ContractorPayable))
	assert.True(t, billable.Equal(report.Totals.ClientBillable))
	assert.True(t, margin.Equal(report.Totals.Margin))
	assert.True(t, days.Equal(report.Totals.WorkingDays))
	assert.True(t, report.Totals.ClientBillable.Sub(report.Totals.ContractorPayable).Equal(report.Totals.Margin))
}

func TestBuildEmpty(t *testing.T) {
	report := reconciliation.Build(10, 2025, nil)
	assert.Empty(t, report.Rows)
	assert.True(t, report.Totals.ContractorPayable.IsZero())
	assert.True(t, report.Totals.ClientBillable.IsZero())
	assert.True(t, report.Totals.Margin.IsZero())
	assert.True(t, report.Totals.WorkingDays.IsZero())
	assert.Zero(t, report.Skipped)
}

func TestBuildIgnoresOtherPeriods(t *testing.T) {
	line := sampleLines()[0]
	line.Timesheet.Month = 9
	report := reconciliation.Build(10, 2025, []reconciliation.Line{line})
	assert.Empty(t, report.Rows)
}

func TestWritePayrollCSV(t *testing.T) {
	report := reconciliation.Build(10, 2025, sampleLines())
	var buf bytes.Buffer
	require.NoError(t, reconciliation.WritePayrollCSV(&buf, report))

	want := "Employee ID,Name,Working Days,Rate,Total Payable\n" +
		"EMP-1,Asha,22.5,1000.00,22050.00\n" +
		"c2,Ravi,20,60000.00,51130.91\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteInvoiceCSV(t *testing.T) {
	report := reconciliation.Build(10, 2025, sampleLines())
	var buf bytes.Buffer
	require.NoError(t, reconciliation.WriteInvoiceCSV(&buf, report))

	want := "Client,Project,Contractor,Working Days,Billing Rate,Billable Amount\n" +
		"Acme,Atlas,Asha,20,1500.00,30000.00\n" +
		"Acme,Atlas,Ravi,20,3000.00,60000.00\n" +
		"Globex,Borealis,Asha,2.5,1500.00,3750.00\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSVEmptyReportHasHeaderOnly(t *testing.T) {
	report := reconciliation.Build(10, 2025, nil)
	var buf bytes.Buffer
	require.NoError(t, reconciliation.WriteInvoiceCSV(&buf, report))
	assert.Equal(t, "Client,Project,Contractor,Working Days,Billing Rate,Billable Amount\n", buf.String())
}

func TestFileNames(t *testing.T) {
	assert.Equal(t, "payroll_10_2025.csv", reconciliation.PayrollFileName(10, 2025))
	assert.Equal(t, "invoice_3_2026.csv", reconciliation.InvoiceFileName(3, 2026))
}

func TestBuildCapsPaidLeavePerContractorMonth(t *testing.T) {
	withLeave := *asha
	withLeave.PayProfile.PaidLeavePerMonth = 1
	first := approved("t1", "c1", "p1", 20)
	first.TotalLeaves = 1
	second := approved("t2", "c1", "p2", 3)
	second.TotalLeaves = 1

	report := reconciliation.Build(10, 2025, []reconciliation.Line{
		{Timesheet: second, Contractor: &withLeave, Project: borealis, Client: globex},
		{Timesheet: first, Contractor: &withLeave, Project: atlas, Client: acme},
	})

	require.Len(t, report.Rows, 2)
	assert.Equal(t, "20580.00", report.Rows[0].ContractorPayable.StringFixed(2))
	assert.Equal(t, "2940.00", report.Rows[1].ContractorPayable.StringFixed(2))
	assert.Equal(t, "23520.00", report.Totals.ContractorPayable.StringFixed(2))
}
