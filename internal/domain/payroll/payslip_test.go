package payroll_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timesheets/internal/domain/payroll"
	"timesheets/internal/domain/registry"
	"timesheets/internal/domain/timesheet"
)

func TestMaskAccount(t *testing.T) {
	assert.Equal(t, "XXXXXXXX9012", payroll.MaskAccount("123456789012"))
	assert.Equal(t, "XXXX5678", payroll.MaskAccount("1234 5678"))
	assert.Equal(t, "123", payroll.MaskAccount("123"))
	assert.Equal(t, "", payroll.MaskAccount(""))
}

func sampleContractor() registry.Contractor {
	joined := time.Date(2023, 4, 3, 0, 0, 0, 0, time.UTC)
	return registry.Contractor{
		ID:            "c1",
		EmployeeCode:  "EMP-007",
		Name:          "Asha Rao",
		JoinDate:      &joined,
		Designation:   "Engineer",
		Department:    "Platform",
		BankName:      "HDFC",
		AccountNumber: "001122334455",
		PAN:           "ABCDE1234F",
		PayProfile:    dailyProfile(1000, 2),
	}
}

func TestBuildPayslip(t *testing.T) {
	sheet := approvedSheet(6, 2025, timesheet.Totals{TotalWorkingDays: 20})
	earnings := payroll.ContractorMonth("c1", 6, 2025, []timesheet.Timesheet{sheet}, sampleContractor().PayProfile)

	p := payroll.BuildPayslip(payroll.Company{Name: "Acme", Address: "Bengaluru"}, sampleContractor(), earnings)

	assert.Equal(t, "Payslip for June 2025", p.Title)
	assert.Equal(t, "Asha Rao", p.Employee.Name)
	assert.Equal(t, "03 Apr 2023", p.Employee.JoinDate)
	assert.Equal(t, "XXXXXXXX4455", p.Employee.AccountNumber)
	assert.Equal(t, "daily", p.Employee.PayType)
	assert.Equal(t, "20", p.Employee.WorkDays)
	require.Len(t, p.Earnings, 1)
	require.Len(t, p.Deductions, 1)
	assertAmount(t, "400.00", p.Deductions[0].Amount)
	assertAmount(t, "19600.00", p.NetAmount)
	assert.Equal(t, "Nineteen Thousand Six Hundred Rupees Only", p.AmountInWords)
	assert.NotEmpty(t, p.Disclaimer)
}

func TestBuildPayslipSplitsProjects(t *testing.T) {
	a := approvedSheet(6, 2025, timesheet.Totals{TotalWorkingDays: 10})
	b := approvedSheet(6, 2025, timesheet.Totals{TotalWorkingDays: 5})
	b.ProjectID = "p2"
	earnings := payroll.ContractorMonth("c1", 6, 2025, []timesheet.Timesheet{a, b}, sampleContractor().PayProfile)

	earnings.Projects[0].ProjectName = "Atlas"
	earnings.Projects[1].ProjectName = "Borealis"

	p := payroll.BuildPayslip(payroll.Company{}, sampleContractor(), earnings)
	require.Len(t, p.Earnings, 2)
	assert.Equal(t, "Basic Pay - Atlas", p.Earnings[0].Label)
	assert.Equal(t, "Basic Pay - Borealis", p.Earnings[1].Label)
	assertAmount(t, "15000.00", p.GrossAmount)
}

func TestFormatAmountKeepsTwoDecimals(t *testing.T) {
	assert.Contains(t, payroll.FormatAmount(decimal.RequireFromString("1234567.5")), "567.50")
	assert.Contains(t, payroll.FormatAmount(decimal.Zero), "0.00")
}

func TestRenderPDF(t *testing.T) {
	sheet := approvedSheet(6, 2025, timesheet.Totals{TotalWorkingDays: 20})
	earnings := payroll.ContractorMonth("c1", 6, 2025, []timesheet.Timesheet{sheet}, sampleContractor().PayProfile)
	p := payroll.BuildPayslip(payroll.Company{Name: "Acme", Address: "Bengaluru"}, sampleContractor(), earnings)

	var buf bytes.Buffer
	require.NoError(t, payroll.RenderPDF(&buf, p))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}
