package reconciliation

import (
	"github.com/shopspring/decimal"

	"timesheets/internal/domain/registry"
	"timesheets/internal/domain/timesheet"
)

// Line is one approved timesheet with its registry records resolved. A nil
// record marks a row that cannot be reconciled.
type Line struct {
	Timesheet  timesheet.Timesheet
	Contractor *registry.Contractor
	Project    *registry.Project
	Client     *registry.Client
}

type Row struct {
	TimesheetID       string           `json:"timesheetId"`
	ContractorID      string           `json:"contractorId"`
	EmployeeCode      string           `json:"employeeCode"`
	ContractorName    string           `json:"contractorName"`
	ProjectID         string           `json:"projectId"`
	ProjectName       string           `json:"projectName"`
	ClientID          string           `json:"clientId"`
	ClientName        string           `json:"clientName"`
	PayType           registry.PayType `json:"payType"`
	PayRate           decimal.Decimal  `json:"payRate"`
	WorkingDays       decimal.Decimal  `json:"workingDays"`
	GrossAmount       decimal.Decimal  `json:"grossAmount"`
	TDSAmount         decimal.Decimal  `json:"tdsAmount"`
	ContractorPayable decimal.Decimal  `json:"contractorPayable"`
	BillingRate       decimal.Decimal  `json:"billingRate"`
	ClientBillable    decimal.Decimal  `json:"clientBillable"`
	Margin            decimal.Decimal  `json:"margin"`
	Incomplete        bool             `json:"incomplete"`
}

type Totals struct {
	WorkingDays       decimal.Decimal `json:"workingDays"`
	GrossAmount       decimal.Decimal `json:"grossAmount"`
	TDSAmount         decimal.Decimal `json:"tdsAmount"`
	ContractorPayable decimal.Decimal `json:"contractorPayable"`
	ClientBillable    decimal.Decimal `json:"clientBillable"`
	Margin            decimal.Decimal `json:"margin"`
}

// Report is the margin reconciliation for one period. Omitted counts rows
// dropped for having no working days; Skipped counts rows with missing
// registry data.
type Report struct {
	Month   int    `json:"month"`
	Year    int    `json:"year"`
	Rows    []Row  `json:"rows"`
	Totals  Totals `json:"totals"`
	Omitted int    `json:"omitted"`
	Skipped int    `json:"skipped"`
}
