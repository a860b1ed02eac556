package payroll

import (
	"time"

	"github.com/shopspring/decimal"

	"timesheets/internal/domain/registry"
)

// TDSRate is the flat tax withheld at source.
var TDSRate = decimal.RequireFromString("0.02")

const (
	MinDisbursementDay = 1
	MaxDisbursementDay = 28
)

// Earnings is the pay computed for one timesheet. It is derived on demand
// and never stored.
type Earnings struct {
	ContractorID       string           `json:"contractorId"`
	ProjectID          string           `json:"projectId,omitempty"`
	ProjectName        string           `json:"projectName,omitempty"`
	Month              int              `json:"month"`
	Year               int              `json:"year"`
	PayType            registry.PayType `json:"payType"`
	Rate               decimal.Decimal  `json:"rate"`
	WorkingDays        decimal.Decimal  `json:"workingDays"`
	Leaves             int              `json:"leaves"`
	PaidLeaveDays      int              `json:"paidLeaveDays"`
	UnpaidLeaveDays    int              `json:"unpaidLeaveDays"`
	PayableDays        decimal.Decimal  `json:"payableDays"`
	WorkingDaysInMonth int              `json:"workingDaysInMonth,omitempty"`
	GrossAmount        decimal.Decimal  `json:"grossAmount"`
	TDSAmount          decimal.Decimal  `json:"tdsAmount"`
	NetAmount          decimal.Decimal  `json:"netAmount"`
	Calculation        string           `json:"calculation"`
	Incomplete         bool             `json:"incomplete"`
}

// Err reports ErrIncompletePayProfile for earnings computed without a rate.
func (e Earnings) Err() error {
	if e.Incomplete {
		return ErrIncompletePayProfile
	}
	return nil
}

// MonthEarnings is a contractor's month: one entry per project plus the sum.
type MonthEarnings struct {
	ContractorID  string          `json:"contractorId"`
	Month         int             `json:"month"`
	Year          int             `json:"year"`
	Projects      []Earnings      `json:"projects"`
	WorkingDays   decimal.Decimal `json:"workingDays"`
	PaidLeaveDays int             `json:"paidLeaveDays"`
	GrossAmount   decimal.Decimal `json:"grossAmount"`
	TDSAmount     decimal.Decimal `json:"tdsAmount"`
	NetAmount     decimal.Decimal `json:"netAmount"`
	Incomplete    bool            `json:"incomplete"`
}

// Settings is the per-tenant payroll configuration.
type Settings struct {
	DisbursementDay         int       `json:"disbursementDay"`
	ShowPayslipToContractor bool      `json:"showPayslipToContractor"`
	UpdatedAt               time.Time `json:"updatedAt,omitzero"`
}

func (s Settings) Validate() error {
	if s.DisbursementDay < MinDisbursementDay || s.DisbursementDay > MaxDisbursementDay {
		return ErrOutOfRange
	}
	return nil
}

// Disbursement describes the next salary payment and the pay period it
// settles.
type Disbursement struct {
	Date          time.Time      `json:"date"`
	DaysRemaining int            `json:"daysRemaining"`
	Countdown     string         `json:"countdown"`
	PeriodMonth   int            `json:"periodMonth"`
	PeriodYear    int            `json:"periodYear"`
	Estimate      *MonthEarnings `json:"estimate,omitempty"`
}
