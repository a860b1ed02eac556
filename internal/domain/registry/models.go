package registry

import (
	"time"

	"github.com/shopspring/decimal"
)

type PayType string

const (
	PayTypeDaily   PayType = "daily"
	PayTypeMonthly PayType = "monthly"
)

// MaxPaidLeavePerMonth caps the configurable paid leave allowance.
const MaxPaidLeavePerMonth = 3

// PayProfile holds both rates; only the one matching PayType is used.
type PayProfile struct {
	PayType           PayType             `json:"payType"`
	DailyRate         decimal.NullDecimal `json:"dailyRate"`
	MonthlyRate       decimal.NullDecimal `json:"monthlyRate"`
	PaidLeavePerMonth int                 `json:"paidLeavePerMonth"`
	ClientBillingRate decimal.NullDecimal `json:"clientBillingRate"`
}

// ActiveRate returns the rate for the profile's pay type, or false when
// the profile is not configured for it.
func (p PayProfile) ActiveRate() (decimal.Decimal, bool) {
	switch p.PayType {
	case PayTypeDaily:
		return p.DailyRate.Decimal, p.DailyRate.Valid
	case PayTypeMonthly:
		return p.MonthlyRate.Decimal, p.MonthlyRate.Valid
	}
	return decimal.Zero, false
}

// PaidLeaveAllowance clamps the configured allowance into [0, MaxPaidLeavePerMonth].
func (p PayProfile) PaidLeaveAllowance() int {
	switch {
	case p.PaidLeavePerMonth < 0:
		return 0
	case p.PaidLeavePerMonth > MaxPaidLeavePerMonth:
		return MaxPaidLeavePerMonth
	}
	return p.PaidLeavePerMonth
}

type Contractor struct {
	ID            string     `json:"id"`
	TenantID      string     `json:"tenantId"`
	EmployeeCode  string     `json:"employeeCode"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	JoinDate      *time.Time `json:"joinDate,omitempty"`
	Designation   string     `json:"designation"`
	Department    string     `json:"department"`
	BankName      string     `json:"bankName"`
	AccountNumber string     `json:"-"`
	PAN           string     `json:"pan"`
	PayProfile    PayProfile `json:"payProfile"`
}

type Project struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ClientID string `json:"clientId"`
	Active   bool   `json:"active"`
}

type Client struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ContactName  string `json:"contactName"`
	ContactEmail string `json:"contactEmail"`
	Currency     string `json:"currency"`
}
