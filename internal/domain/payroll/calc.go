package payroll

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"timesheets/internal/domain/registry"
	"timesheets/internal/domain/timesheet"
)

type period struct{ month, year int }

var workingDaysCache sync.Map

// WorkingDaysInMonth counts the non-weekend days of a month. Holidays are
// included.
func WorkingDaysInMonth(month, year int) int {
	key := period{month, year}
	if v, ok := workingDaysCache.Load(key); ok {
		return v.(int)
	}
	count := 0
	days := timesheet.DaysInMonth(month, year)
	for d := 1; d <= days; d++ {
		if !timesheet.IsWeekend(time.Date(year, time.Month(month), d, 0, 0, 0, 0, time.UTC)) {
			count++
		}
	}
	workingDaysCache.Store(key, count)
	return count
}

// Calculate computes gross, TDS and net for one timesheet. A profile with
// no rate for its pay type yields zero amounts flagged Incomplete. The
// whole monthly paid-leave allowance is available to the sheet; use
// ContractorMonth or PaidLeaveByProject when a contractor has several.
func Calculate(ts timesheet.Timesheet, profile registry.PayProfile) Earnings {
	return CalculateWithAllowance(ts, profile, profile.PaidLeaveAllowance())
}

// CalculateWithAllowance is Calculate with the paid leave capped at
// allowance instead of the profile's full monthly figure.
func CalculateWithAllowance(ts timesheet.Timesheet, profile registry.PayProfile, allowance int) Earnings {
	totals := ts.EffectiveTotals()
	paidLeave := max(min(totals.TotalLeaves, allowance), 0)

	e := Earnings{
		ContractorID:    ts.ContractorID,
		ProjectID:       ts.ProjectID,
		Month:           ts.Month,
		Year:            ts.Year,
		PayType:         profile.PayType,
		WorkingDays:     decimal.NewFromFloat(totals.TotalWorkingDays),
		Leaves:          totals.TotalLeaves,
		PaidLeaveDays:   paidLeave,
		UnpaidLeaveDays: totals.TotalLeaves - paidLeave,
		GrossAmount:     decimal.Zero,
		TDSAmount:       decimal.Zero,
		NetAmount:       decimal.Zero,
	}
	e.PayableDays = e.WorkingDays.Add(decimal.NewFromInt(int64(paidLeave)))

	rate, ok := profile.ActiveRate()
	if !ok {
		e.Incomplete = true
		e.Calculation = "pay profile incomplete"
		return e
	}
	e.Rate = rate

	switch profile.PayType {
	case registry.PayTypeDaily:
		e.GrossAmount = rate.Mul(e.PayableDays).Round(2)
		e.Calculation = fmt.Sprintf("%s x %s days = %s",
			rate.StringFixed(2), e.PayableDays.String(), e.GrossAmount.StringFixed(2))
	case registry.PayTypeMonthly:
		e.WorkingDaysInMonth = WorkingDaysInMonth(ts.Month, ts.Year)
		e.GrossAmount = rate.Mul(e.PayableDays).Div(decimal.NewFromInt(int64(e.WorkingDaysInMonth))).Round(2)
		e.Calculation = fmt.Sprintf("%s x %s / %d days = %s",
			rate.StringFixed(2), e.PayableDays.String(), e.WorkingDaysInMonth, e.GrossAmount.StringFixed(2))
	}

	e.TDSAmount = e.GrossAmount.Mul(TDSRate).Round(0)
	if e.TDSAmount.IsNegative() {
		e.TDSAmount = decimal.Zero
	}
	e.NetAmount = e.GrossAmount.Sub(e.TDSAmount)
	return e
}

// ContractorMonth computes earnings per project timesheet and the
// contractor-month sum. All timesheets are expected to share a period.
func ContractorMonth(contractorID string, month, year int, sheets []timesheet.Timesheet, profile registry.PayProfile) MonthEarnings {
	out := MonthEarnings{
		ContractorID: contractorID,
		Month:        month,
		Year:         year,
		Projects:     make([]Earnings, 0, len(sheets)),
		WorkingDays:  decimal.Zero,
		GrossAmount:  decimal.Zero,
		TDSAmount:    decimal.Zero,
		NetAmount:    decimal.Zero,
	}
	if len(sheets) == 0 {
		_, ok := profile.ActiveRate()
		out.Incomplete = !ok
	}
	allowances := PaidLeaveByProject(sheets, profile.PaidLeaveAllowance())
	for _, ts := range sheets {
		e := CalculateWithAllowance(ts, profile, allowances[ts.ProjectID])
		out.Projects = append(out.Projects, e)
		out.WorkingDays = out.WorkingDays.Add(e.WorkingDays)
		out.PaidLeaveDays += e.PaidLeaveDays
		out.GrossAmount = out.GrossAmount.Add(e.GrossAmount)
		out.TDSAmount = out.TDSAmount.Add(e.TDSAmount)
		out.NetAmount = out.NetAmount.Add(e.NetAmount)
		out.Incomplete = out.Incomplete || e.Incomplete
	}
	return out
}

// PaidLeaveByProject spreads one month's paid-leave allowance over a
// contractor's sheets for that month, keyed by project. Sheets draw from
// the allowance in project id order until it runs out.
func PaidLeaveByProject(sheets []timesheet.Timesheet, allowance int) map[string]int {
	ordered := slices.Clone(sheets)
	slices.SortStableFunc(ordered, func(a, b timesheet.Timesheet) int {
		return cmp.Compare(a.ProjectID, b.ProjectID)
	})
	out := make(map[string]int, len(ordered))
	remaining := max(allowance, 0)
	for _, ts := range ordered {
		taken := min(ts.EffectiveTotals().TotalLeaves, remaining)
		out[ts.ProjectID] += taken
		remaining -= taken
	}
	return out
}
