package reconciliation

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"timesheets/internal/domain/payroll"
	"timesheets/internal/domain/timesheet"
)

func zeroTotals() Totals {
	return Totals{
		WorkingDays:       decimal.Zero,
		GrossAmount:       decimal.Zero,
		TDSAmount:         decimal.Zero,
		ContractorPayable: decimal.Zero,
		ClientBillable:    decimal.Zero,
		Margin:            decimal.Zero,
	}
}

// Build reconciles contractor payable (net pay) against client billable
// amounts. Lines outside the period are ignored.
func Build(month, year int, lines []Line) Report {
	report := Report{Month: month, Year: year, Rows: []Row{}, Totals: zeroTotals()}
	allowances := leaveAllowances(month, year, lines)
	for _, line := range lines {
		ts := line.Timesheet
		if ts.Month != month || ts.Year != year {
			continue
		}
		if line.Contractor == nil || line.Project == nil || line.Client == nil {
			report.Skipped++
			continue
		}
		allowance := allowances[ts.ContractorID][ts.ProjectID]
		earnings := payroll.CalculateWithAllowance(ts, line.Contractor.PayProfile, allowance)
		if earnings.WorkingDays.IsZero() {
			report.Omitted++
			continue
		}

		billingRate := line.Contractor.PayProfile.ClientBillingRate.Decimal
		billable := billingRate.Mul(earnings.WorkingDays).Round(2)
		row := Row{
			TimesheetID:       ts.ID,
			ContractorID:      line.Contractor.ID,
			EmployeeCode:      line.Contractor.EmployeeCode,
			ContractorName:    line.Contractor.Name,
			ProjectID:         line.Project.ID,
			ProjectName:       line.Project.Name,
			ClientID:          line.Client.ID,
			ClientName:        line.Client.Name,
			PayType:           earnings.PayType,
			PayRate:           earnings.Rate,
			WorkingDays:       earnings.WorkingDays,
			GrossAmount:       earnings.GrossAmount,
			TDSAmount:         earnings.TDSAmount,
			ContractorPayable: earnings.NetAmount,
			BillingRate:       billingRate,
			ClientBillable:    billable,
			Margin:            billable.Sub(earnings.NetAmount),
			Incomplete:        earnings.Incomplete,
		}
		report.Rows = append(report.Rows, row)

		t := &report.Totals
		t.WorkingDays = t.WorkingDays.Add(row.WorkingDays)
		t.GrossAmount = t.GrossAmount.Add(row.GrossAmount)
		t.TDSAmount = t.TDSAmount.Add(row.TDSAmount)
		t.ContractorPayable = t.ContractorPayable.Add(row.ContractorPayable)
		t.ClientBillable = t.ClientBillable.Add(row.ClientBillable)
		t.Margin = t.Margin.Add(row.Margin)
	}

	slices.SortStableFunc(report.Rows, func(a, b Row) int {
		return cmp.Or(
			cmp.Compare(a.ClientName, b.ClientName),
			cmp.Compare(a.ProjectName, b.ProjectName),
			cmp.Compare(a.ContractorName, b.ContractorName),
		)
	})
	return report
}

// leaveAllowances applies each contractor's monthly paid-leave allowance
// once across all of their sheets in the period, keyed by contractor then
// project.
func leaveAllowances(month, year int, lines []Line) map[string]map[string]int {
	sheets := map[string][]timesheet.Timesheet{}
	allowance := map[string]int{}
	for _, line := range lines {
		ts := line.Timesheet
		if line.Contractor == nil || ts.Month != month || ts.Year != year {
			continue
		}
		sheets[ts.ContractorID] = append(sheets[ts.ContractorID], ts)
		allowance[ts.ContractorID] = line.Contractor.PayProfile.PaidLeaveAllowance()
	}
	out := make(map[string]map[string]int, len(sheets))
	for id, group := range sheets {
		out[id] = payroll.PaidLeaveByProject(group, allowance[id])
	}
	return out
}
