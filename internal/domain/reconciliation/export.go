package reconciliation

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

type payrollRecord struct {
	EmployeeID   string `csv:"Employee ID"`
	Name         string `csv:"Name"`
	WorkingDays  string `csv:"Working Days"`
	Rate         string `csv:"Rate"`
	TotalPayable string `csv:"Total Payable"`
}

type invoiceRecord struct {
	Client         string `csv:"Client"`
	Project        string `csv:"Project"`
	Contractor     string `csv:"Contractor"`
	WorkingDays    string `csv:"Working Days"`
	BillingRate    string `csv:"Billing Rate"`
	BillableAmount string `csv:"Billable Amount"`
}

func PayrollFileName(month, year int) string {
	return fmt.Sprintf("payroll_%d_%d.csv", month, year)
}

func InvoiceFileName(month, year int) string {
	return fmt.Sprintf("invoice_%d_%d.csv", month, year)
}

func amount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// payrollRecords folds report rows into one record per contractor, in
// first-seen order.
func payrollRecords(report Report) []payrollRecord {
	type acc struct {
		record  payrollRecord
		days    decimal.Decimal
		payable decimal.Decimal
	}
	var order []string
	byContractor := map[string]*acc{}
	for _, row := range report.Rows {
		a, ok := byContractor[row.ContractorID]
		if !ok {
			id := row.EmployeeCode
			if id == "" {
				id = row.ContractorID
			}
			a = &acc{
				record:  payrollRecord{EmployeeID: id, Name: row.ContractorName, Rate: amount(row.PayRate)},
				days:    decimal.Zero,
				payable: decimal.Zero,
			}
			byContractor[row.ContractorID] = a
			order = append(order, row.ContractorID)
		}
		a.days = a.days.Add(row.WorkingDays)
		a.payable = a.payable.Add(row.ContractorPayable)
	}
	out := make([]payrollRecord, 0, len(order))
	for _, id := range order {
		a := byContractor[id]
		a.record.WorkingDays = a.days.String()
		a.record.TotalPayable = amount(a.payable)
		out = append(out, a.record)
	}
	return out
}

// WritePayrollCSV writes one row per contractor with working days in the
// period. The report is not modified.
func WritePayrollCSV(w io.Writer, report Report) error {
	return gocsv.Marshal(payrollRecords(report), w)
}

func WriteInvoiceCSV(w io.Writer, report Report) error {
	records := make([]invoiceRecord, 0, len(report.Rows))
	for _, row := range report.Rows {
		records = append(records, invoiceRecord{
			Client:         row.ClientName,
			Project:        row.ProjectName,
			Contractor:     row.ContractorName,
			WorkingDays:    row.WorkingDays.String(),
			BillingRate:    amount(row.BillingRate),
			BillableAmount: amount(row.ClientBillable),
		})
	}
	return gocsv.Marshal(records, w)
}
