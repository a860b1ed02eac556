package payroll

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"timesheets/internal/domain/registry"
)

const payslipDisclaimer = "This is a computer generated payslip and does not require a signature."

type Company struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type PayslipEmployee struct {
	Name          string `json:"name"`
	EmployeeCode  string `json:"employeeCode"`
	JoinDate      string `json:"joinDate"`
	Designation   string `json:"designation"`
	Department    string `json:"department"`
	BankName      string `json:"bankName"`
	AccountNumber string `json:"accountNumber"`
	PAN           string `json:"pan"`
	PayType       string `json:"payType"`
	WorkDays      string `json:"workDays"`
	PaidLeave     int    `json:"paidLeave"`
}

type PayslipLine struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// Payslip is the content model of a monthly payslip. Renderers only lay it
// out.
type Payslip struct {
	Company         Company         `json:"company"`
	Title           string          `json:"title"`
	Month           int             `json:"month"`
	Year            int             `json:"year"`
	Employee        PayslipEmployee `json:"employee"`
	Earnings        []PayslipLine   `json:"earnings"`
	Deductions      []PayslipLine   `json:"deductions"`
	GrossAmount     decimal.Decimal `json:"grossAmount"`
	TotalDeductions decimal.Decimal `json:"totalDeductions"`
	NetAmount       decimal.Decimal `json:"netAmount"`
	AmountInWords   string          `json:"amountInWords"`
	Incomplete      bool            `json:"incomplete"`
	Disclaimer      string          `json:"disclaimer"`
}

// MaskAccount hides all but the last four characters of an account number.
func MaskAccount(account string) string {
	account = strings.Join(strings.Fields(account), "")
	if len(account) <= 4 {
		return account
	}
	return strings.Repeat("X", len(account)-4) + account[len(account)-4:]
}

func BuildPayslip(company Company, c registry.Contractor, earnings MonthEarnings) Payslip {
	period := time.Date(earnings.Year, time.Month(earnings.Month), 1, 0, 0, 0, 0, time.UTC)
	joinDate := ""
	if c.JoinDate != nil {
		joinDate = c.JoinDate.Format("02 Jan 2006")
	}

	basic := "Basic Pay"
	if c.PayProfile.PayType == registry.PayTypeMonthly {
		basic = "Monthly Salary (prorated)"
	}
	earningLines := []PayslipLine{{Label: basic, Amount: earnings.GrossAmount}}
	if len(earnings.Projects) > 1 {
		earningLines = earningLines[:0]
		for i, p := range earnings.Projects {
			label := fmt.Sprintf("%s (project %d)", basic, i+1)
			if p.ProjectName != "" {
				label = basic + " - " + p.ProjectName
			}
			earningLines = append(earningLines, PayslipLine{Label: label, Amount: p.GrossAmount})
		}
	}

	return Payslip{
		Company: company,
		Title:   "Payslip for " + period.Format("January 2006"),
		Month:   earnings.Month,
		Year:    earnings.Year,
		Employee: PayslipEmployee{
			Name:          c.Name,
			EmployeeCode:  c.EmployeeCode,
			JoinDate:      joinDate,
			Designation:   c.Designation,
			Department:    c.Department,
			BankName:      c.BankName,
			AccountNumber: MaskAccount(c.AccountNumber),
			PAN:           c.PAN,
			PayType:       string(c.PayProfile.PayType),
			WorkDays:      earnings.WorkingDays.String(),
			PaidLeave:     earnings.PaidLeaveDays,
		},
		Earnings:        earningLines,
		Deductions:      []PayslipLine{{Label: "TDS (2%)", Amount: earnings.TDSAmount}},
		GrossAmount:     earnings.GrossAmount,
		TotalDeductions: earnings.TDSAmount,
		NetAmount:       earnings.NetAmount,
		AmountInWords:   AmountInWords(earnings.NetAmount),
		Incomplete:      earnings.Incomplete,
		Disclaimer:      payslipDisclaimer,
	}
}

var amountPrinter = message.NewPrinter(language.MustParse("en-IN"))

// FormatAmount renders an amount with two decimals and Indian digit grouping.
func FormatAmount(d decimal.Decimal) string {
	return amountPrinter.Sprint(number.Decimal(d.Round(2).InexactFloat64(), number.Scale(2)))
}

// RenderPDF writes the payslip as a single A4 page.
func RenderPDF(w io.Writer, p Payslip) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(p.Title, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 9, p.Company.Name, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.MultiCell(0, 5, p.Company.Address, "", "C", false)
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, p.Title, "", 1, "C", false, 0, "")
	pdf.Ln(4)

	e := p.Employee
	grid := [][4]string{
		{"Employee", fmt.Sprintf("%s (%s)", e.Name, e.EmployeeCode), "Join Date", e.JoinDate},
		{"Designation", e.Designation, "Department", e.Department},
		{"Bank", e.BankName, "Account No.", e.AccountNumber},
		{"PAN", e.PAN, "Pay Type", e.PayType},
		{"Work Days", e.WorkDays, "Paid Leave", fmt.Sprintf("%d", e.PaidLeave)},
	}
	for _, row := range grid {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(30, 7, row[0], "1", 0, "", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(65, 7, row[1], "1", 0, "", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(30, 7, row[2], "1", 0, "", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(65, 7, row[3], "1", 1, "", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(235, 235, 235)
	pdf.CellFormat(65, 7, "Earnings", "1", 0, "", true, 0, "")
	pdf.CellFormat(30, 7, "Amount", "1", 0, "R", true, 0, "")
	pdf.CellFormat(65, 7, "Deductions", "1", 0, "", true, 0, "")
	pdf.CellFormat(30, 7, "Amount", "1", 1, "R", true, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	rows := max(len(p.Earnings), len(p.Deductions))
	for i := 0; i < rows; i++ {
		label, amount := "", ""
		if i < len(p.Earnings) {
			label, amount = p.Earnings[i].Label, FormatAmount(p.Earnings[i].Amount)
		}
		pdf.CellFormat(65, 7, label, "1", 0, "", false, 0, "")
		pdf.CellFormat(30, 7, amount, "1", 0, "R", false, 0, "")
		label, amount = "", ""
		if i < len(p.Deductions) {
			label, amount = p.Deductions[i].Label, FormatAmount(p.Deductions[i].Amount)
		}
		pdf.CellFormat(65, 7, label, "1", 0, "", false, 0, "")
		pdf.CellFormat(30, 7, amount, "1", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(65, 7, "Gross Earnings", "1", 0, "", false, 0, "")
	pdf.CellFormat(30, 7, FormatAmount(p.GrossAmount), "1", 0, "R", false, 0, "")
	pdf.CellFormat(65, 7, "Total Deductions", "1", 0, "", false, 0, "")
	pdf.CellFormat(30, 7, FormatAmount(p.TotalDeductions), "1", 1, "R", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 12)
	net := FormatAmount(p.NetAmount)
	if p.Incomplete {
		net = "-"
	}
	pdf.CellFormat(0, 9, "Net Pay: "+net, "1", 1, "", true, 0, "")
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, p.AmountInWords, "", "", false)
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 8)
	pdf.MultiCell(0, 4, p.Disclaimer, "", "C", false)

	return pdf.Output(w)
}
