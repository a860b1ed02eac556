package payroll

import "errors"

var (
	ErrOutOfRange           = errors.New("disbursement day must be between 1 and 28")
	ErrIncompletePayProfile = errors.New("pay profile has no rate for its pay type")
	ErrPayslipHidden        = errors.New("payslips are not visible to contractors")
)
