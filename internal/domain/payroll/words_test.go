package payroll_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"timesheets/internal/domain/payroll"
)

func TestAmountInWords(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"0", "Zero Rupees Only"},
		{"100000", "One Lakh Rupees Only"},
		{"123456.50", "One Lakh Twenty Three Thousand Four Hundred and Fifty Six Rupees and Fifty Paise Only"},
		{"1500.75", "One Thousand Five Hundred Rupees and Seventy Five Paise Only"},
		{"0.5", "Zero Rupees and Fifty Paise Only"},
		{"19", "Nineteen Rupees Only"},
		{"40", "Forty Rupees Only"},
		{"100", "One Hundred Rupees Only"},
		{"1001", "One Thousand One Rupees Only"},
		{"12345678", "One Crore Twenty Three Lakh Forty Five Thousand Six Hundred and Seventy Eight Rupees Only"},
		{"1500000000", "One Hundred and Fifty Crore Rupees Only"},
		{"19599.999", "Nineteen Thousand Six Hundred Rupees Only"},
	}
	for _, tc := range tests {
		t.Run(tc.amount, func(t *testing.T) {
			assert.Equal(t, tc.want, payroll.AmountInWords(decimal.RequireFromString(tc.amount)))
		})
	}
}
