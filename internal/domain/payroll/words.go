package payroll

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	unitWords = [...]string{
		"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
		"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
		"Seventeen", "Eighteen", "Nineteen",
	}
	tensWords = [...]string{
		"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
	}
)

// indian groupings, largest first
var scales = []struct {
	size int64
	name string
}{
	{10_000_000, "Crore"},
	{100_000, "Lakh"},
	{1_000, "Thousand"},
}

// AmountInWords spells an amount in the Indian numbering system with a
// paise remainder, e.g. "One Lakh Rupees Only".
func AmountInWords(amount decimal.Decimal) string {
	prefix := ""
	if amount.IsNegative() {
		prefix = "Minus "
		amount = amount.Abs()
	}
	amount = amount.Round(2)
	rupees := amount.IntPart()
	paise := amount.Sub(decimal.NewFromInt(rupees)).Shift(2).IntPart()

	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(numberWords(rupees))
	b.WriteString(" Rupees")
	if paise > 0 {
		b.WriteString(" and ")
		b.WriteString(numberWords(paise))
		b.WriteString(" Paise")
	}
	b.WriteString(" Only")
	return b.String()
}

func numberWords(n int64) string {
	if n == 0 {
		return "Zero"
	}
	var parts []string
	for _, s := range scales {
		if n >= s.size {
			parts = append(parts, numberWords(n/s.size)+" "+s.name)
			n %= s.size
		}
	}
	if n > 0 {
		parts = append(parts, belowThousand(int(n)))
	}
	return strings.Join(parts, " ")
}

func belowThousand(n int) string {
	hundreds, rest := n/100, n%100
	switch {
	case hundreds > 0 && rest > 0:
		return unitWords[hundreds] + " Hundred and " + belowHundred(rest)
	case hundreds > 0:
		return unitWords[hundreds] + " Hundred"
	}
	return belowHundred(rest)
}

func belowHundred(n int) string {
	if n < 20 {
		return unitWords[n]
	}
	if n%10 == 0 {
		return tensWords[n/10]
	}
	return tensWords[n/10] + " " + unitWords[n%10]
}
