// Package inr formats Indian-rupee amounts: en-IN digit grouping for
// display and the crore/lakh amount-in-words line printed on invoices.
package inr

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Format renders amt with the rupee sign and Indian digit grouping
// (₹12,34,567). Two decimal places are shown only when the amount is not a
// whole number, matching the storefront display convention.
func Format(amt decimal.Decimal) string {
	neg := amt.IsNegative()
	abs := amt.Abs()

	digits := abs.Floor().String()
	frac := ""
	if !abs.Equal(abs.Floor()) {
		s := abs.StringFixed(2)
		frac = s[strings.LastIndexByte(s, '.'):]
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteRune('₹')
	b.WriteString(group(digits))
	b.WriteString(frac)
	return b.String()
}

// group inserts Indian-system separators: the last three digits form one
// group, every preceding pair forms another (1234567 -> 12,34,567).
func group(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head := digits[:len(digits)-3]
	tail := digits[len(digits)-3:]

	var parts []string
	for len(head) > 2 {
		parts = append([]string{head[len(head)-2:]}, parts...)
		head = head[:len(head)-2]
	}
	parts = append([]string{head}, parts...)
	parts = append(parts, tail)
	return strings.Join(parts, ",")
}

var ones = []string{
	"", "One ", "Two ", "Three ", "Four ", "Five ", "Six ", "Seven ",
	"Eight ", "Nine ", "Ten ", "Eleven ", "Twelve ", "Thirteen ",
	"Fourteen ", "Fifteen ", "Sixteen ", "Seventeen ", "Eighteen ",
	"Nineteen ",
}

var tens = []string{
	"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy",
	"Eighty", "Ninety",
}

func below100(n int64) string {
	if n > 19 {
		return tens[n/10] + " " + ones[n%10]
	}
	return ones[n]
}

// Words spells out the integer rupee part of amt in the Indian numbering
// system ("Twelve Lakh Thirty Four Thousand ... Only"). Paise are dropped,
// as on the source invoices.
func Words(amt decimal.Decimal) string {
	n := amt.IntPart()
	if n == 0 {
		return "Zero"
	}
	if n < 0 {
		n = -n
	}

	var b strings.Builder
	if n >= 1_00_00_000 {
		b.WriteString(below100(n / 1_00_00_000))
		b.WriteString("Crore ")
		n %= 1_00_00_000
	}
	if n >= 1_00_000 {
		b.WriteString(below100(n / 1_00_000))
		b.WriteString("Lakh ")
		n %= 1_00_000
	}
	if n >= 1000 {
		b.WriteString(below100(n / 1000))
		b.WriteString("Thousand ")
		n %= 1000
	}
	if n >= 100 {
		b.WriteString(below100(n / 100))
		b.WriteString("Hundred ")
		n %= 100
	}
	if n > 0 {
		if b.Len() > 0 {
			b.WriteString("and ")
		}
		b.WriteString(below100(n))
	}

	return strings.TrimSpace(b.String()) + " Only"
}
