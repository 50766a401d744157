package render

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatMoney renders an amount the way it is printed on receipts:
// "Rp 55.000" with dot thousand separators; cents only when present.
func FormatMoney(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	fixed := d.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	out := "Rp " + sign + b.String()
	if frac != "00" {
		out += "," + frac
	}
	return out
}
