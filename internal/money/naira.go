// Package money formats Naira amounts for display and for the order summary
// handed to the messaging channel. Output must stay byte-stable.
package money

import (
	"github.com/leekchan/accounting"
	"github.com/shopspring/decimal"
)

const Symbol = "₦"

func naira() *accounting.Accounting {
	return &accounting.Accounting{
		Symbol:         Symbol,
		Precision:      0,
		Thousand:       ",",
		Decimal:        ".",
		Format:         "%s%v",
		FormatNegative: "-%s%v",
		FormatZero:     "%s%v",
	}
}

// Format renders whole-Naira amounts as "₦12,500".
func Format(amount int64) string {
	return FormatDecimal(decimal.NewFromInt(amount))
}

// FormatDecimal rounds to whole Naira before grouping.
func FormatDecimal(amount decimal.Decimal) string {
	return naira().FormatMoney(amount.Round(0))
}
