package notify

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var rupiahPrinter = message.NewPrinter(language.Indonesian)

// FormatRupiah renders an amount as "Rp 1.234.567" with Indonesian
// digit grouping and no fraction digits.
func FormatRupiah(amount float64) string {
	return rupiahPrinter.Sprintf("Rp %v", number.Decimal(amount, number.MaxFractionDigits(0)))
}
