package borrower

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatAmount renders a whole-dollar amount with thousands separators,
// e.g. "$300,000".
func FormatAmount(amount int64) string {
	return printer.Sprintf("$%d", amount)
}
