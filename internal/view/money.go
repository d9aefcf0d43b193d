package view

import (
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/inventario/inventario/internal/shared"
)

var moneyPrinter = message.NewPrinter(language.Spanish)

// FormatMoney renders an amount for display, e.g. "€ 1.234,50".
func FormatMoney(m shared.Money) string {
	return moneyPrinter.Sprint(currency.Symbol(currency.EUR.Amount(m.Major())))
}
