// Package money concentra el redondeo monetario de toda la aplicación: una
// sola implementación compartida, nunca una fórmula repetida por punto de
// cálculo.
package money

import "github.com/shopspring/decimal"

// Cent es el umbral de conciliación: diferencias menores a 0.01 son MATCH.
var Cent = decimal.New(1, -2)

// Round2 redondea a 2 decimales, mitad alejándose de cero (1.005 -> 1.01,
// -1.005 -> -1.01). Se aplica después de CADA paso aritmético, nunca al final.
// Es idempotente: Round2(Round2(x)) == Round2(x).
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Percent convierte una tasa porcentual en factor (20 -> 0.20).
func Percent(rate decimal.Decimal) decimal.Decimal {
	return rate.Div(decimal.NewFromInt(100))
}
