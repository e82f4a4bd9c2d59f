package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/docufact/docufact-api/internal/domain"
	"github.com/docufact/docufact-api/internal/domain/entity"
	"github.com/docufact/docufact-api/internal/domain/money"
)

// Normalizer convierte el precio unitario IVA incluido (TTC) de una línea en
// su desglose sin impuesto (HT) + impuesto, con la disciplina de redondeo del
// exporte fiscal: money.Round2 después de CADA paso aritmético, nunca diferido.
//
//	lineTotalTTC  = round2(unitPriceTTC * quantity)
//	lineTotalHT   = round2(lineTotalTTC / (1 + rate/100))
//	lineTaxAmount = round2(lineTotalHT * rate/100)
//
// Por el redondeo independiente, HT + impuesto puede diferir del TTC hasta en
// 0.01; esa deriva es el comportamiento aceptado aguas abajo y no se corrige.
type Normalizer struct {
	allowedRates []decimal.Decimal
}

// NewNormalizer construye el normalizador con el conjunto de tasas admitidas
// (ej. 0, 7, 10, 20).
func NewNormalizer(allowedRates []decimal.Decimal) *Normalizer {
	return &Normalizer{allowedRates: allowedRates}
}

// RateAllowed indica si la tasa pertenece al conjunto configurado.
func (n *Normalizer) RateAllowed(rate decimal.Decimal) bool {
	for _, r := range n.allowedRates {
		if r.Equal(rate) {
			return true
		}
	}
	return false
}

// ComputeLineTotals valida la línea y deriva sus montos. La validación ocurre
// antes de cualquier cálculo o persistencia: cantidad no positiva, precio
// negativo o tasa no reconocida son ErrValidation.
func (n *Normalizer) ComputeLineTotals(line entity.LineItem) (entity.LineTotals, error) {
	if line.Quantity <= 0 {
		return entity.LineTotals{}, fmt.Errorf("%w: cantidad %d no positiva", domain.ErrValidation, line.Quantity)
	}
	if line.UnitPriceTTC.IsNegative() {
		return entity.LineTotals{}, fmt.Errorf("%w: precio unitario %s negativo", domain.ErrValidation, line.UnitPriceTTC)
	}
	if !n.RateAllowed(line.TaxRatePercent) {
		return entity.LineTotals{}, fmt.Errorf("%w: tasa de impuesto %s no reconocida", domain.ErrValidation, line.TaxRatePercent)
	}

	qty := decimal.NewFromInt(int64(line.Quantity))
	totalTTC := money.Round2(line.UnitPriceTTC.Mul(qty))
	divisor := decimal.NewFromInt(1).Add(money.Percent(line.TaxRatePercent))
	// Div de shopspring usa DivisionPrecision (16), suficiente antes del Round2
	totalHT := money.Round2(totalTTC.Div(divisor))
	taxAmount := money.Round2(totalHT.Mul(money.Percent(line.TaxRatePercent)))

	return entity.LineTotals{
		LineTotalTTC:  totalTTC,
		LineTotalHT:   totalHT,
		LineTaxAmount: taxAmount,
	}, nil
}
