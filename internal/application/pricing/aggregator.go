package pricing

import (
	"sort"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/docufact/docufact-api/internal/domain/entity"
	"github.com/docufact/docufact-api/internal/domain/money"
)

// Aggregator suma líneas ya normalizadas en los totales del documento y los
// concilia contra el total de referencia externo cuando existe.
type Aggregator struct {
	normalizer *Normalizer
}

// NewAggregator construye el agregador sobre un normalizador.
func NewAggregator(normalizer *Normalizer) *Aggregator {
	return &Aggregator{normalizer: normalizer}
}

// computedLine línea con sus montos derivados, insumo del desglose.
type computedLine struct {
	rate   decimal.Decimal
	totals entity.LineTotals
}

// ComputeDocumentTotals deriva cada línea y agrega:
//   - SubtotalHT  = round2(Σ lineTotalHT)
//   - TaxBreakdown agrupa los lineTaxAmount YA redondeados por tasa y suma con
//     round2 dentro de cada grupo (nunca se recalcula desde el subtotal);
//     ascendente por tasa, tasas con monto cero excluidas
//   - TotalTTC    = round2(Σ lineTotalTTC)
//
// Si referenceTotal no es nil se concilia: MATCH cuando |ref - total| < 0.01,
// si no DRIFT con la magnitud. La conciliación es informativa: ambos totales
// se exponen siempre y nunca se sustituye uno por el otro.
func (a *Aggregator) ComputeDocumentTotals(lines []entity.LineItem, referenceTotal *decimal.Decimal) (entity.DocumentTotals, error) {
	computed := make([]computedLine, 0, len(lines))
	subtotalHT := decimal.Zero
	totalTTC := decimal.Zero
	for _, line := range lines {
		totals, err := a.normalizer.ComputeLineTotals(line)
		if err != nil {
			return entity.DocumentTotals{}, err
		}
		computed = append(computed, computedLine{rate: line.TaxRatePercent, totals: totals})
		subtotalHT = subtotalHT.Add(totals.LineTotalHT)
		totalTTC = totalTTC.Add(totals.LineTotalTTC)
	}

	groups := lo.GroupBy(computed, func(c computedLine) string {
		return c.rate.String()
	})
	breakdown := make([]entity.TaxLine, 0, len(groups))
	for _, group := range groups {
		amount := decimal.Zero
		for _, c := range group {
			amount = amount.Add(c.totals.LineTaxAmount)
		}
		amount = money.Round2(amount)
		if amount.IsZero() {
			continue
		}
		breakdown = append(breakdown, entity.TaxLine{RatePercent: group[0].rate, Amount: amount})
	}
	sort.Slice(breakdown, func(i, j int) bool {
		return breakdown[i].RatePercent.LessThan(breakdown[j].RatePercent)
	})

	totals := entity.DocumentTotals{
		SubtotalHT:   money.Round2(subtotalHT),
		TaxBreakdown: breakdown,
		TotalTTC:     money.Round2(totalTTC),
	}
	if referenceTotal != nil {
		totals.Reconciliation = reconcile(*referenceTotal, totals.TotalTTC)
	}
	return totals, nil
}

// reconcile clasifica la diferencia absoluta entre el total de referencia y el
// calculado. DRIFT nunca bloquea el guardado: se reporta para que el caller
// decida cómo advertir.
func reconcile(reference, computed decimal.Decimal) *entity.ReconciliationResult {
	diff := reference.Sub(computed).Abs()
	classification := entity.ReconciliationDrift
	if diff.LessThan(money.Cent) {
		classification = entity.ReconciliationMatch
	}
	return &entity.ReconciliationResult{
		ReferenceTotal: reference,
		ComputedTotal:  computed,
		Difference:     diff,
		Classification: classification,
	}
}
