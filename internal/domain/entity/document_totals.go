package entity

import "github.com/shopspring/decimal"

// Clasificación de la conciliación contra el total de referencia externo.
const (
	ReconciliationMatch = "MATCH"
	ReconciliationDrift = "DRIFT"
)

// TaxLine monto de impuesto agregado para una tasa.
type TaxLine struct {
	RatePercent decimal.Decimal
	Amount      decimal.Decimal
}

// ReconciliationResult compara el total calculado contra el total de
// referencia suministrado por la fuente externa. Ambos valores se exponen
// siempre; este componente nunca sustituye uno por el otro.
type ReconciliationResult struct {
	ReferenceTotal decimal.Decimal
	ComputedTotal  decimal.Decimal
	Difference     decimal.Decimal
	Classification string // MATCH si Difference < 0.01, si no DRIFT
}

// DocumentTotals totales de un documento: subtotal sin impuesto, desglose por
// tasa (ascendente, sin tasas con monto cero) y total IVA incluido.
// Se recalcula en cada mutación de líneas; nunca se persiste por separado del
// documento al que pertenece.
type DocumentTotals struct {
	SubtotalHT     decimal.Decimal
	TaxBreakdown   []TaxLine
	TotalTTC       decimal.Decimal
	Reconciliation *ReconciliationResult
}
