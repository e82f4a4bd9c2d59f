package dto

import "github.com/shopspring/decimal"

// DocumentLineRequest una línea cruda del pedido externo.
type DocumentLineRequest struct {
	ProductID      string          `json:"product_id"` // vacío = sin vínculo al catálogo (fallback directo)
	Quantity       int             `json:"quantity"`
	SourcePriceTTC decimal.Decimal `json:"source_price_ttc"` // precio histórico IVA incluido de la fuente
}

// ComputeTotalsRequest cuerpo de POST /api/documents/totals.
type ComputeTotalsRequest struct {
	Lines             []DocumentLineRequest `json:"lines"`
	ReferenceTotalTTC *decimal.Decimal      `json:"reference_total_ttc,omitempty"`
}

// LineTotalsResponse desglose de una línea con su procedencia.
type LineTotalsResponse struct {
	ProductID      string          `json:"product_id,omitempty"`
	Quantity       int             `json:"quantity"`
	UnitPriceTTC   decimal.Decimal `json:"unit_price_ttc"`
	TaxRatePercent decimal.Decimal `json:"tax_rate_percent"`
	Origin         string          `json:"origin"` // "fresh" | "fallback"
	LineTotalTTC   decimal.Decimal `json:"line_total_ttc"`
	LineTotalHT    decimal.Decimal `json:"line_total_ht"`
	LineTaxAmount  decimal.Decimal `json:"line_tax_amount"`
}

// TaxLineResponse monto agregado de una tasa.
type TaxLineResponse struct {
	RatePercent decimal.Decimal `json:"rate_percent"`
	Amount      decimal.Decimal `json:"amount"`
}

// ReconciliationResponse resultado de la conciliación contra el total externo.
// Siempre expone ambos totales; DRIFT es advertencia, nunca bloqueo.
type ReconciliationResponse struct {
	ReferenceTotal decimal.Decimal `json:"reference_total"`
	ComputedTotal  decimal.Decimal `json:"computed_total"`
	Difference     decimal.Decimal `json:"difference"`
	Classification string          `json:"classification"` // MATCH | DRIFT
}

// DocumentTotalsResponse respuesta de POST /api/documents/totals.
// Degraded=true: el catálogo de impuestos no estuvo disponible y TotalTTC es
// el total externo tal cual (sin recálculo).
type DocumentTotalsResponse struct {
	Lines          []LineTotalsResponse    `json:"lines"`
	SubtotalHT     decimal.Decimal         `json:"subtotal_ht"`
	TaxBreakdown   []TaxLineResponse       `json:"tax_breakdown"`
	TotalTTC       decimal.Decimal         `json:"total_ttc"`
	Reconciliation *ReconciliationResponse `json:"reconciliation,omitempty"`
	Degraded       bool                    `json:"degraded"`
	DegradedReason string                  `json:"degraded_reason,omitempty"`
}
