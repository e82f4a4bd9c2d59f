package entity

import "github.com/shopspring/decimal"

// PriceOrigin indica de dónde salió el precio de la línea.
// fresh   = precio vigente del catálogo externo y tasa derivada de su clase de impuesto.
// fallback = precio histórico suministrado por la fuente externa y tasa por defecto.
type PriceOrigin string

const (
	PriceOriginFresh    PriceOrigin = "fresh"
	PriceOriginFallback PriceOrigin = "fallback"
)

// LineItem es una línea de documento con precio unitario IVA incluido (TTC).
// Los campos derivados se recalculan siempre que la línea cambia; nunca se
// editan a mano.
type LineItem struct {
	ProductID      string
	Quantity       int
	UnitPriceTTC   decimal.Decimal
	TaxRatePercent decimal.Decimal // debe pertenecer al conjunto de tasas configurado (ej. 0/7/10/20)
	Origin         PriceOrigin
}

// LineTotals montos derivados de una línea (ya redondeados a 2 decimales).
// LineTotalHT + LineTaxAmount puede diferir de LineTotalTTC hasta en 0.01 por
// el redondeo independiente de cada paso; esa deriva es el comportamiento
// aceptado por los exportes fiscales y se conserva tal cual.
type LineTotals struct {
	LineTotalTTC  decimal.Decimal
	LineTotalHT   decimal.Decimal
	LineTaxAmount decimal.Decimal
}
