package pricing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/docufact/docufact-api/internal/domain/entity"
	"github.com/docufact/docufact-api/pkg/logger"
)

// CatalogProduct precio vigente y clase de impuesto de un producto del
// catálogo externo de e-commerce.
type CatalogProduct struct {
	ID       string
	PriceTTC decimal.Decimal
	TaxClass string
}

// Catalog puerto del catálogo externo. Ambas operaciones pueden fallar o
// expirar; el sourcing degrada en vez de abortar.
type Catalog interface {
	GetProduct(ctx context.Context, id string) (*CatalogProduct, error)
	// TaxRates devuelve la tasa porcentual por clase de impuesto para todo el
	// lote (se carga una sola vez por documento).
	TaxRates(ctx context.Context) (map[string]decimal.Decimal, error)
}

// SourceInput una línea cruda del pedido externo: cantidad, precio histórico
// suministrado por la fuente y vínculo (opcional) al producto del catálogo.
type SourceInput struct {
	ProductID      string
	Quantity       int
	SourcePriceTTC decimal.Decimal
}

// SourcingResult líneas con precio resuelto más el estado de degradación a
// nivel de documento.
//
// Degraded=true significa que los metadatos de clases de impuesto no pudieron
// cargarse para el lote completo: el documento entero debe usar los totales
// suministrados por la fuente externa tal cual, sin recálculo, y el caller
// está obligado a exhibir esa degradación (nunca se traga en silencio).
type SourcingResult struct {
	Lines          []entity.LineItem
	Degraded       bool
	DegradedReason string
}

// Sourcer máquina de estados de precio por línea: FETCH_FRESH y, ante
// cualquier falla, FALLBACK_SOURCE_PRICE. Cada línea corre de forma
// independiente con su propio timeout: una consulta lenta o caída jamás
// bloquea la construcción del resto del documento.
type Sourcer struct {
	catalog     Catalog
	defaultRate decimal.Decimal
	itemTimeout time.Duration
	log         *logger.Logger
}

// NewSourcer construye el sourcer. itemTimeout <= 0 usa 2s.
func NewSourcer(catalog Catalog, defaultRate decimal.Decimal, itemTimeout time.Duration, log *logger.Logger) *Sourcer {
	if itemTimeout <= 0 {
		itemTimeout = 2 * time.Second
	}
	return &Sourcer{
		catalog:     catalog,
		defaultRate: defaultRate,
		itemTimeout: itemTimeout,
		log:         log,
	}
}

// SourceDocument resuelve el precio y la tasa de cada línea del lote.
//
// Primero carga los metadatos de clases de impuesto; si esa carga falla el
// documento completo queda degradado (se construyen las líneas en fallback
// para exhibirlas, pero los totales válidos son los de la fuente externa).
// Después, por línea: precio fresco del catálogo con tasa derivada de su
// clase, o fallback al precio histórico con la tasa por defecto.
func (s *Sourcer) SourceDocument(ctx context.Context, inputs []SourceInput) (*SourcingResult, error) {
	rates, err := s.catalog.TaxRates(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("clases de impuesto inaccesibles: documento degradado a totales externos")
		result := &SourcingResult{
			Degraded:       true,
			DegradedReason: "metadatos de impuestos inaccesibles: se usan los totales externos tal cual",
		}
		for _, in := range inputs {
			result.Lines = append(result.Lines, s.fallbackLine(in))
		}
		return result, nil
	}

	result := &SourcingResult{}
	for _, in := range inputs {
		result.Lines = append(result.Lines, s.sourceLine(ctx, in, rates))
	}
	return result, nil
}

// sourceLine corre la máquina de una sola línea.
func (s *Sourcer) sourceLine(ctx context.Context, in SourceInput, rates map[string]decimal.Decimal) entity.LineItem {
	if in.ProductID == "" {
		// sin vínculo al catálogo no hay estado FETCH_FRESH posible
		return s.fallbackLine(in)
	}

	itemCtx, cancel := context.WithTimeout(ctx, s.itemTimeout)
	defer cancel()

	product, err := s.catalog.GetProduct(itemCtx, in.ProductID)
	if err != nil {
		s.log.Debug().Err(err).Str("product_id", in.ProductID).Msg("precio fresco inaccesible, línea en fallback")
		return s.fallbackLine(in)
	}
	rate, ok := rates[product.TaxClass]
	if !ok {
		s.log.Debug().Str("product_id", in.ProductID).Str("tax_class", product.TaxClass).Msg("clase de impuesto desconocida, línea en fallback")
		return s.fallbackLine(in)
	}
	return entity.LineItem{
		ProductID:      in.ProductID,
		Quantity:       in.Quantity,
		UnitPriceTTC:   product.PriceTTC,
		TaxRatePercent: rate,
		Origin:         entity.PriceOriginFresh,
	}
}

// fallbackLine precio histórico de la fuente + tasa por defecto, etiquetada
// para que la procedencia sea visible aguas abajo.
func (s *Sourcer) fallbackLine(in SourceInput) entity.LineItem {
	return entity.LineItem{
		ProductID:      in.ProductID,
		Quantity:       in.Quantity,
		UnitPriceTTC:   in.SourcePriceTTC,
		TaxRatePercent: s.defaultRate,
		Origin:         entity.PriceOriginFallback,
	}
}
