package pricing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docufact/docufact-api/internal/application/pricing"
	"github.com/docufact/docufact-api/internal/domain/entity"
	"github.com/docufact/docufact-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fake de catálogo
// ──────────────────────────────────────────────────────────────────────────────

// fakeCatalog catálogo en memoria con fallas configurables por producto.
type fakeCatalog struct {
	products  map[string]*pricing.CatalogProduct
	rates     map[string]decimal.Decimal
	ratesErr  error
	slowIDs   map[string]bool // IDs que cuelgan hasta que el ctx expire
	failIDs   map[string]bool
	getCalls  int
	rateCalls int
}

func (f *fakeCatalog) GetProduct(ctx context.Context, id string) (*pricing.CatalogProduct, error) {
	f.getCalls++
	if f.slowIDs[id] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.failIDs[id] {
		return nil, errors.New("catálogo caído")
	}
	p, ok := f.products[id]
	if !ok {
		return nil, errors.New("producto no encontrado")
	}
	return p, nil
}

func (f *fakeCatalog) TaxRates(ctx context.Context) (map[string]decimal.Decimal, error) {
	f.rateCalls++
	if f.ratesErr != nil {
		return nil, f.ratesErr
	}
	return f.rates, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Env: "test", Level: "error"})
}

func newFakeCatalog(t *testing.T) *fakeCatalog {
	t.Helper()
	return &fakeCatalog{
		products: map[string]*pricing.CatalogProduct{
			"prod-1": {ID: "prod-1", PriceTTC: dec(t, "120.00"), TaxClass: "standard"},
			"prod-2": {ID: "prod-2", PriceTTC: dec(t, "10.00"), TaxClass: "reduced"},
			"prod-x": {ID: "prod-x", PriceTTC: dec(t, "5.00"), TaxClass: "exotica"},
		},
		rates: map[string]decimal.Decimal{
			"standard": dec(t, "20"),
			"reduced":  dec(t, "7"),
		},
		slowIDs: map[string]bool{},
		failIDs: map[string]bool{},
	}
}

func newSourcer(t *testing.T, cat pricing.Catalog, itemTimeout time.Duration) *pricing.Sourcer {
	t.Helper()
	return pricing.NewSourcer(cat, dec(t, "20"), itemTimeout, testLogger())
}

// ──────────────────────────────────────────────────────────────────────────────
// Sourcing por línea
// ──────────────────────────────────────────────────────────────────────────────

// Camino feliz: precio fresco del catálogo y tasa derivada de la clase.
func TestSourceDocument_PrecioFresco(t *testing.T) {
	cat := newFakeCatalog(t)
	s := newSourcer(t, cat, time.Second)

	res, err := s.SourceDocument(context.Background(), []pricing.SourceInput{
		{ProductID: "prod-1", Quantity: 2, SourcePriceTTC: dec(t, "99.00")},
		{ProductID: "prod-2", Quantity: 3, SourcePriceTTC: dec(t, "9.00")},
	})
	require.NoError(t, err)
	require.False(t, res.Degraded)
	require.Len(t, res.Lines, 2)

	assert.Equal(t, entity.PriceOriginFresh, res.Lines[0].Origin)
	assertDec(t, "120.00", res.Lines[0].UnitPriceTTC, "precio fresco, no el histórico")
	assertDec(t, "20", res.Lines[0].TaxRatePercent, "tasa de la clase standard")

	assert.Equal(t, entity.PriceOriginFresh, res.Lines[1].Origin)
	assertDec(t, "10.00", res.Lines[1].UnitPriceTTC, "precio fresco")
	assertDec(t, "7", res.Lines[1].TaxRatePercent, "tasa de la clase reduced")

	assert.Equal(t, 1, cat.rateCalls, "las clases de impuesto se cargan una sola vez por lote")
}

// Una línea caída cae a fallback sin contaminar al resto del lote.
func TestSourceDocument_FallbackAislado(t *testing.T) {
	cat := newFakeCatalog(t)
	cat.failIDs["prod-2"] = true
	s := newSourcer(t, cat, time.Second)

	res, err := s.SourceDocument(context.Background(), []pricing.SourceInput{
		{ProductID: "prod-1", Quantity: 1, SourcePriceTTC: dec(t, "99.00")},
		{ProductID: "prod-2", Quantity: 1, SourcePriceTTC: dec(t, "9.00")},
	})
	require.NoError(t, err)
	require.False(t, res.Degraded, "una línea en fallback no degrada el documento")
	require.Len(t, res.Lines, 2)

	assert.Equal(t, entity.PriceOriginFresh, res.Lines[0].Origin)

	assert.Equal(t, entity.PriceOriginFallback, res.Lines[1].Origin)
	assertDec(t, "9.00", res.Lines[1].UnitPriceTTC, "precio histórico de la fuente")
	assertDec(t, "20", res.Lines[1].TaxRatePercent, "tasa por defecto")
}

// Sin vínculo al catálogo no hay consulta: fallback directo.
func TestSourceDocument_SinProductoNoConsulta(t *testing.T) {
	cat := newFakeCatalog(t)
	s := newSourcer(t, cat, time.Second)

	res, err := s.SourceDocument(context.Background(), []pricing.SourceInput{
		{ProductID: "", Quantity: 2, SourcePriceTTC: dec(t, "15.00")},
	})
	require.NoError(t, err)
	require.Len(t, res.Lines, 1)

	assert.Equal(t, entity.PriceOriginFallback, res.Lines[0].Origin)
	assert.Equal(t, 0, cat.getCalls, "sin product_id no debe consultarse el catálogo")
}

// Clase de impuesto desconocida: el precio fresco no se puede interpretar,
// la línea cae a fallback.
func TestSourceDocument_ClaseDesconocidaFallback(t *testing.T) {
	cat := newFakeCatalog(t)
	s := newSourcer(t, cat, time.Second)

	res, err := s.SourceDocument(context.Background(), []pricing.SourceInput{
		{ProductID: "prod-x", Quantity: 1, SourcePriceTTC: dec(t, "4.50")},
	})
	require.NoError(t, err)
	require.Len(t, res.Lines, 1)

	assert.Equal(t, entity.PriceOriginFallback, res.Lines[0].Origin)
	assertDec(t, "4.50", res.Lines[0].UnitPriceTTC, "precio histórico")
}

// Una consulta que cuelga expira por su propio timeout y la línea cae a
// fallback; las demás líneas del lote no se ven afectadas.
func TestSourceDocument_TimeoutPorLinea(t *testing.T) {
	cat := newFakeCatalog(t)
	cat.slowIDs["prod-1"] = true
	s := newSourcer(t, cat, 20*time.Millisecond)

	start := time.Now()
	res, err := s.SourceDocument(context.Background(), []pricing.SourceInput{
		{ProductID: "prod-1", Quantity: 1, SourcePriceTTC: dec(t, "99.00")},
		{ProductID: "prod-2", Quantity: 1, SourcePriceTTC: dec(t, "9.00")},
	})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second, "el timeout por ítem debe cortar la espera")
	require.Len(t, res.Lines, 2)

	assert.Equal(t, entity.PriceOriginFallback, res.Lines[0].Origin, "línea lenta en fallback")
	assert.Equal(t, entity.PriceOriginFresh, res.Lines[1].Origin, "línea sana sigue fresca")
}

// ──────────────────────────────────────────────────────────────────────────────
// Degradación a nivel de documento
// ──────────────────────────────────────────────────────────────────────────────

// Si los metadatos de impuestos no cargan, el documento entero queda degradado.
func TestSourceDocument_MetadatosInaccesiblesDegrada(t *testing.T) {
	cat := newFakeCatalog(t)
	cat.ratesErr = errors.New("timeout cargando clases de impuesto")
	s := newSourcer(t, cat, time.Second)

	res, err := s.SourceDocument(context.Background(), []pricing.SourceInput{
		{ProductID: "prod-1", Quantity: 1, SourcePriceTTC: dec(t, "99.00")},
		{ProductID: "prod-2", Quantity: 2, SourcePriceTTC: dec(t, "9.00")},
	})
	require.NoError(t, err, "la degradación no es un error: se reporta en el resultado")

	assert.True(t, res.Degraded)
	assert.NotEmpty(t, res.DegradedReason)
	for _, l := range res.Lines {
		assert.Equal(t, entity.PriceOriginFallback, l.Origin)
	}
	assert.Equal(t, 0, cat.getCalls, "degradado: no se consultan productos uno a uno")
}
