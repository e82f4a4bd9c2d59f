package pricing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docufact/docufact-api/internal/application/pricing"
	"github.com/docufact/docufact-api/internal/domain/entity"
)

func newDocumentService(t *testing.T, cat pricing.Catalog) *pricing.DocumentService {
	t.Helper()
	sourcer := newSourcer(t, cat, time.Second)
	agg := pricing.NewAggregator(pricing.NewNormalizer(testRates(t)))
	return pricing.NewDocumentService(sourcer, agg)
}

// Flujo completo: sourcing fresco, agregación y conciliación MATCH.
func TestComputeDocument_FlujoCompleto(t *testing.T) {
	svc := newDocumentService(t, newFakeCatalog(t))

	out, err := svc.ComputeDocument(context.Background(), []pricing.SourceInput{
		{ProductID: "prod-1", Quantity: 2, SourcePriceTTC: dec(t, "99.00")}, // fresco: 2×120.00 al 20%
		{ProductID: "prod-2", Quantity: 3, SourcePriceTTC: dec(t, "9.00")},  // fresco: 3×10.00 al 7%
	}, refTotal(t, "270.00"))
	require.NoError(t, err)

	assert.False(t, out.Degraded)
	require.Len(t, out.Lines, 2)
	assertDec(t, "240.00", out.Lines[0].Totals.LineTotalTTC, "TTC línea 1")
	assertDec(t, "30.00", out.Lines[1].Totals.LineTotalTTC, "TTC línea 2")

	assertDec(t, "228.04", out.Totals.SubtotalHT, "subtotal HT")
	assertDec(t, "270.00", out.Totals.TotalTTC, "total TTC")
	require.Len(t, out.Totals.TaxBreakdown, 2)

	rec := out.Totals.Reconciliation
	require.NotNil(t, rec)
	assert.Equal(t, entity.ReconciliationMatch, rec.Classification)
}

// Degradado: los totales externos pasan tal cual, sin recálculo, y la
// degradación es visible en el resultado.
func TestComputeDocument_DegradadoUsaTotalesExternos(t *testing.T) {
	cat := newFakeCatalog(t)
	cat.ratesErr = errors.New("catálogo de impuestos caído")
	svc := newDocumentService(t, cat)

	out, err := svc.ComputeDocument(context.Background(), []pricing.SourceInput{
		{ProductID: "prod-1", Quantity: 2, SourcePriceTTC: dec(t, "99.00")},
	}, refTotal(t, "198.00"))
	require.NoError(t, err)

	assert.True(t, out.Degraded)
	assert.NotEmpty(t, out.DegradedReason)
	assertDec(t, "198.00", out.Totals.TotalTTC, "total externo verbatim")
	assert.True(t, out.Totals.SubtotalHT.IsZero(), "sin recálculo no hay subtotal derivado")
	assert.Empty(t, out.Totals.TaxBreakdown, "sin recálculo no hay desglose")
	assert.Nil(t, out.Totals.Reconciliation, "no se concilia contra sí mismo")

	require.Len(t, out.Lines, 1)
	assert.Equal(t, entity.PriceOriginFallback, out.Lines[0].Line.Origin)
}

// Degradado sin total de referencia: no hay nada que mostrar como total.
func TestComputeDocument_DegradadoSinReferencia(t *testing.T) {
	cat := newFakeCatalog(t)
	cat.ratesErr = errors.New("catálogo de impuestos caído")
	svc := newDocumentService(t, cat)

	out, err := svc.ComputeDocument(context.Background(), []pricing.SourceInput{
		{ProductID: "prod-1", Quantity: 1, SourcePriceTTC: dec(t, "10.00")},
	}, nil)
	require.NoError(t, err)

	assert.True(t, out.Degraded)
	assert.True(t, out.Totals.TotalTTC.IsZero())
}
