package pricing

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/docufact/docufact-api/internal/domain/entity"
)

// LineBreakdown línea con su desglose derivado, lista para mostrar.
type LineBreakdown struct {
	Line   entity.LineItem
	Totals entity.LineTotals
}

// DocumentComputation resultado completo del cálculo de un documento.
// Cuando Degraded es true los totales NO fueron recalculados: TotalTTC es el
// total externo tal cual (si se suministró) y el caller debe advertirlo.
type DocumentComputation struct {
	Lines          []LineBreakdown
	Totals         entity.DocumentTotals
	Degraded       bool
	DegradedReason string
}

// DocumentService compone el sourcing de precios, la normalización y la
// agregación para el flujo de guardado de documentos.
type DocumentService struct {
	sourcer    *Sourcer
	aggregator *Aggregator
}

// NewDocumentService construye el servicio.
func NewDocumentService(sourcer *Sourcer, aggregator *Aggregator) *DocumentService {
	return &DocumentService{sourcer: sourcer, aggregator: aggregator}
}

// ComputeDocument resuelve precios línea a línea y agrega los totales.
// referenceTotal (opcional) es el total TTC suministrado por la fuente
// externa: alimenta la conciliación en el camino normal y es el total verbatim
// en el camino degradado.
func (s *DocumentService) ComputeDocument(ctx context.Context, inputs []SourceInput, referenceTotal *decimal.Decimal) (*DocumentComputation, error) {
	sourced, err := s.sourcer.SourceDocument(ctx, inputs)
	if err != nil {
		return nil, err
	}

	if sourced.Degraded {
		out := &DocumentComputation{
			Degraded:       true,
			DegradedReason: sourced.DegradedReason,
		}
		for _, line := range sourced.Lines {
			out.Lines = append(out.Lines, LineBreakdown{Line: line})
		}
		if referenceTotal != nil {
			out.Totals.TotalTTC = *referenceTotal
		}
		return out, nil
	}

	totals, err := s.aggregator.ComputeDocumentTotals(sourced.Lines, referenceTotal)
	if err != nil {
		return nil, err
	}
	out := &DocumentComputation{Totals: totals}
	for _, line := range sourced.Lines {
		lineTotals, err := s.aggregator.normalizer.ComputeLineTotals(line)
		if err != nil {
			return nil, err
		}
		out.Lines = append(out.Lines, LineBreakdown{Line: line, Totals: lineTotals})
	}
	return out, nil
}
