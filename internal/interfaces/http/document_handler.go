package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/docufact/docufact-api/internal/application/dto"
	"github.com/docufact/docufact-api/internal/application/pricing"
	"github.com/docufact/docufact-api/internal/domain"
)

// DocumentHandler expone el cálculo de totales de documento: sourcing de
// precios, normalización TTC->HT y agregación con conciliación.
type DocumentHandler struct {
	documents *pricing.DocumentService
}

// NewDocumentHandler construye el handler.
func NewDocumentHandler(documents *pricing.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// ComputeTotals calcula los totales de un documento a partir de sus líneas.
// Los problemas de pricing/conciliación son advertencias con transparencia
// total (ambas cifras en la respuesta), nunca errores duros.
// POST /api/documents/totals
func (h *DocumentHandler) ComputeTotals(c *fiber.Ctx) error {
	var in dto.ComputeTotalsRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if len(in.Lines) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "el documento no tiene líneas"})
	}

	inputs := make([]pricing.SourceInput, 0, len(in.Lines))
	for _, line := range in.Lines {
		inputs = append(inputs, pricing.SourceInput{
			ProductID:      line.ProductID,
			Quantity:       line.Quantity,
			SourcePriceTTC: line.SourcePriceTTC,
		})
	}

	out, err := h.documents.ComputeDocument(c.Context(), inputs, in.ReferenceTotalTTC)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(toTotalsResponse(out))
}

func toTotalsResponse(out *pricing.DocumentComputation) dto.DocumentTotalsResponse {
	resp := dto.DocumentTotalsResponse{
		SubtotalHT:     out.Totals.SubtotalHT,
		TotalTTC:       out.Totals.TotalTTC,
		Degraded:       out.Degraded,
		DegradedReason: out.DegradedReason,
		Lines:          make([]dto.LineTotalsResponse, 0, len(out.Lines)),
	}
	for _, lb := range out.Lines {
		resp.Lines = append(resp.Lines, dto.LineTotalsResponse{
			ProductID:      lb.Line.ProductID,
			Quantity:       lb.Line.Quantity,
			UnitPriceTTC:   lb.Line.UnitPriceTTC,
			TaxRatePercent: lb.Line.TaxRatePercent,
			Origin:         string(lb.Line.Origin),
			LineTotalTTC:   lb.Totals.LineTotalTTC,
			LineTotalHT:    lb.Totals.LineTotalHT,
			LineTaxAmount:  lb.Totals.LineTaxAmount,
		})
	}
	for _, tl := range out.Totals.TaxBreakdown {
		resp.TaxBreakdown = append(resp.TaxBreakdown, dto.TaxLineResponse{
			RatePercent: tl.RatePercent,
			Amount:      tl.Amount,
		})
	}
	if rec := out.Totals.Reconciliation; rec != nil {
		resp.Reconciliation = &dto.ReconciliationResponse{
			ReferenceTotal: rec.ReferenceTotal,
			ComputedTotal:  rec.ComputedTotal,
			Difference:     rec.Difference,
			Classification: rec.Classification,
		}
	}
	return resp
}
