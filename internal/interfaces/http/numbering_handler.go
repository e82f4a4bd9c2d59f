package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/docufact/docufact-api/internal/application/dto"
	"github.com/docufact/docufact-api/internal/application/numbering"
	"github.com/docufact/docufact-api/internal/domain"
	"github.com/docufact/docufact-api/internal/domain/entity"
	"github.com/docufact/docufact-api/internal/infrastructure/policycache"
)

// NumberingHandler expone la autoridad de numeración: asignación,
// previsualización, diagnóstico y mantenimiento.
type NumberingHandler struct {
	authority *numbering.Authority
	policies  *policycache.CachedPolicyStore
}

// NewNumberingHandler construye el handler.
func NewNumberingHandler(authority *numbering.Authority, policies *policycache.CachedPolicyStore) *NumberingHandler {
	return &NumberingHandler{authority: authority, policies: policies}
}

// parseType lee y valida el :type de la ruta; si es inválido ya escribe la
// respuesta 400 y retorna ok=false.
func parseType(c *fiber.Ctx) (entity.DocumentType, bool) {
	t, err := entity.ParseDocumentType(c.Params("type"))
	if err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		return "", false
	}
	return t, true
}

// numberingError mapea la taxonomía de errores a códigos HTTP. Las fallas de
// numeración son errores duros: el guardado del documento se bloquea.
func numberingError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrConcurrencyConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONCURRENCY_CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrMaintenanceInProgress):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "MAINTENANCE_IN_PROGRESS", Message: err.Error()})
	case errors.Is(err, domain.ErrStorageUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "STORAGE_UNAVAILABLE", Message: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}

// Allocate asigna el siguiente número.
// POST /api/numbering/:type/allocate
func (h *NumberingHandler) Allocate(c *fiber.Ctx) error {
	t, ok := parseType(c)
	if !ok {
		return nil
	}
	var in dto.AllocateNumberRequest
	if err := c.BodyParser(&in); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.Year == 0 {
		number, err := h.authority.GenerateNumber(c.Context(), t, in.LinkedEntityID)
		if err != nil {
			return numberingError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(dto.NumberResponse{DocumentType: string(t), Number: number})
	}
	seq, err := h.authority.Allocate(c.Context(), t, in.Year, in.LinkedEntityID)
	if err != nil {
		return numberingError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NumberResponse{
		DocumentType: string(t),
		Year:         seq.Year,
		Number:       seq.FormattedNumber,
	})
}

// Preview previsualiza el próximo número sin asignarlo.
// GET /api/numbering/:type/preview
func (h *NumberingHandler) Preview(c *fiber.Ctx) error {
	t, ok := parseType(c)
	if !ok {
		return nil
	}
	number, err := h.authority.PreviewNumber(c.Context(), t)
	if err != nil {
		return numberingError(c, err)
	}
	return c.JSON(dto.NumberResponse{DocumentType: string(t), Number: number})
}

// Diagnose reporta inconsistencias sin corregir nada.
// GET /api/numbering/:type/diagnose
func (h *NumberingHandler) Diagnose(c *fiber.Ctx) error {
	t, ok := parseType(c)
	if !ok {
		return nil
	}
	report, err := h.authority.Diagnose(c.Context(), t)
	if err != nil {
		return numberingError(c, err)
	}
	return c.JSON(report)
}

// Repair corrige duplicados, documenta huecos y resincroniza la pista.
// POST /api/numbering/:type/repair (admin)
func (h *NumberingHandler) Repair(c *fiber.Ctx) error {
	t, ok := parseType(c)
	if !ok {
		return nil
	}
	report, err := h.authority.Repair(c.Context(), t)
	if err != nil {
		return numberingError(c, err)
	}
	return c.JSON(report)
}

// Reset elimina la serie de un año y resiembra la numeración.
// POST /api/numbering/:type/reset (admin, requiere confirm=true)
func (h *NumberingHandler) Reset(c *fiber.Ctx) error {
	t, ok := parseType(c)
	if !ok {
		return nil
	}
	var in dto.ResetSequenceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if !in.Confirm {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "CONFIRM_REQUIRED", Message: "el reinicio es irreversible: enviar confirm=true"})
	}
	if in.Year <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "year requerido"})
	}
	if err := h.authority.ResetSequence(c.Context(), t, in.Year); err != nil {
		return numberingError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetPolicy devuelve la política vigente del tipo.
// GET /api/numbering/:type/policy
func (h *NumberingHandler) GetPolicy(c *fiber.Ctx) error {
	t, ok := parseType(c)
	if !ok {
		return nil
	}
	pol, err := h.policies.Get(c.Context(), t)
	if err != nil {
		return numberingError(c, err)
	}
	return c.JSON(policyResponse(pol))
}

// PutPolicy reemplaza la política del tipo e invalida la caché de políticas.
// PUT /api/numbering/:type/policy (admin)
func (h *NumberingHandler) PutPolicy(c *fiber.Ctx) error {
	t, ok := parseType(c)
	if !ok {
		return nil
	}
	var in dto.PolicyRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	period, err := entity.ParseResetPeriod(in.ResetPeriod)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	current, err := h.policies.Get(c.Context(), t)
	if err != nil {
		return numberingError(c, err)
	}
	pol := &entity.NumberingPolicy{
		DocumentType:       t,
		StartNumber:        in.StartNumber,
		ResetPeriod:        period,
		CurrentNumberCache: current.CurrentNumberCache,
		CacheYear:          current.CacheYear,
	}
	if err := pol.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	if err := h.policies.Put(c.Context(), pol); err != nil {
		return numberingError(c, err)
	}
	// Put ya invalidó la caché; la invalidación es explícita, nunca implícita
	return c.JSON(policyResponse(pol))
}

func policyResponse(p *entity.NumberingPolicy) dto.PolicyResponse {
	return dto.PolicyResponse{
		DocumentType:       string(p.DocumentType),
		StartNumber:        p.StartNumber,
		ResetPeriod:        string(p.ResetPeriod),
		CurrentNumberCache: p.CurrentNumberCache,
		CacheYear:          p.CacheYear,
		UpdatedAt:          p.UpdatedAt,
	}
}
