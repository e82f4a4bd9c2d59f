package repository

import (
	"context"

	"github.com/docufact/docufact-api/internal/domain/entity"
)

// PolicyStore puerto de lectura/escritura de políticas de numeración. La
// invalidación de caché es explícita (ver policycache) y disparada por el
// caller, nunca estado implícito de módulo.
type PolicyStore interface {
	// Get devuelve la política del tipo; si nunca fue configurada devuelve la
	// política por defecto (inicio en 1, reinicio anual), nunca nil.
	Get(ctx context.Context, t entity.DocumentType) (*entity.NumberingPolicy, error)
	// Put crea o reemplaza la política (valida antes de escribir).
	Put(ctx context.Context, p *entity.NumberingPolicy) error
	// UpdateCache escribe la pista CurrentNumberCache y el año al que apunta.
	// Es solo consultiva: un fallo aquí no invalida una asignación ya confirmada.
	UpdateCache(ctx context.Context, t entity.DocumentType, year, next int) error
}
