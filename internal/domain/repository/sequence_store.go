package repository

import (
	"context"

	"github.com/docufact/docufact-api/internal/domain/entity"
)

// SequenceStore puerto del almacén transaccional de secuencias.
//
// Insert debe ser atómico y apoyarse en el índice único (tipo, año, secuencia):
// retorna domain.ErrDuplicateSequence si la posición ya está tomada y
// domain.ErrMaintenanceInProgress si hay un mantenimiento exclusivo en curso
// para el tipo. Cualquier otra falla se envuelve sobre
// domain.ErrStorageUnavailable.
type SequenceStore interface {
	Insert(ctx context.Context, seq *entity.DocumentSequence) error
	// MaxSequence devuelve la mayor secuencia persistida para (tipo, año); 0 si no hay filas.
	MaxSequence(ctx context.Context, t entity.DocumentType, year int) (int, error)
	// ListByType devuelve todas las filas del tipo ordenadas por año, secuencia y fecha de creación.
	ListByType(ctx context.Context, t entity.DocumentType) ([]*entity.DocumentSequence, error)
	// DeleteByTypeAndYear elimina físicamente todas las filas de (tipo, año) y devuelve cuántas.
	DeleteByTypeAndYear(ctx context.Context, t entity.DocumentType, year int) (int64, error)
	// DeleteByIDs elimina físicamente filas puntuales (duplicados detectados por Repair).
	DeleteByIDs(ctx context.Context, ids []string) error

	// RegisteredGaps devuelve los huecos ya documentados para el tipo, como
	// conjunto year -> secuencias. Un hueco documentado es un costo aceptado de
	// la atomicidad (número asignado a un documento que nunca se guardó o fila
	// duplicada eliminada) y no vuelve a reportarse.
	RegisteredGaps(ctx context.Context, t entity.DocumentType) (map[int]map[int]bool, error)
	// RegisterGaps documenta huecos detectados por Repair.
	RegisterGaps(ctx context.Context, t entity.DocumentType, year int, sequences []int) error
}

// MaintenanceLock exclusión entre Allocate y las operaciones de mantenimiento
// (ResetSequence, Repair) para un mismo tipo de documento. Tiene que valer
// entre procesos, no solo dentro de uno: la implementación Postgres usa
// advisory locks; Allocate toma la variante compartida dentro de su transacción.
type MaintenanceLock interface {
	// AcquireExclusive toma el candado de mantenimiento del tipo o retorna
	// domain.ErrMaintenanceInProgress si otro lo tiene. El caller debe invocar
	// release al terminar.
	AcquireExclusive(ctx context.Context, t entity.DocumentType) (release func(), err error)
}
