package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/docufact/docufact-api/internal/domain"
	"github.com/docufact/docufact-api/internal/domain/entity"
	"github.com/docufact/docufact-api/internal/domain/repository"
)

var _ repository.MaintenanceLock = (*AdvisoryMaintenanceLock)(nil)

// AdvisoryMaintenanceLock exclusión de mantenimiento por tipo de documento
// mediante advisory locks de PostgreSQL: vale entre procesos, no es una
// convención de buena voluntad. El lado exclusivo (Reset/Repair) pincha una
// conexión del pool y la retiene hasta el release; el lado compartido lo toma
// Allocate dentro de su transacción de insert (ver SequenceRepo.Insert).
type AdvisoryMaintenanceLock struct {
	pool *pgxpool.Pool
}

// NewAdvisoryMaintenanceLock construye el candado sobre el pool.
func NewAdvisoryMaintenanceLock(pool *pgxpool.Pool) *AdvisoryMaintenanceLock {
	return &AdvisoryMaintenanceLock{pool: pool}
}

// AcquireExclusive intenta tomar el candado exclusivo del tipo sin bloquear.
// Si otro mantenimiento o asignaciones en vuelo lo retienen, retorna
// ErrMaintenanceInProgress de inmediato: el caller decide si reintenta.
func (l *AdvisoryMaintenanceLock) AcquireExclusive(ctx context.Context, t entity.DocumentType) (func(), error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, storageError("acquire conexión para mantenimiento", err)
	}
	var acquired bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, maintenanceLockKey(t)).Scan(&acquired); err != nil {
		conn.Release()
		return nil, storageError("advisory lock exclusivo", err)
	}
	if !acquired {
		conn.Release()
		return nil, fmt.Errorf("%w: tipo %s", domain.ErrMaintenanceInProgress, t)
	}
	release := func() {
		// el unlock usa un contexto propio: el del caller puede estar cancelado
		_, _ = conn.Exec(context.Background(), `SELECT pg_advisory_unlock($1)`, maintenanceLockKey(t))
		conn.Release()
	}
	return release, nil
}
