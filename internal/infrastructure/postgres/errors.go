package postgres

import (
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/docufact/docufact-api/internal/domain"
	"github.com/docufact/docufact-api/internal/domain/entity"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// storageError envuelve una falla del almacén en el error de taxonomía
// correspondiente para que la capa de aplicación la exponga sin reintentar.
func storageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, domain.ErrStorageUnavailable, err)
}

// noRows indica ausencia de filas (no es una falla del almacén).
func noRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// maintenanceLockKey clave estable de advisory lock por tipo de documento.
// Repair/Reset toman la variante exclusiva; Allocate la compartida dentro de
// su transacción de insert.
func maintenanceLockKey(t entity.DocumentType) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("numbering:" + string(t)))
	return int64(h.Sum64())
}
