package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/docufact/docufact-api/internal/domain"
	"github.com/docufact/docufact-api/internal/domain/entity"
	"github.com/docufact/docufact-api/internal/domain/repository"
)

var _ repository.SequenceStore = (*SequenceRepo)(nil)

// SequenceRepo implementa SequenceStore sobre PostgreSQL. El índice único
// (document_type, year, sequence) es el único punto de serialización entre
// procesos: no hay mutex de aplicación delante del insert.
type SequenceRepo struct {
	pool *pgxpool.Pool
}

// NewSequenceRepository construye el repositorio.
func NewSequenceRepository(pool *pgxpool.Pool) *SequenceRepo {
	return &SequenceRepo{pool: pool}
}

// Insert inserta la secuencia de forma atómica. Dentro de la misma transacción
// toma el advisory lock compartido del tipo: si Reset/Repair tienen el
// exclusivo, retorna ErrMaintenanceInProgress. Una colisión del índice único
// retorna ErrDuplicateSequence para que la autoridad recalcule y reintente.
// El insert o entra completo o se revierte completo: ningún otro proceso ve
// una asignación a medias.
func (r *SequenceRepo) Insert(ctx context.Context, seq *entity.DocumentSequence) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return storageError("begin insert secuencia", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var acquired bool
	err = tx.QueryRow(ctx, `SELECT pg_try_advisory_xact_lock_shared($1)`, maintenanceLockKey(seq.DocumentType)).Scan(&acquired)
	if err != nil {
		return storageError("advisory lock compartido", err)
	}
	if !acquired {
		return fmt.Errorf("%w: tipo %s", domain.ErrMaintenanceInProgress, seq.DocumentType)
	}

	const q = `
		INSERT INTO document_sequences
			(id, document_type, year, sequence, formatted_number, linked_entity_id, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)`
	_, err = tx.Exec(ctx, q,
		seq.ID, seq.DocumentType, seq.Year, seq.Sequence,
		seq.FormattedNumber, seq.LinkedEntityID, seq.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s/%d/%d", domain.ErrDuplicateSequence, seq.DocumentType, seq.Year, seq.Sequence)
		}
		return storageError("insert secuencia", err)
	}
	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s/%d/%d", domain.ErrDuplicateSequence, seq.DocumentType, seq.Year, seq.Sequence)
		}
		return storageError("commit insert secuencia", err)
	}
	return nil
}

// MaxSequence devuelve la mayor secuencia persistida de (tipo, año); 0 si no hay filas.
func (r *SequenceRepo) MaxSequence(ctx context.Context, t entity.DocumentType, year int) (int, error) {
	const q = `
		SELECT COALESCE(MAX(sequence), 0)
		FROM document_sequences
		WHERE document_type = $1 AND year = $2`
	var max int
	if err := r.pool.QueryRow(ctx, q, t, year).Scan(&max); err != nil {
		return 0, storageError("max secuencia", err)
	}
	return max, nil
}

// ListByType devuelve todas las filas del tipo, ordenadas por año, secuencia y
// fecha de creación (el orden que espera el escaneo de Repair/Diagnose).
func (r *SequenceRepo) ListByType(ctx context.Context, t entity.DocumentType) ([]*entity.DocumentSequence, error) {
	const q = `
		SELECT id, document_type, year, sequence, formatted_number,
		       COALESCE(linked_entity_id, ''), created_at
		FROM document_sequences
		WHERE document_type = $1
		ORDER BY year, sequence, created_at`
	rows, err := r.pool.Query(ctx, q, t)
	if err != nil {
		return nil, storageError("listar secuencias", err)
	}
	defer rows.Close()

	var list []*entity.DocumentSequence
	for rows.Next() {
		var s entity.DocumentSequence
		if err := rows.Scan(&s.ID, &s.DocumentType, &s.Year, &s.Sequence,
			&s.FormattedNumber, &s.LinkedEntityID, &s.CreatedAt); err != nil {
			return nil, storageError("scan secuencia", err)
		}
		list = append(list, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("listar secuencias", err)
	}
	return list, nil
}

// DeleteByTypeAndYear elimina físicamente la serie (tipo, año) y descarta los
// huecos documentados de esa misma clave (dejan de tener sentido tras el
// reinicio). Ambos borrados van en una transacción.
func (r *SequenceRepo) DeleteByTypeAndYear(ctx context.Context, t entity.DocumentType, year int) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, storageError("begin reset secuencias", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `DELETE FROM document_sequences WHERE document_type = $1 AND year = $2`, t, year)
	if err != nil {
		return 0, storageError("delete secuencias", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM sequence_gaps WHERE document_type = $1 AND year = $2`, t, year); err != nil {
		return 0, storageError("delete huecos documentados", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, storageError("commit reset secuencias", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteByIDs elimina filas puntuales (duplicados que Repair descarta).
func (r *SequenceRepo) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := r.pool.Exec(ctx, `DELETE FROM document_sequences WHERE id = ANY($1)`, ids); err != nil {
		return storageError("delete duplicados", err)
	}
	return nil
}

// RegisteredGaps huecos ya documentados del tipo, como conjunto año -> secuencias.
func (r *SequenceRepo) RegisteredGaps(ctx context.Context, t entity.DocumentType) (map[int]map[int]bool, error) {
	const q = `SELECT year, sequence FROM sequence_gaps WHERE document_type = $1`
	rows, err := r.pool.Query(ctx, q, t)
	if err != nil {
		return nil, storageError("listar huecos documentados", err)
	}
	defer rows.Close()

	out := map[int]map[int]bool{}
	for rows.Next() {
		var year, seq int
		if err := rows.Scan(&year, &seq); err != nil {
			return nil, storageError("scan hueco", err)
		}
		if out[year] == nil {
			out[year] = map[int]bool{}
		}
		out[year][seq] = true
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("listar huecos documentados", err)
	}
	return out, nil
}

// RegisterGaps documenta huecos detectados por Repair (idempotente).
func (r *SequenceRepo) RegisterGaps(ctx context.Context, t entity.DocumentType, year int, sequences []int) error {
	if len(sequences) == 0 {
		return nil
	}
	const q = `
		INSERT INTO sequence_gaps (document_type, year, sequence, detected_at)
		SELECT $1, $2, s, now() FROM unnest($3::int[]) AS s
		ON CONFLICT (document_type, year, sequence) DO NOTHING`
	if _, err := r.pool.Exec(ctx, q, t, year, sequences); err != nil {
		return storageError("registrar huecos", err)
	}
	return nil
}
