package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/docufact/docufact-api/internal/domain/entity"
	"github.com/docufact/docufact-api/internal/domain/repository"
)

var _ repository.PolicyStore = (*PolicyRepo)(nil)

// PolicyRepo implementa PolicyStore sobre PostgreSQL (una fila por tipo).
type PolicyRepo struct {
	pool *pgxpool.Pool
}

// NewPolicyRepository construye el repositorio.
func NewPolicyRepository(pool *pgxpool.Pool) *PolicyRepo {
	return &PolicyRepo{pool: pool}
}

// Get devuelve la política del tipo o la política por defecto si nunca fue
// configurada (nunca nil).
func (r *PolicyRepo) Get(ctx context.Context, t entity.DocumentType) (*entity.NumberingPolicy, error) {
	const q = `
		SELECT document_type, start_number, reset_period, current_number_cache, cache_year, updated_at
		FROM numbering_policies WHERE document_type = $1`
	var p entity.NumberingPolicy
	err := r.pool.QueryRow(ctx, q, t).Scan(
		&p.DocumentType, &p.StartNumber, &p.ResetPeriod,
		&p.CurrentNumberCache, &p.CacheYear, &p.UpdatedAt,
	)
	if err != nil {
		if noRows(err) {
			return entity.DefaultNumberingPolicy(t), nil
		}
		return nil, storageError("get política", err)
	}
	return &p, nil
}

// Put crea o reemplaza la política del tipo.
func (r *PolicyRepo) Put(ctx context.Context, p *entity.NumberingPolicy) error {
	if err := p.Validate(); err != nil {
		return err
	}
	const q = `
		INSERT INTO numbering_policies
			(document_type, start_number, reset_period, current_number_cache, cache_year, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (document_type) DO UPDATE
		SET start_number         = EXCLUDED.start_number,
		    reset_period         = EXCLUDED.reset_period,
		    current_number_cache = EXCLUDED.current_number_cache,
		    cache_year           = EXCLUDED.cache_year,
		    updated_at           = now()`
	if _, err := r.pool.Exec(ctx, q,
		p.DocumentType, p.StartNumber, p.ResetPeriod, p.CurrentNumberCache, p.CacheYear,
	); err != nil {
		return storageError("upsert política", err)
	}
	return nil
}

// UpdateCache escribe solo la pista consultiva. Si el tipo no tiene política
// aún, la crea con los valores por defecto más la pista.
func (r *PolicyRepo) UpdateCache(ctx context.Context, t entity.DocumentType, year, next int) error {
	def := entity.DefaultNumberingPolicy(t)
	const q = `
		INSERT INTO numbering_policies
			(document_type, start_number, reset_period, current_number_cache, cache_year, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (document_type) DO UPDATE
		SET current_number_cache = EXCLUDED.current_number_cache,
		    cache_year           = EXCLUDED.cache_year,
		    updated_at           = now()`
	if _, err := r.pool.Exec(ctx, q, t, def.StartNumber, def.ResetPeriod, next, year); err != nil {
		return storageError("update pista de numeración", err)
	}
	return nil
}
