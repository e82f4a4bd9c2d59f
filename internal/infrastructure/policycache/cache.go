// Package policycache envuelve un PolicyStore con una caché en memoria de
// invalidación explícita: quien modifica una política dispara Invalidate; no
// hay estado de módulo que se invalide "cuando toque".
package policycache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/docufact/docufact-api/internal/domain/entity"
	"github.com/docufact/docufact-api/internal/domain/repository"
)

// DefaultTTL vigencia de una política cacheada; cota superior por si un
// proceso ajeno escribe la tabla sin pasar por esta capa.
const DefaultTTL = 5 * time.Minute

var _ repository.PolicyStore = (*CachedPolicyStore)(nil)

// CachedPolicyStore decora un PolicyStore con lecturas cacheadas.
type CachedPolicyStore struct {
	inner repository.PolicyStore
	cache *gocache.Cache
}

// New construye la caché sobre el store real. ttl <= 0 usa DefaultTTL.
func New(inner repository.PolicyStore, ttl time.Duration) *CachedPolicyStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CachedPolicyStore{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

// Get lee de la caché o del store real.
func (c *CachedPolicyStore) Get(ctx context.Context, t entity.DocumentType) (*entity.NumberingPolicy, error) {
	if v, ok := c.cache.Get(string(t)); ok {
		p := v.(entity.NumberingPolicy)
		return &p, nil
	}
	p, err := c.inner.Get(ctx, t)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(string(t), *p)
	return p, nil
}

// Put escribe en el store real e invalida la entrada.
func (c *CachedPolicyStore) Put(ctx context.Context, p *entity.NumberingPolicy) error {
	if err := c.inner.Put(ctx, p); err != nil {
		return err
	}
	c.Invalidate(p.DocumentType)
	return nil
}

// UpdateCache escribe la pista en el store real e invalida la entrada para que
// la próxima lectura vea la pista fresca.
func (c *CachedPolicyStore) UpdateCache(ctx context.Context, t entity.DocumentType, year, next int) error {
	if err := c.inner.UpdateCache(ctx, t, year, next); err != nil {
		return err
	}
	c.Invalidate(t)
	return nil
}

// Invalidate descarta la entrada del tipo. La invocan los callers que
// modifican políticas (ej. el handler PUT de administración).
func (c *CachedPolicyStore) Invalidate(t entity.DocumentType) {
	c.cache.Delete(string(t))
}
