package policycache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docufact/docufact-api/internal/domain/entity"
	"github.com/docufact/docufact-api/internal/infrastructure/policycache"
)

// countingStore store en memoria que cuenta las lecturas al "almacén real".
type countingStore struct {
	policies map[entity.DocumentType]*entity.NumberingPolicy
	gets     int
	putErr   error
}

func newCountingStore() *countingStore {
	return &countingStore{policies: map[entity.DocumentType]*entity.NumberingPolicy{}}
}

func (s *countingStore) Get(ctx context.Context, t entity.DocumentType) (*entity.NumberingPolicy, error) {
	s.gets++
	if p, ok := s.policies[t]; ok {
		cp := *p
		return &cp, nil
	}
	return entity.DefaultNumberingPolicy(t), nil
}

func (s *countingStore) Put(ctx context.Context, p *entity.NumberingPolicy) error {
	if s.putErr != nil {
		return s.putErr
	}
	cp := *p
	s.policies[p.DocumentType] = &cp
	return nil
}

func (s *countingStore) UpdateCache(ctx context.Context, t entity.DocumentType, year, next int) error {
	p, ok := s.policies[t]
	if !ok {
		p = entity.DefaultNumberingPolicy(t)
		s.policies[t] = p
	}
	p.CurrentNumberCache = next
	p.CacheYear = year
	return nil
}

func TestGet_SegundaLecturaDesdeCache(t *testing.T) {
	inner := newCountingStore()
	c := policycache.New(inner, time.Minute)
	ctx := context.Background()

	_, err := c.Get(ctx, entity.DocumentTypeInvoice)
	require.NoError(t, err)
	_, err = c.Get(ctx, entity.DocumentTypeInvoice)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.gets, "la segunda lectura no debe tocar el almacén")
}

// Escribir una política invalida la entrada: la siguiente lectura ve el valor nuevo.
func TestPut_InvalidaLaEntrada(t *testing.T) {
	inner := newCountingStore()
	c := policycache.New(inner, time.Minute)
	ctx := context.Background()

	before, err := c.Get(ctx, entity.DocumentTypeInvoice)
	require.NoError(t, err)
	assert.Equal(t, 1, before.StartNumber)

	require.NoError(t, c.Put(ctx, &entity.NumberingPolicy{
		DocumentType: entity.DocumentTypeInvoice,
		StartNumber:  500,
		ResetPeriod:  entity.ResetPeriodNever,
	}))

	after, err := c.Get(ctx, entity.DocumentTypeInvoice)
	require.NoError(t, err)
	assert.Equal(t, 500, after.StartNumber, "tras Put la lectura debe ver la política nueva")
}

// Un Put fallido no invalida: la caché sigue siendo coherente con el almacén.
func TestPut_FallidoNoInvalida(t *testing.T) {
	inner := newCountingStore()
	c := policycache.New(inner, time.Minute)
	ctx := context.Background()

	_, err := c.Get(ctx, entity.DocumentTypeInvoice)
	require.NoError(t, err)

	inner.putErr = errors.New("almacén caído")
	err = c.Put(ctx, &entity.NumberingPolicy{
		DocumentType: entity.DocumentTypeInvoice,
		StartNumber:  500,
		ResetPeriod:  entity.ResetPeriodNever,
	})
	require.Error(t, err)

	_, err = c.Get(ctx, entity.DocumentTypeInvoice)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.gets, "la entrada cacheada sigue vigente")
}

func TestUpdateCache_RefrescaLaPista(t *testing.T) {
	inner := newCountingStore()
	c := policycache.New(inner, time.Minute)
	ctx := context.Background()

	_, err := c.Get(ctx, entity.DocumentTypeInvoice)
	require.NoError(t, err)

	require.NoError(t, c.UpdateCache(ctx, entity.DocumentTypeInvoice, 2026, 42))

	p, err := c.Get(ctx, entity.DocumentTypeInvoice)
	require.NoError(t, err)
	assert.Equal(t, 42, p.CurrentNumberCache)
	assert.Equal(t, 2026, p.CacheYear)
}
