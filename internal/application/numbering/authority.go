package numbering

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/docufact/docufact-api/internal/domain"
	"github.com/docufact/docufact-api/internal/domain/entity"
	"github.com/docufact/docufact-api/internal/domain/repository"
	"github.com/docufact/docufact-api/pkg/logger"
)

// DefaultMaxAttempts intentos de inserción ante colisiones del índice único.
const DefaultMaxAttempts = 5

// Authority asigna números de documento únicos, consecutivos y sin huecos por
// (tipo, año). No usa ningún mutex de proceso para serializar asignaciones:
// con varias instancias de la aplicación el único punto de serialización
// válido es el insert atómico contra el índice único del almacén.
type Authority struct {
	seqs        repository.SequenceStore
	policies    repository.PolicyStore
	maint       repository.MaintenanceLock
	log         *logger.Logger
	maxAttempts uint64
	now         func() time.Time
}

// NewAuthority construye la autoridad de numeración. maxAttempts <= 0 usa
// DefaultMaxAttempts.
func NewAuthority(
	seqs repository.SequenceStore,
	policies repository.PolicyStore,
	maint repository.MaintenanceLock,
	log *logger.Logger,
	maxAttempts int,
) *Authority {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Authority{
		seqs:        seqs,
		policies:    policies,
		maint:       maint,
		log:         log,
		maxAttempts: uint64(maxAttempts),
		now:         time.Now,
	}
}

// floor calcula el candidato: max(pista de caché, última secuencia persistida + 1,
// número inicial de la política). La pista solo cuenta para el año al que
// apunta cuando la política reinicia anualmente; una política "never" la
// arrastra entre años para continuar la serie.
func (a *Authority) floor(ctx context.Context, t entity.DocumentType, year int) (int, error) {
	pol, err := a.policies.Get(ctx, t)
	if err != nil {
		return 0, err
	}
	last, err := a.seqs.MaxSequence(ctx, t, year)
	if err != nil {
		return 0, err
	}
	candidate := pol.StartNumber
	cache := pol.CurrentNumberCache
	if pol.ResetPeriod == entity.ResetPeriodYearly && pol.CacheYear != year {
		cache = 0
	}
	if cache > candidate {
		candidate = cache
	}
	if last+1 > candidate {
		candidate = last + 1
	}
	return candidate, nil
}

// PreviewNext devuelve el próximo número formateado sin asignarlo. Es solo
// consultivo: nada garantiza que siga libre cuando se llame a Allocate. No
// toma candados ni muta estado compartido.
func (a *Authority) PreviewNext(ctx context.Context, t entity.DocumentType, year int) (string, error) {
	if !t.Valid() {
		return "", fmt.Errorf("%w: tipo de documento %q", domain.ErrValidation, t)
	}
	candidate, err := a.floor(ctx, t, year)
	if err != nil {
		return "", err
	}
	return entity.FormatNumber(t, year, candidate), nil
}

// Allocate asigna el siguiente número de (tipo, año) mediante un insert
// atómico. Ante una colisión de unicidad recalcula el candidato y reintenta
// con backoff exponencial acotado; agotados los intentos retorna
// ErrConcurrencyConflict. Cualquier otra falla del almacén se expone de
// inmediato sin reintentar.
//
// Garantía: N llamadas concurrentes sin fallas sobre el mismo (tipo, año)
// producen exactamente los N enteros consecutivos desde el piso previo. Si el
// documento vinculado nunca se guarda, el número queda como hueco documentable;
// jamás se reutiliza.
func (a *Authority) Allocate(ctx context.Context, t entity.DocumentType, year int, linkedEntityID string) (*entity.DocumentSequence, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: tipo de documento %q", domain.ErrValidation, t)
	}
	return a.allocate(ctx, t, year, linkedEntityID)
}

func (a *Authority) allocate(ctx context.Context, t entity.DocumentType, year int, linkedEntityID string) (*entity.DocumentSequence, error) {
	var allocated *entity.DocumentSequence
	attempts := 0

	op := func() error {
		attempts++
		candidate, err := a.floor(ctx, t, year)
		if err != nil {
			return backoff.Permanent(err)
		}
		seq := &entity.DocumentSequence{
			ID:              uuid.New().String(),
			DocumentType:    t,
			Year:            year,
			Sequence:        candidate,
			FormattedNumber: entity.FormatNumber(t, year, candidate),
			LinkedEntityID:  linkedEntityID,
			CreatedAt:       a.now(),
		}
		if err := a.seqs.Insert(ctx, seq); err != nil {
			if errors.Is(err, domain.ErrDuplicateSequence) {
				// otro proceso ganó esta posición: recalcular y reintentar
				return err
			}
			return backoff.Permanent(err)
		}
		allocated = seq
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 20 * time.Millisecond
	bo.MaxInterval = 250 * time.Millisecond

	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, a.maxAttempts-1), ctx))
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateSequence) {
			return nil, fmt.Errorf("%w: %s/%d tras %d intentos", domain.ErrConcurrencyConflict, t, year, attempts)
		}
		return nil, err
	}

	// La pista de caché es consultiva: un fallo al escribirla no deshace la
	// asignación ya confirmada.
	if err := a.policies.UpdateCache(ctx, t, year, allocated.Sequence+1); err != nil {
		a.log.Warn().Err(err).
			Str("document_type", string(t)).
			Int("sequence", allocated.Sequence).
			Msg("no se pudo actualizar la pista de numeración")
	}

	a.log.Info().
		Str("document_type", string(t)).
		Int("year", year).
		Str("number", allocated.FormattedNumber).
		Int("attempts", attempts).
		Msg("número asignado")
	return allocated, nil
}

// GenerateNumber asigna un número del año en curso y devuelve su forma
// visible. Es la operación que usa el flujo de guardado de documentos: si
// falla, el guardado completo se bloquea (un documento nunca se persiste sin
// número o con número duplicado).
func (a *Authority) GenerateNumber(ctx context.Context, t entity.DocumentType, linkedEntityID string) (string, error) {
	seq, err := a.Allocate(ctx, t, a.now().Year(), linkedEntityID)
	if err != nil {
		return "", err
	}
	return seq.FormattedNumber, nil
}

// PreviewNumber previsualiza el próximo número del año en curso.
func (a *Authority) PreviewNumber(ctx context.Context, t entity.DocumentType) (string, error) {
	return a.PreviewNext(ctx, t, a.now().Year())
}

// ResetSequence elimina todas las secuencias de (tipo, año) y resiembra la
// pista de caché al número inicial de la política. Destructivo e irreversible;
// la confirmación explícita es responsabilidad de la capa que llama. Toma el
// candado de mantenimiento del tipo durante toda la operación para excluir
// asignaciones concurrentes.
func (a *Authority) ResetSequence(ctx context.Context, t entity.DocumentType, year int) error {
	if !t.Valid() {
		return fmt.Errorf("%w: tipo de documento %q", domain.ErrValidation, t)
	}
	release, err := a.maint.AcquireExclusive(ctx, t)
	if err != nil {
		return err
	}
	defer release()

	deleted, err := a.seqs.DeleteByTypeAndYear(ctx, t, year)
	if err != nil {
		return err
	}
	pol, err := a.policies.Get(ctx, t)
	if err != nil {
		return err
	}
	if err := a.policies.UpdateCache(ctx, t, year, pol.StartNumber); err != nil {
		return err
	}
	a.log.Warn().
		Str("document_type", string(t)).
		Int("year", year).
		Int64("deleted", deleted).
		Msg("secuencia reiniciada")
	return nil
}
