package numbering

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/docufact/docufact-api/internal/domain"
	"github.com/docufact/docufact-api/internal/domain/entity"
)

// IssueKind clase de inconsistencia detectada en una serie de numeración.
type IssueKind string

const (
	// IssueDuplicate dos o más filas con la misma secuencia; Repair conserva
	// la más antigua por fecha de creación y elimina el resto.
	IssueDuplicate IssueKind = "DUPLICATE"
	// IssueGap secuencias faltantes en la serie que aún no fueron
	// documentadas. Un hueco no se rellena nunca (los números no se
	// reutilizan); Repair lo registra como costo aceptado y deja de reportarlo.
	IssueGap IssueKind = "GAP"
	// IssueCacheDesync la pista CurrentNumberCache no coincide con la última
	// secuencia persistida; Repair la resincroniza.
	IssueCacheDesync IssueKind = "CACHE_DESYNC"
	// IssueOrphan número asignado hace tiempo sin documento vinculado.
	// Informativo: solo lo reporta Diagnose y nunca se elimina automáticamente.
	IssueOrphan IssueKind = "ORPHAN"
)

// orphanAge edad mínima de una fila sin vínculo para reportarla como huérfana
// (las asignaciones en vuelo todavía no tienen documento).
const orphanAge = time.Hour

// Issue una inconsistencia puntual con las filas afectadas.
type Issue struct {
	Kind     IssueKind `json:"kind"`
	Year     int       `json:"year"`
	Sequence int       `json:"sequence,omitempty"`
	RowIDs   []string  `json:"row_ids,omitempty"`
	Detail   string    `json:"detail"`
}

// Report diagnóstico estructurado de un tipo de documento.
type Report struct {
	DocumentType entity.DocumentType `json:"document_type"`
	GeneratedAt  time.Time           `json:"generated_at"`
	Issues       []Issue             `json:"issues"`
}

// Empty indica que el escaneo no encontró inconsistencias.
func (r *Report) Empty() bool { return len(r.Issues) == 0 }

// scanResult resultado interno del escaneo: el reporte más las acciones que
// Repair debe ejecutar.
type scanResult struct {
	report       *Report
	duplicateIDs []string
	gapsByYear   map[int][]int
	cacheDesync  bool
	wantCache    int
	wantYear     int
}

// scan recorre todas las filas persistidas del tipo y detecta duplicados,
// huecos no documentados, desincronización de la pista y huérfanos. Es la
// base común de Diagnose (solo lectura) y Repair (corrige).
func (a *Authority) scan(ctx context.Context, t entity.DocumentType) (*scanResult, error) {
	pol, err := a.policies.Get(ctx, t)
	if err != nil {
		return nil, err
	}
	rows, err := a.seqs.ListByType(ctx, t)
	if err != nil {
		return nil, err
	}
	registered, err := a.seqs.RegisteredGaps(ctx, t)
	if err != nil {
		return nil, err
	}

	res := &scanResult{
		report:     &Report{DocumentType: t, GeneratedAt: a.now(), Issues: []Issue{}},
		gapsByYear: map[int][]int{},
	}

	byYear := map[int][]*entity.DocumentSequence{}
	for _, row := range rows {
		byYear[row.Year] = append(byYear[row.Year], row)
	}
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	now := a.now()
	prevMax := 0
	for _, year := range years {
		yearRows := byYear[year]
		sort.Slice(yearRows, func(i, j int) bool {
			if yearRows[i].Sequence != yearRows[j].Sequence {
				return yearRows[i].Sequence < yearRows[j].Sequence
			}
			return yearRows[i].CreatedAt.Before(yearRows[j].CreatedAt)
		})

		present := map[int]bool{}
		maxSeq := 0
		for i := 0; i < len(yearRows); {
			j := i
			for j < len(yearRows) && yearRows[j].Sequence == yearRows[i].Sequence {
				j++
			}
			seq := yearRows[i].Sequence
			present[seq] = true
			if seq > maxSeq {
				maxSeq = seq
			}
			if j-i > 1 {
				// duplicados: se conserva la fila más antigua
				extra := make([]string, 0, j-i-1)
				for _, row := range yearRows[i+1 : j] {
					extra = append(extra, row.ID)
				}
				res.duplicateIDs = append(res.duplicateIDs, extra...)
				res.report.Issues = append(res.report.Issues, Issue{
					Kind:     IssueDuplicate,
					Year:     year,
					Sequence: seq,
					RowIDs:   extra,
					Detail:   fmt.Sprintf("secuencia %d asignada %d veces", seq, j-i),
				})
			}
			i = j
		}

		// huecos entre el piso del año y la última secuencia, excluyendo los
		// ya documentados por un Repair anterior. Con política "never" la
		// serie continúa donde quedó el año anterior: las posiciones ya
		// emitidas en años previos no son huecos del año siguiente.
		gapFloor := pol.StartNumber
		if pol.ResetPeriod == entity.ResetPeriodNever && prevMax+1 > gapFloor {
			gapFloor = prevMax + 1
		}
		var missing []int
		for s := gapFloor; s < maxSeq; s++ {
			if !present[s] && !registered[year][s] {
				missing = append(missing, s)
			}
		}
		if len(missing) > 0 {
			res.gapsByYear[year] = missing
			for _, run := range runs(missing) {
				detail := fmt.Sprintf("falta la secuencia %d", run[0])
				if run[1] > run[0] {
					detail = fmt.Sprintf("faltan las secuencias %d a %d", run[0], run[1])
				}
				res.report.Issues = append(res.report.Issues, Issue{
					Kind:     IssueGap,
					Year:     year,
					Sequence: run[0],
					Detail:   detail,
				})
			}
		}

		for _, row := range yearRows {
			if row.LinkedEntityID == "" && now.Sub(row.CreatedAt) >= orphanAge {
				res.report.Issues = append(res.report.Issues, Issue{
					Kind:     IssueOrphan,
					Year:     year,
					Sequence: row.Sequence,
					RowIDs:   []string{row.ID},
					Detail:   fmt.Sprintf("número %s asignado sin documento vinculado", row.FormattedNumber),
				})
			}
		}

		if maxSeq > prevMax {
			prevMax = maxSeq
		}
	}

	// pista de caché contra el año más reciente con filas
	if len(years) > 0 {
		latest := years[len(years)-1]
		maxSeq, err := a.seqs.MaxSequence(ctx, t, latest)
		if err != nil {
			return nil, err
		}
		expected := maxSeq + 1
		if expected < pol.StartNumber {
			expected = pol.StartNumber
		}
		if pol.CacheYear != latest || pol.CurrentNumberCache != expected {
			res.cacheDesync = true
			res.wantCache = expected
			res.wantYear = latest
			res.report.Issues = append(res.report.Issues, Issue{
				Kind: IssueCacheDesync,
				Year: latest,
				Detail: fmt.Sprintf("pista %d/%d, esperada %d/%d",
					pol.CurrentNumberCache, pol.CacheYear, expected, latest),
			})
		}
	}

	return res, nil
}

// Diagnose ejecuta el mismo escaneo que Repair pero sin mutar nada: sirve para
// previsualizar qué corregiría una reparación.
func (a *Authority) Diagnose(ctx context.Context, t entity.DocumentType) (*Report, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: tipo de documento %q", domain.ErrValidation, t)
	}
	res, err := a.scan(ctx, t)
	if err != nil {
		return nil, err
	}
	return res.report, nil
}

// Repair corrige las inconsistencias del tipo: elimina duplicados (conserva la
// fila más antigua), documenta los huecos detectados y resincroniza la pista de
// caché. Toma el candado de mantenimiento durante toda la operación. Es
// idempotente: una segunda ejecución consecutiva produce un reporte vacío.
// Los huérfanos son informativos y solo los reporta Diagnose; Repair ni los
// toca ni los incluye en su reporte.
func (a *Authority) Repair(ctx context.Context, t entity.DocumentType) (*Report, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: tipo de documento %q", domain.ErrValidation, t)
	}
	release, err := a.maint.AcquireExclusive(ctx, t)
	if err != nil {
		return nil, err
	}
	defer release()

	res, err := a.scan(ctx, t)
	if err != nil {
		return nil, err
	}
	if len(res.duplicateIDs) > 0 {
		if err := a.seqs.DeleteByIDs(ctx, res.duplicateIDs); err != nil {
			return nil, err
		}
	}
	for year, gaps := range res.gapsByYear {
		if err := a.seqs.RegisterGaps(ctx, t, year, gaps); err != nil {
			return nil, err
		}
	}
	if res.cacheDesync {
		if err := a.policies.UpdateCache(ctx, t, res.wantYear, res.wantCache); err != nil {
			return nil, err
		}
	}
	// los huérfanos son solo informativos: fuera del reporte de reparación
	kept := res.report.Issues[:0]
	for _, issue := range res.report.Issues {
		if issue.Kind != IssueOrphan {
			kept = append(kept, issue)
		}
	}
	res.report.Issues = kept

	a.log.Info().
		Str("document_type", string(t)).
		Int("issues", len(res.report.Issues)).
		Int("duplicates_removed", len(res.duplicateIDs)).
		Msg("reparación de numeración ejecutada")
	return res.report, nil
}

// runs agrupa una lista ordenada de enteros en corridas [desde, hasta].
func runs(sorted []int) [][2]int {
	var out [][2]int
	for i := 0; i < len(sorted); {
		j := i
		for j+1 < len(sorted) && sorted[j+1] == sorted[j]+1 {
			j++
		}
		out = append(out, [2]int{sorted[i], sorted[j]})
		i = j + 1
	}
	return out
}
