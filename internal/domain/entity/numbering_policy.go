package entity

import (
	"fmt"
	"strings"
	"time"
)

// ResetPeriod define cuándo vuelve la numeración al número inicial.
// "monthly" no existe: la clave persistida de una secuencia es (tipo, año)
// sin componente de mes, así que un reinicio mensual no se puede honrar.
// Se rechaza al validar en lugar de ignorarse en silencio.
type ResetPeriod string

const (
	ResetPeriodNever  ResetPeriod = "never"
	ResetPeriodYearly ResetPeriod = "yearly"
)

// ParseResetPeriod valida el período recibido por la API.
func ParseResetPeriod(s string) (ResetPeriod, error) {
	p := ResetPeriod(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case ResetPeriodNever, ResetPeriodYearly:
		return p, nil
	case "monthly":
		return "", fmt.Errorf("período de reinicio 'monthly' no soportado: la clave de secuencia es (tipo, año)")
	default:
		return "", fmt.Errorf("período de reinicio desconocido: %q", s)
	}
}

// NumberingPolicy configura la numeración de un tipo de documento.
// CurrentNumberCache es solo una pista: Allocate y PreviewNext nunca confían
// en ella a ciegas, el piso real es max(cache, última secuencia persistida + 1,
// StartNumber).
type NumberingPolicy struct {
	DocumentType       DocumentType
	StartNumber        int
	ResetPeriod        ResetPeriod
	CurrentNumberCache int
	CacheYear          int // año al que apunta la pista; con reinicio anual la pista de otro año se ignora
	UpdatedAt          time.Time
}

// DefaultNumberingPolicy política por defecto cuando el tipo nunca fue configurado.
func DefaultNumberingPolicy(t DocumentType) *NumberingPolicy {
	return &NumberingPolicy{
		DocumentType: t,
		StartNumber:  1,
		ResetPeriod:  ResetPeriodYearly,
	}
}

// Validate verifica los invariantes de la política.
func (p *NumberingPolicy) Validate() error {
	if !p.DocumentType.Valid() {
		return fmt.Errorf("tipo de documento inválido: %q", p.DocumentType)
	}
	if p.StartNumber < 1 {
		return fmt.Errorf("número inicial debe ser >= 1, recibido %d", p.StartNumber)
	}
	if _, err := ParseResetPeriod(string(p.ResetPeriod)); err != nil {
		return err
	}
	return nil
}
