package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docufact/docufact-api/internal/domain/entity"
)

func TestParseResetPeriod(t *testing.T) {
	p, err := entity.ParseResetPeriod("yearly")
	require.NoError(t, err)
	assert.Equal(t, entity.ResetPeriodYearly, p)

	p, err = entity.ParseResetPeriod(" NEVER ")
	require.NoError(t, err)
	assert.Equal(t, entity.ResetPeriodNever, p)
}

// "monthly" no es un alias silencioso de otro período: se rechaza con un
// mensaje explícito porque la clave de secuencia no tiene componente de mes.
func TestParseResetPeriod_MonthlyRechazado(t *testing.T) {
	_, err := entity.ParseResetPeriod("monthly")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "monthly")
}

func TestNumberingPolicy_Validate(t *testing.T) {
	pol := entity.DefaultNumberingPolicy(entity.DocumentTypeInvoice)
	assert.NoError(t, pol.Validate())

	pol.StartNumber = 0
	assert.Error(t, pol.Validate(), "número inicial < 1 debe rechazarse")

	pol = entity.DefaultNumberingPolicy("FACTURA_X")
	assert.Error(t, pol.Validate(), "tipo inválido debe rechazarse")
}
