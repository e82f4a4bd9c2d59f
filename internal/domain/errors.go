package domain

import "errors"

// Errores de dominio (sin dependencias externas).
//
// Política de propagación: ErrConcurrencyConflict se reintenta internamente en
// Allocate y solo se expone si se agotan los intentos; ErrStorageUnavailable se
// expone de inmediato (el caller decide si reintenta); ErrCatalogUnavailable se
// recupera localmente con el precio de respaldo y nunca bloquea la construcción
// del documento.
var (
	ErrValidation            = errors.New("entrada inválida")
	ErrDuplicateSequence     = errors.New("secuencia ya asignada")
	ErrConcurrencyConflict   = errors.New("conflicto de concurrencia al asignar número")
	ErrStorageUnavailable    = errors.New("almacén de datos no disponible")
	ErrCatalogUnavailable    = errors.New("catálogo externo no disponible")
	ErrMaintenanceInProgress = errors.New("mantenimiento de numeración en curso")
)
