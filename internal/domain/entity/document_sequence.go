package entity

import "time"

// DocumentSequence representa un número consecutivo ya asignado.
// La tupla (DocumentType, Year, Sequence) es única en el almacén; la unicidad
// del índice es el único punto de serialización entre procesos concurrentes.
// Se crea solo en Allocate, nunca se modifica; se destruye solo por
// ResetSequence o Repair (borrado físico: una fila con soft-delete seguiría
// ocupando su posición en el índice único y rompería el reinicio).
type DocumentSequence struct {
	ID              string
	DocumentType    DocumentType
	Year            int
	Sequence        int
	FormattedNumber string
	LinkedEntityID  string // ID del documento guardado; vacío = número asignado sin documento (hueco aceptado)
	CreatedAt       time.Time
}
