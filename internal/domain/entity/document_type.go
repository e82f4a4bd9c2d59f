package entity

import (
	"fmt"
	"strings"
)

// DocumentType identifica la clase de documento comercial que recibe numeración.
type DocumentType string

const (
	DocumentTypeInvoice       DocumentType = "INVOICE"
	DocumentTypeQuote         DocumentType = "QUOTE"
	DocumentTypeDelivery      DocumentType = "DELIVERY"
	DocumentTypeReturn        DocumentType = "RETURN"
	DocumentTypeSalesJournal  DocumentType = "SALES_JOURNAL"
	DocumentTypePurchaseOrder DocumentType = "PURCHASE_ORDER"
)

// typeCodes letra(s) de cada tipo dentro del número formateado.
// Esquema canónico: factura "A" y diario de ventas "G" son códigos distintos.
var typeCodes = map[DocumentType]string{
	DocumentTypeInvoice:       "A",
	DocumentTypeQuote:         "D",
	DocumentTypeDelivery:      "L",
	DocumentTypeReturn:        "R",
	DocumentTypeSalesJournal:  "G",
	DocumentTypePurchaseOrder: "PO",
}

// AllDocumentTypes devuelve los tipos soportados en orden estable.
func AllDocumentTypes() []DocumentType {
	return []DocumentType{
		DocumentTypeInvoice,
		DocumentTypeQuote,
		DocumentTypeDelivery,
		DocumentTypeReturn,
		DocumentTypeSalesJournal,
		DocumentTypePurchaseOrder,
	}
}

// Valid indica si el tipo es uno de los soportados.
func (t DocumentType) Valid() bool {
	_, ok := typeCodes[t]
	return ok
}

// Code devuelve la(s) letra(s) del tipo para el número formateado.
func (t DocumentType) Code() string {
	return typeCodes[t]
}

// ParseDocumentType normaliza y valida el tipo recibido por la API ("invoice", "INVOICE", ...).
func ParseDocumentType(s string) (DocumentType, error) {
	t := DocumentType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("tipo de documento desconocido: %q", s)
	}
	return t, nil
}

// FormatNumber construye el número visible según la gramática
// "F " + código de tipo + año (4 dígitos) + secuencia (4 dígitos con ceros).
// Ej.: factura 42 de 2026 -> "F A20260042"; orden de compra -> "F PO20260042".
func FormatNumber(t DocumentType, year, sequence int) string {
	return fmt.Sprintf("F %s%04d%04d", t.Code(), year, sequence)
}
