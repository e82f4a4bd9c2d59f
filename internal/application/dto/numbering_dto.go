package dto

import "time"

// AllocateNumberRequest cuerpo de POST /api/numbering/:type/allocate.
type AllocateNumberRequest struct {
	Year           int    `json:"year"`             // 0 = año en curso
	LinkedEntityID string `json:"linked_entity_id"` // opcional: ID del documento que recibirá el número
}

// NumberResponse número formateado asignado o previsualizado.
type NumberResponse struct {
	DocumentType string `json:"document_type"`
	Year         int    `json:"year,omitempty"`
	Number       string `json:"number"`
}

// ResetSequenceRequest cuerpo de POST /api/numbering/:type/reset.
// Confirm obliga al caller a reconocer que el reinicio es destructivo e
// irreversible.
type ResetSequenceRequest struct {
	Year    int  `json:"year"`
	Confirm bool `json:"confirm"`
}

// PolicyRequest cuerpo de PUT /api/numbering/:type/policy.
type PolicyRequest struct {
	StartNumber int    `json:"start_number"`
	ResetPeriod string `json:"reset_period"` // "never" | "yearly" ("monthly" se rechaza)
}

// PolicyResponse política vigente de un tipo.
type PolicyResponse struct {
	DocumentType       string    `json:"document_type"`
	StartNumber        int       `json:"start_number"`
	ResetPeriod        string    `json:"reset_period"`
	CurrentNumberCache int       `json:"current_number_cache"`
	CacheYear          int       `json:"cache_year"`
	UpdatedAt          time.Time `json:"updated_at"`
}
