package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuditLog is a signed record of a back-office action
type AuditLog struct {
	ID           string                 `json:"id"`
	Actor        string                 `json:"actor"`
	Action       string                 `json:"action"`
	ResourceType string                 `json:"resourceType"`
	ResourceID   string                 `json:"resourceId,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	Amount       *decimal.Decimal       `json:"amount,omitempty"`
	Status       string                 `json:"status"`
	ErrorMessage string                 `json:"errorMessage,omitempty"`
	Signature    string                 `json:"signature"`
	At           time.Time              `json:"at"`
	CreatedAt    time.Time              `json:"createdAt"`
	UpdatedAt    time.Time              `json:"updatedAt"`
}
