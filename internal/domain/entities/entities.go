package entities

import "github.com/shopspring/decimal"

func init() {
	// Amounts are stored and served as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// ErrorResponse represents API error responses
type ErrorResponse struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ListResponse wraps collection responses
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

// NewListResponse builds a ListResponse, never serializing a nil slice
func NewListResponse[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Count: len(items)}
}
