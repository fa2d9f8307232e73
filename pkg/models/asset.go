package models

import "encoding/json"

// Asset is one cryptocurrency's display and pricing record within a
// snapshot. A snapshot is replaced wholesale on every successful poll
// and never mutated field-by-field.
type Asset struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Symbol   string  `json:"symbol"`
	Rank     int     `json:"rank"`
	PriceUSD float64 `json:"priceUSD"`
}

// Envelope is the normalized response published by the gateway:
// a truncated asset list plus the provider's status object passed
// through untouched.
type Envelope struct {
	Data   []Asset         `json:"data"`
	Status json.RawMessage `json:"status"`
}

// ErrorResponse is the fixed-shape failure payload for the gateway
// endpoint. Error carries the static user-facing message; Details is
// diagnostic only and must never drive client control flow.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
