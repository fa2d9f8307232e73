package models

import "time"

// PurchaseDraft is the in-progress, unsubmitted purchase form state.
// Cleared only on successful submission, never persisted.
type PurchaseDraft struct {
	AmountText      string `json:"amount_text"`
	SelectedAssetID string `json:"selected_asset_id"`
}

// ValidationResult maps a field name ("amount" or "asset") to an error
// message. An empty map means the draft is valid.
type ValidationResult map[string]string

// Valid reports whether no field carries an error.
func (v ValidationResult) Valid() bool {
	return len(v) == 0
}

// PurchaseRecord is the simulated purchase emitted to the telemetry
// sink. No balance, inventory, or persistence is affected.
type PurchaseRecord struct {
	ID                string    `json:"id"`
	AssetID           int64     `json:"asset_id"`
	Symbol            string    `json:"symbol"`
	AmountUSD         float64   `json:"amount_usd"`
	PriceUSD          float64   `json:"price_usd"`
	EstimatedQuantity float64   `json:"estimated_quantity"`
	Timestamp         time.Time `json:"timestamp"`
}

// NotificationKind classifies a notification message.
type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
	NotifyInfo    NotificationKind = "info"
)

// Notification is the single-slot user feedback message. Hide keeps the
// text around so a fade-out can still reference it.
type Notification struct {
	Text    string           `json:"text"`
	Kind    NotificationKind `json:"kind"`
	Visible bool             `json:"visible"`
}
