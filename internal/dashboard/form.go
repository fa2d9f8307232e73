package dashboard

import (
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/coindeck/internal/messaging"
	"github.com/coindeck/pkg/format"
	"github.com/coindeck/pkg/models"
)

// Field-scoped validation messages.
const (
	msgAmountRequired = "Amount is required"
	msgAmountInvalid  = "Enter a valid number"
	msgAmountTooLow   = "Amount must be greater than zero"
	msgAmountTooHigh  = "Amount exceeds the maximum"
	msgAssetRequired  = "Select an asset"
	msgAssetNotFound  = "Asset not found. Prices may have refreshed."
)

const (
	fieldAmount = "amount"
	fieldAsset  = "asset"
)

// Bounds are the static purchase limits. Min is documented to the user
// but not enforced as a distinct error: any positive amount below Min
// passes the positivity check alone. This matches the shipped behavior
// and must not be silently tightened.
type Bounds struct {
	Min float64
	Max float64
}

// Validate checks a purchase draft against the bounds. Both fields are
// validated on every call; amount checks apply in strict priority:
// required, then parseable, then positive, then within max.
func Validate(draft models.PurchaseDraft, bounds Bounds) models.ValidationResult {
	result := models.ValidationResult{}

	amountText := strings.TrimSpace(draft.AmountText)
	switch {
	case amountText == "":
		result[fieldAmount] = msgAmountRequired
	default:
		amount, err := strconv.ParseFloat(amountText, 64)
		switch {
		case err != nil || math.IsNaN(amount) || math.IsInf(amount, 0):
			result[fieldAmount] = msgAmountInvalid
		case amount <= 0:
			result[fieldAmount] = msgAmountTooLow
		case amount > bounds.Max:
			result[fieldAmount] = msgAmountTooHigh
		}
	}

	if strings.TrimSpace(draft.SelectedAssetID) == "" {
		result[fieldAsset] = msgAssetRequired
	}

	return result
}

// Form owns the purchase draft and its submission path. Submissions are
// simulations: the only side effects are a record emitted to the sink
// and a notification.
type Form struct {
	mu     sync.Mutex
	draft  models.PurchaseDraft
	bounds Bounds

	sink     messaging.PurchaseSink
	notifier *Notifier
	logger   *logrus.Entry
}

// NewForm creates a purchase form bound to a sink and notifier.
func NewForm(bounds Bounds, sink messaging.PurchaseSink, notifier *Notifier, logger *logrus.Logger) *Form {
	return &Form{
		bounds:   bounds,
		sink:     sink,
		notifier: notifier,
		logger:   logger.WithField("component", "purchase-form"),
	}
}

// SetAmount records user input for the amount field.
func (f *Form) SetAmount(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft.AmountText = text
}

// SetAsset records user input for the asset selection.
func (f *Form) SetAsset(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft.SelectedAssetID = id
}

// Draft returns the current draft state.
func (f *Form) Draft() models.PurchaseDraft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

// AutoFill sets the asset selection to the given default only when no
// selection exists. A user's non-empty selection is never overridden.
func (f *Form) AutoFill(defaultID string) {
	if defaultID == "" {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.draft.SelectedAssetID == "" {
		f.draft.SelectedAssetID = defaultID
	}
}

// Submit validates the draft and, when valid, resolves the selection
// against the snapshot and emits a simulated purchase. If the selected
// asset is no longer present the draft is left intact for correction
// and an error notification is posted. On success the draft is cleared
// and a success notification posted.
func (f *Form) Submit(snapshot []models.Asset) (*models.PurchaseRecord, models.ValidationResult) {
	f.mu.Lock()
	draft := f.draft
	f.mu.Unlock()

	result := Validate(draft, f.bounds)
	if !result.Valid() {
		return nil, result
	}

	amount, _ := strconv.ParseFloat(strings.TrimSpace(draft.AmountText), 64)

	asset, ok := resolveAsset(snapshot, strings.TrimSpace(draft.SelectedAssetID))
	if !ok {
		f.notifier.Show(msgAssetNotFound, models.NotifyError)
		return nil, result
	}

	// Full floating-point precision; formatting is the renderer's job.
	// A zero price yields +Inf here: upstream payloads allow priceUSD 0
	// and the quantity is carried through unclamped.
	record := &models.PurchaseRecord{
		ID:                uuid.New().String(),
		AssetID:           asset.ID,
		Symbol:            asset.Symbol,
		AmountUSD:         amount,
		PriceUSD:          asset.PriceUSD,
		EstimatedQuantity: amount / asset.PriceUSD,
		Timestamp:         time.Now().UTC(),
	}

	if err := f.sink.Publish(record); err != nil {
		f.logger.WithError(err).Warn("Purchase sink publish failed")
	}

	f.mu.Lock()
	f.draft = models.PurchaseDraft{}
	f.mu.Unlock()

	f.notifier.Show(
		"Simulated purchase of "+format.Quantity(record.EstimatedQuantity)+" "+asset.Symbol+" for "+format.USD(amount),
		models.NotifySuccess,
	)

	return record, result
}

// resolveAsset finds the asset with the given string id in the
// snapshot.
func resolveAsset(snapshot []models.Asset, id string) (models.Asset, bool) {
	assetID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return models.Asset{}, false
	}
	for _, a := range snapshot {
		if a.ID == assetID {
			return a, true
		}
	}
	return models.Asset{}, false
}
