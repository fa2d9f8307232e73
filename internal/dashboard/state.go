// Package dashboard is the client side of the price deck: the polling
// state machine, sorting, purchase form, and notification slot that a
// renderer composes into a live view.
package dashboard

import "github.com/coindeck/pkg/models"

// Phase is the poller's lifecycle phase.
type Phase string

const (
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
	PhaseError   Phase = "error"
)

// PollState is an immutable view of the poller at one instant. Assets
// is a copy; mutating it does not affect the poller. In PhaseError the
// ErrorMessage is set and Assets holds the retained previous snapshot,
// which the presentation layer hides by convention.
type PollState struct {
	Phase        Phase
	Assets       []models.Asset
	Countdown    int
	ErrorMessage string
}
