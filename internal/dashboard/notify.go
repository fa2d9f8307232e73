package dashboard

import (
	"sync"
	"time"

	"github.com/coindeck/pkg/models"
)

// Notifier is a single mutable notification slot with a cancel-and-
// restart expiry timer. It is deliberately not a queue: a new Show
// overwrites the current message and restarts the delay, and only the
// latest message is ever shown.
type Notifier struct {
	mu      sync.Mutex
	current models.Notification
	timer   *time.Timer
	delay   time.Duration
	gen     uint64
}

// NewNotifier creates a notifier whose messages auto-hide after delay.
func NewNotifier(delay time.Duration) *Notifier {
	return &Notifier{delay: delay}
}

// Show replaces any current notification and restarts the auto-hide
// timer from now.
func (n *Notifier) Show(text string, kind models.NotificationKind) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.timer != nil {
		n.timer.Stop()
	}

	n.gen++
	gen := n.gen
	n.current = models.Notification{Text: text, Kind: kind, Visible: true}
	n.timer = time.AfterFunc(n.delay, func() {
		n.hideExpired(gen)
	})
}

// Hide immediately marks the current notification invisible. The text
// is kept so a fade-out can still reference the last message.
func (n *Notifier) Hide() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current.Visible = false
}

// hideExpired hides the slot only if no newer Show superseded the timer
// that fired.
func (n *Notifier) hideExpired(gen uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if gen == n.gen {
		n.current.Visible = false
	}
}

// Current returns the notification slot's present contents.
func (n *Notifier) Current() models.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}
