package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/coindeck/pkg/config"
	"github.com/coindeck/pkg/models"
)

// fallbackErrorMessage is used when a refresh fails without any usable
// detail.
const fallbackErrorMessage = "Failed to refresh prices"

// Poller drives data freshness for the dashboard. Two independent
// cadences run for its lifetime: the refresh interval re-fetches the
// gateway, and a one-second tick drives the visible countdown. The two
// are deliberately not coupled into a single timer.
type Poller struct {
	client          *http.Client
	url             string
	refreshInterval time.Duration
	countdownFrom   int
	preferredSymbol string
	logger          *logrus.Entry

	mu        sync.Mutex
	phase     Phase
	snapshot  []models.Asset
	errMsg    string
	countdown int
	stopped   bool

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewPoller creates a poller for the configured gateway endpoint.
func NewPoller(cfg *config.DashboardConfig, logger *logrus.Logger) *Poller {
	return &Poller{
		client: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		url:             cfg.GatewayURL,
		refreshInterval: cfg.RefreshInterval,
		countdownFrom:   cfg.CountdownSeconds,
		preferredSymbol: cfg.PreferredSymbol,
		logger:          logger.WithField("component", "poller"),
		phase:           PhaseLoading,
		stop:            make(chan struct{}),
	}
}

// Start fetches immediately and begins both timers. State is
// PhaseLoading until the first fetch resolves; no countdown runs while
// loading.
func (p *Poller) Start() {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.fetch()
	}()

	p.wg.Add(2)
	go p.refreshLoop()
	go p.countdownLoop()
}

// Stop releases both timers. An in-flight fetch is not cancelled, but
// its result is discarded; no state mutation happens after Stop.
func (p *Poller) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()

	close(p.stop)
	p.wg.Wait()
}

// Refresh triggers an on-demand fetch. Overlapping fetches are allowed;
// the later-resolving one wins, which is acceptable for an idempotent
// read-only feed.
func (p *Poller) Refresh() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		p.fetch()
	}()
}

// refreshLoop is the sole driver of data freshness.
func (p *Poller) refreshLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.fetch()
		case <-p.stop:
			return
		}
	}
}

// countdownLoop ticks the display countdown once per second. It pauses
// while the poller is not in PhaseReady and wraps back to the initial
// value on reaching zero; wrapping never triggers a fetch.
func (p *Poller) countdownLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.mu.Lock()
			if p.phase == PhaseReady {
				p.countdown--
				if p.countdown <= 0 {
					p.countdown = p.countdownFrom
				}
			}
			p.mu.Unlock()
		case <-p.stop:
			return
		}
	}
}

// fetch performs one gateway request and applies its outcome. Results
// arriving after Stop are dropped.
func (p *Poller) fetch() {
	assets, err := p.fetchAssets()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}

	if err != nil {
		p.phase = PhaseError
		p.errMsg = err.Error()
		// Previous snapshot is retained, countdown pauses.
		p.logger.WithError(err).Warn("Refresh failed")
		return
	}

	p.phase = PhaseReady
	p.snapshot = assets
	p.errMsg = ""
	p.countdown = p.countdownFrom
}

// fetchAssets calls the gateway and decodes the envelope. The error it
// returns is already shaped for display.
func (p *Poller) fetchAssets() ([]models.Asset, error) {
	ctx, cancel := context.WithTimeout(context.Background(), p.client.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %s", fallbackErrorMessage, err.Error())
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %s", fallbackErrorMessage, err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %s", fallbackErrorMessage, err.Error())
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(body))
	}

	var env models.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%s: malformed response", fallbackErrorMessage)
	}

	return env.Data, nil
}

// State returns an immutable view of the current poll state.
func (p *Poller) State() PollState {
	p.mu.Lock()
	defer p.mu.Unlock()

	assets := make([]models.Asset, len(p.snapshot))
	copy(assets, p.snapshot)

	return PollState{
		Phase:        p.phase,
		Assets:       assets,
		Countdown:    p.countdown,
		ErrorMessage: p.errMsg,
	}
}

// DefaultAssetID returns the id of the asset whose symbol matches the
// preferred symbol, else the first asset in snapshot order, else the
// empty string. It is recomputed from the live snapshot on every call.
func (p *Poller) DefaultAssetID() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, a := range p.snapshot {
		if a.Symbol == p.preferredSymbol {
			return strconv.FormatInt(a.ID, 10)
		}
	}
	if len(p.snapshot) > 0 {
		return strconv.FormatInt(p.snapshot[0].ID, 10)
	}
	return ""
}
