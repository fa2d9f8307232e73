package dashboard

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coindeck/pkg/config"
)

// gatewayStub serves either a fixed envelope or a 500, switchable per
// test step.
type gatewayStub struct {
	*httptest.Server
	body atomic.Value // string
	fail atomic.Bool
}

func newGatewayStub(body string) *gatewayStub {
	g := &gatewayStub{}
	g.body.Store(body)
	g.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"upstream down"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, g.body.Load().(string))
	}))
	return g
}

func pollerConfig(url string) *config.DashboardConfig {
	return &config.DashboardConfig{
		GatewayURL:       url,
		RefreshInterval:  time.Hour, // tests drive fetches manually
		CountdownSeconds: 10,
		PreferredSymbol:  "BTC",
		RequestTimeout:   time.Second,
	}
}

const twoAssets = `{"data":[
	{"id":7,"name":"Ethereum","symbol":"ETH","rank":2,"priceUSD":3200},
	{"id":9,"name":"Bitcoin","symbol":"BTC","rank":1,"priceUSD":65000}
],"status":{}}`

func TestPollerStartsLoading(t *testing.T) {
	p := NewPoller(pollerConfig("http://127.0.0.1:0"), testLogger())
	state := p.State()
	if state.Phase != PhaseLoading {
		t.Fatalf("expected loading, got %s", state.Phase)
	}
	if len(state.Assets) != 0 || state.Countdown != 0 {
		t.Fatalf("no snapshot or countdown before first fetch: %+v", state)
	}
	if p.DefaultAssetID() != "" {
		t.Fatalf("empty snapshot must yield empty default asset")
	}
}

func TestPollerSuccessFailureRecovery(t *testing.T) {
	gw := newGatewayStub(twoAssets)
	defer gw.Close()

	p := NewPoller(pollerConfig(gw.URL), testLogger())

	p.fetch()
	state := p.State()
	if state.Phase != PhaseReady {
		t.Fatalf("expected ready, got %s (%s)", state.Phase, state.ErrorMessage)
	}
	if len(state.Assets) != 2 || state.Countdown != 10 {
		t.Fatalf("unexpected ready state: %+v", state)
	}

	// Failed refresh: error state, previous snapshot retained.
	gw.fail.Store(true)
	p.fetch()
	state = p.State()
	if state.Phase != PhaseError || state.ErrorMessage == "" {
		t.Fatalf("expected error state, got %+v", state)
	}
	if len(state.Assets) != 2 || state.Assets[0].ID != 7 {
		t.Fatalf("previous snapshot must be retained: %+v", state.Assets)
	}

	// Recovery: snapshot fully replaced, countdown reset.
	gw.fail.Store(false)
	gw.body.Store(`{"data":[{"id":42,"name":"Solana","symbol":"SOL","rank":5,"priceUSD":150}],"status":{}}`)
	p.fetch()
	state = p.State()
	if state.Phase != PhaseReady || state.ErrorMessage != "" {
		t.Fatalf("expected recovery, got %+v", state)
	}
	if len(state.Assets) != 1 || state.Assets[0].ID != 42 {
		t.Fatalf("snapshot must be replaced wholesale: %+v", state.Assets)
	}
	if state.Countdown != 10 {
		t.Fatalf("countdown must reset on success, got %d", state.Countdown)
	}
}

func TestPollerErrorCarriesStatusAndBody(t *testing.T) {
	gw := newGatewayStub(twoAssets)
	defer gw.Close()
	gw.fail.Store(true)

	p := NewPoller(pollerConfig(gw.URL), testLogger())
	p.fetch()

	msg := p.State().ErrorMessage
	if msg == "" {
		t.Fatalf("expected error message")
	}
	for _, want := range []string{"500", "upstream down"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("error message %q should contain %q", msg, want)
		}
	}
}

func TestPollerMalformedEnvelope(t *testing.T) {
	gw := newGatewayStub(`not json`)
	defer gw.Close()

	p := NewPoller(pollerConfig(gw.URL), testLogger())
	p.fetch()
	if p.State().Phase != PhaseError {
		t.Fatalf("malformed envelope must produce the error state")
	}
}

func TestPollerDefaultAsset(t *testing.T) {
	gw := newGatewayStub(twoAssets)
	defer gw.Close()

	p := NewPoller(pollerConfig(gw.URL), testLogger())
	p.fetch()

	// BTC is second in the snapshot; position must not matter.
	if got := p.DefaultAssetID(); got != "9" {
		t.Fatalf("expected BTC id 9, got %q", got)
	}

	// No BTC: first asset in snapshot order wins.
	gw.body.Store(`{"data":[
		{"id":7,"name":"Ethereum","symbol":"ETH","rank":2,"priceUSD":3200},
		{"id":42,"name":"Solana","symbol":"SOL","rank":5,"priceUSD":150}
	],"status":{}}`)
	p.fetch()
	if got := p.DefaultAssetID(); got != "7" {
		t.Fatalf("expected first asset id 7, got %q", got)
	}

	// Empty snapshot: empty result.
	gw.body.Store(`{"data":[],"status":{}}`)
	p.fetch()
	if got := p.DefaultAssetID(); got != "" {
		t.Fatalf("expected empty default, got %q", got)
	}
}

func TestPollerStopDiscardsLateResults(t *testing.T) {
	gw := newGatewayStub(twoAssets)
	defer gw.Close()

	p := NewPoller(pollerConfig(gw.URL), testLogger())
	p.Stop()

	// A fetch resolving after teardown must not mutate state.
	p.fetch()
	state := p.State()
	if state.Phase != PhaseLoading || len(state.Assets) != 0 {
		t.Fatalf("state mutated after stop: %+v", state)
	}
}

func TestPollerLifecycleWithTimers(t *testing.T) {
	gw := newGatewayStub(twoAssets)
	defer gw.Close()

	cfg := pollerConfig(gw.URL)
	cfg.RefreshInterval = 20 * time.Millisecond

	p := NewPoller(cfg, testLogger())
	p.Start()

	deadline := time.After(2 * time.Second)
	for p.State().Phase != PhaseReady {
		select {
		case <-deadline:
			t.Fatalf("poller never became ready")
		case <-time.After(10 * time.Millisecond):
		}
	}

	p.Stop()
	// Stop is idempotent and must not hang or panic.
	p.Stop()
	p.Refresh() // no-op after stop

	state := p.State()
	if state.Phase != PhaseReady || len(state.Assets) != 2 {
		t.Fatalf("unexpected final state: %+v", state)
	}
}
