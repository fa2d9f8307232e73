package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/coindeck/pkg/models"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fakeLister struct {
	body  []byte
	err   error
	calls int
}

func (f *fakeLister) Listings(ctx context.Context) ([]byte, error) {
	f.calls++
	return f.body, f.err
}

type fakeCache struct {
	env  *models.Envelope
	sets int
}

func (f *fakeCache) GetEnvelope(ctx context.Context) (*models.Envelope, error) {
	return f.env, nil
}

func (f *fakeCache) SetEnvelope(ctx context.Context, env *models.Envelope) error {
	f.sets++
	f.env = env
	return nil
}

func listingsBody(n int) []byte {
	var sb strings.Builder
	sb.WriteString(`{"status":{"error_code":0},"data":[`)
	for i := 1; i <= n; i++ {
		if i > 1 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, `{"id":%d,"name":"Coin %d","symbol":"C%d","cmc_rank":%d,"quote":{"USD":{"price":%d.5}}}`, i, i, i, i, i*100)
	}
	sb.WriteString(`]}`)
	return []byte(sb.String())
}

func TestFetchTruncatesToMaxInProviderOrder(t *testing.T) {
	lister := &fakeLister{body: listingsBody(50)}
	g := New(lister, nil, 10, testLogger())

	env, err := g.FetchTopAssets(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(env.Data) != 10 {
		t.Fatalf("expected 10 assets, got %d", len(env.Data))
	}
	for i, a := range env.Data {
		if a.ID != int64(i+1) {
			t.Fatalf("provider order not preserved at %d: id=%d", i, a.ID)
		}
	}
	if env.Data[0].Name != "Coin 1" || env.Data[0].Symbol != "C1" || env.Data[0].Rank != 1 {
		t.Fatalf("normalization wrong: %+v", env.Data[0])
	}
	if env.Data[0].PriceUSD != 100.5 {
		t.Fatalf("expected price 100.5, got %v", env.Data[0].PriceUSD)
	}
}

func TestFetchKeepsShortListsWhole(t *testing.T) {
	lister := &fakeLister{body: listingsBody(3)}
	g := New(lister, nil, 10, testLogger())

	env, err := g.FetchTopAssets(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(env.Data) != 3 {
		t.Fatalf("expected 3 assets, got %d", len(env.Data))
	}
}

func TestFetchRejectsMalformedPayloads(t *testing.T) {
	cases := map[string]string{
		"not json":          `?!`,
		"data not array":    `{"data":{"a":1},"status":{}}`,
		"status not object": `{"data":[],"status":"ok"}`,
		"missing data":      `{"status":{}}`,
	}
	for name, body := range cases {
		g := New(&fakeLister{body: []byte(body)}, nil, 10, testLogger())
		if _, err := g.FetchTopAssets(context.Background()); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestFetchPropagatesUpstreamFailure(t *testing.T) {
	lister := &fakeLister{err: errors.New("provider returned status 503")}
	g := New(lister, nil, 10, testLogger())

	_, err := g.FetchTopAssets(context.Background())
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Fatalf("expected wrapped upstream error, got %v", err)
	}
}

func TestFetchSkipsDuplicateIDs(t *testing.T) {
	body := `{"status":{},"data":[
		{"id":1,"name":"A","symbol":"A","cmc_rank":1,"quote":{"USD":{"price":1}}},
		{"id":1,"name":"A again","symbol":"A2","cmc_rank":2,"quote":{"USD":{"price":2}}},
		{"id":2,"name":"B","symbol":"B","cmc_rank":3,"quote":{"USD":{"price":3}}}
	]}`
	g := New(&fakeLister{body: []byte(body)}, nil, 10, testLogger())

	env, err := g.FetchTopAssets(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(env.Data) != 2 {
		t.Fatalf("expected duplicate id dropped, got %d assets", len(env.Data))
	}
	if env.Data[0].Name != "A" {
		t.Fatalf("first occurrence should win, got %q", env.Data[0].Name)
	}
}

func TestFetchUsesCacheAndWritesThrough(t *testing.T) {
	lister := &fakeLister{body: listingsBody(5)}
	c := &fakeCache{}
	g := New(lister, c, 10, testLogger())

	if _, err := g.FetchTopAssets(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lister.calls != 1 || c.sets != 1 {
		t.Fatalf("expected one upstream call and one cache write, got %d/%d", lister.calls, c.sets)
	}

	// Second fetch is served from cache; no outbound call.
	if _, err := g.FetchTopAssets(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lister.calls != 1 {
		t.Fatalf("expected cache hit, got %d upstream calls", lister.calls)
	}
}
