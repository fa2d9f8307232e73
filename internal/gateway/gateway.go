// Package gateway fetches top-N assets from the market-data provider
// and republishes them as a normalized envelope. It is the only place
// the provider payload shape is trusted or validated.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/coindeck/pkg/models"
)

// Lister issues a single listings request to the provider.
type Lister interface {
	Listings(ctx context.Context) ([]byte, error)
}

// EnvelopeCache is an optional shared cache for the normalized
// envelope. A (nil, nil) return from Get is a miss.
type EnvelopeCache interface {
	GetEnvelope(ctx context.Context) (*models.Envelope, error)
	SetEnvelope(ctx context.Context, env *models.Envelope) error
}

// Gateway exposes one read operation: fetch top-N assets.
type Gateway struct {
	lister   Lister
	cache    EnvelopeCache
	maxCount int
	logger   *logrus.Entry
}

// New creates a gateway. cache may be nil, in which case every fetch
// goes to the provider.
func New(lister Lister, cache EnvelopeCache, maxCount int, logger *logrus.Logger) *Gateway {
	return &Gateway{
		lister:   lister,
		cache:    cache,
		maxCount: maxCount,
		logger:   logger.WithField("component", "gateway"),
	}
}

// listingEntry mirrors the provider's per-asset shape. Anything beyond
// these fields is ignored.
type listingEntry struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Rank   int    `json:"cmc_rank"`
	Quote  map[string]struct {
		Price float64 `json:"price"`
	} `json:"quote"`
}

// rawEnvelope is the untyped external contract: the parse step rejects
// anything not matching {data: array, status: object}.
type rawEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Status json.RawMessage `json:"status"`
}

// FetchTopAssets returns the normalized, truncated asset envelope. It
// issues at most one outbound request; on a shared-cache hit it issues
// none.
func (g *Gateway) FetchTopAssets(ctx context.Context) (*models.Envelope, error) {
	if g.cache != nil {
		env, err := g.cache.GetEnvelope(ctx)
		if err != nil {
			g.logger.WithError(err).Warn("Envelope cache read failed")
		} else if env != nil {
			return env, nil
		}
	}

	body, err := g.lister.Listings(ctx)
	if err != nil {
		return nil, fmt.Errorf("upstream fetch failed: %w", err)
	}

	env, err := parseListings(body)
	if err != nil {
		return nil, fmt.Errorf("upstream payload rejected: %w", err)
	}

	if len(env.Data) > g.maxCount {
		env.Data = env.Data[:g.maxCount]
	}

	if g.cache != nil {
		if err := g.cache.SetEnvelope(ctx, env); err != nil {
			g.logger.WithError(err).Warn("Envelope cache write failed")
		}
	}

	g.logger.WithField("count", len(env.Data)).Debug("Fetched top assets")

	return env, nil
}

// parseListings validates and normalizes the provider payload. The
// provider order is preserved; no duplicate ids are expected within one
// payload and the first occurrence wins if the provider misbehaves.
func parseListings(body []byte) (*models.Envelope, error) {
	var raw rawEnvelope
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("malformed JSON: %w", err)
	}

	if len(raw.Data) == 0 || raw.Data[0] != '[' {
		return nil, fmt.Errorf("payload field %q is not an array", "data")
	}
	if len(raw.Status) == 0 || raw.Status[0] != '{' {
		return nil, fmt.Errorf("payload field %q is not an object", "status")
	}

	var entries []listingEntry
	if err := json.Unmarshal(raw.Data, &entries); err != nil {
		return nil, fmt.Errorf("malformed asset list: %w", err)
	}

	assets := make([]models.Asset, 0, len(entries))
	seen := make(map[int64]struct{}, len(entries))
	for _, e := range entries {
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}

		price := 0.0
		if q, ok := e.Quote["USD"]; ok {
			price = q.Price
		}

		assets = append(assets, models.Asset{
			ID:       e.ID,
			Name:     e.Name,
			Symbol:   e.Symbol,
			Rank:     e.Rank,
			PriceUSD: price,
		})
	}

	return &models.Envelope{
		Data:   assets,
		Status: raw.Status,
	}, nil
}
