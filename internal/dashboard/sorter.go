package dashboard

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/coindeck/pkg/models"
)

// SortKey selects the asset field to order by.
type SortKey string

const (
	SortByName   SortKey = "name"
	SortBySymbol SortKey = "symbol"
	SortByPrice  SortKey = "price"
	SortNone     SortKey = "none"
)

// SortDirection orders ascending or descending.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Sort returns a new ordered slice; the input is never mutated. String
// keys use locale-aware collation. SortNone is the presentation
// fallback before any explicit choice: ascending by name. Descending
// negates the comparator rather than reversing a sorted list, and the
// sort is stable, so equal keys retain snapshot order under either
// direction.
func Sort(assets []models.Asset, key SortKey, direction SortDirection) []models.Asset {
	out := make([]models.Asset, len(assets))
	copy(out, assets)

	if key == SortNone {
		key = SortByName
		direction = SortAsc
	}

	col := collate.New(language.AmericanEnglish)

	cmp := func(a, b models.Asset) int {
		switch key {
		case SortBySymbol:
			return col.CompareString(a.Symbol, b.Symbol)
		case SortByPrice:
			switch {
			case a.PriceUSD < b.PriceUSD:
				return -1
			case a.PriceUSD > b.PriceUSD:
				return 1
			default:
				return 0
			}
		default:
			return col.CompareString(a.Name, b.Name)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		c := cmp(out[i], out[j])
		if direction == SortDesc {
			c = -c
		}
		return c < 0
	})

	return out
}
