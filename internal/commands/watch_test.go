package commands

import (
	"strings"
	"testing"

	"github.com/coindeck/internal/dashboard"
)

func TestParseSortFlagsAcceptsKnownValues(t *testing.T) {
	for _, key := range []string{"name", "symbol", "price", "none"} {
		for _, dir := range []string{"asc", "desc"} {
			k, d, err := parseSortFlags(key, dir)
			if err != nil {
				t.Fatalf("parseSortFlags(%q, %q): %v", key, dir, err)
			}
			if string(k) != key || string(d) != dir {
				t.Fatalf("parseSortFlags(%q, %q) = (%q, %q)", key, dir, k, d)
			}
		}
	}
}

func TestParseSortFlagsRejectsUnknownKey(t *testing.T) {
	_, _, err := parseSortFlags("rank", "asc")
	if err == nil {
		t.Fatal("expected an error for an unknown sort key")
	}
	if !strings.Contains(err.Error(), "rank") {
		t.Fatalf("error should name the bad value, got %q", err)
	}
}

func TestParseSortFlagsRejectsUnknownDirection(t *testing.T) {
	_, _, err := parseSortFlags("price", "down")
	if err == nil {
		t.Fatal("expected an error for an unknown direction")
	}
	if !strings.Contains(err.Error(), "down") {
		t.Fatalf("error should name the bad value, got %q", err)
	}
}

func TestParseSortFlagsDefaultsAreValid(t *testing.T) {
	k, d, err := parseSortFlags("none", "asc")
	if err != nil {
		t.Fatalf("default flag values must parse: %v", err)
	}
	if k != dashboard.SortNone || d != dashboard.SortAsc {
		t.Fatalf("defaults parsed as (%q, %q)", k, d)
	}
}
