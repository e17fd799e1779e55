package catalog

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/neexbeast/boardinghub/internal/apperr"
)

// Source produces the raw catalog rows. It is read once at startup.
type Source interface {
	Records(ctx context.Context) ([]Record, error)
}

// Snapshot is an immutable, ordered view of the catalog.
// It is safe for concurrent use; nothing mutates it after NewSnapshot returns.
type Snapshot struct {
	entries []Entry
}

// NewSnapshot normalizes records into a snapshot, keeping their order.
// Records without an id or with a negative or non-finite price are rejected.
func NewSnapshot(records []Record) (*Snapshot, error) {
	entries := make([]Entry, 0, len(records))
	for i, r := range records {
		r.ID = strings.TrimSpace(r.ID)
		if r.ID == "" {
			return nil, fmt.Errorf("record %d: missing id", i+1)
		}
		if r.Price < 0 || math.IsNaN(r.Price) || math.IsInf(r.Price, 0) {
			return nil, fmt.Errorf("record %d (%s): invalid price %v", i+1, r.ID, r.Price)
		}
		entries = append(entries, newEntry(r))
	}
	return &Snapshot{entries: entries}, nil
}

// Load reads every record from src and builds a snapshot.
// Any failure is a catalog error; no partial snapshot is returned.
func Load(ctx context.Context, src Source) (*Snapshot, error) {
	records, err := src.Records(ctx)
	if err != nil {
		return nil, apperr.Catalog(fmt.Errorf("reading catalog: %w", err))
	}

	snap, err := NewSnapshot(records)
	if err != nil {
		return nil, apperr.Catalog(fmt.Errorf("building catalog: %w", err))
	}

	return snap, nil
}

// Len returns the number of entries.
func (s *Snapshot) Len() int {
	return len(s.entries)
}

// Entries returns a copy of all entries in catalog order.
func (s *Snapshot) Entries() []Entry {
	return s.filter(func(Entry) bool { return true })
}

// ByLocation returns entries whose location contains loc, ignoring case.
func (s *Snapshot) ByLocation(loc string) []Entry {
	return s.filter(func(e Entry) bool { return e.LocationContains(loc) })
}

// ByTier returns entries whose price tier contains tier, ignoring case.
func (s *Snapshot) ByTier(tier string) []Entry {
	return s.filter(func(e Entry) bool { return e.TierContains(tier) })
}

// ByAmenity returns entries whose amenities contain token, ignoring case.
func (s *Snapshot) ByAmenity(token string) []Entry {
	return s.filter(func(e Entry) bool { return e.AmenitiesContain(token) })
}

// CountByTier returns the number of entries per price tier.
func (s *Snapshot) CountByTier() map[PriceTier]int {
	counts := map[PriceTier]int{TierCheap: 0, TierAffordable: 0, TierExpensive: 0}
	for _, e := range s.entries {
		counts[e.Tier]++
	}
	return counts
}

func (s *Snapshot) filter(keep func(Entry) bool) []Entry {
	out := make([]Entry, 0)
	for _, e := range s.entries {
		if keep(e) {
			out = append(out, e.clone())
		}
	}
	return out
}
