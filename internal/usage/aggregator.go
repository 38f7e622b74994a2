// Package usage implements the in-memory filtering and aggregation queries
// over a loaded flag usage dataset.
package usage

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/j-veylop/flag-usage-dashboard-tui/internal/models"
)

// Aggregator owns an immutable, ordered set of usage records.
// Filtering returns a new Aggregator; no method mutates the receiver.
type Aggregator struct {
	records []models.UsageRecord
}

// Load validates records and returns an Aggregator over a private copy of them.
func Load(records []models.UsageRecord) (*Aggregator, error) {
	for i, r := range records {
		if math.IsNaN(r.Sum) || math.IsInf(r.Sum, 0) {
			return nil, &DataFormatError{
				Path:   fmt.Sprintf("%d.sum", i),
				Reason: fmt.Sprintf("sum must be a finite number, got %v", r.Sum),
			}
		}
	}

	owned := make([]models.UsageRecord, len(records))
	copy(owned, records)
	return &Aggregator{records: owned}, nil
}

// Len returns the number of records in the view.
func (a *Aggregator) Len() int {
	return len(a.records)
}

// Records returns a copy of the records in their original order.
func (a *Aggregator) Records() []models.UsageRecord {
	out := make([]models.UsageRecord, len(a.records))
	copy(out, a.records)
	return out
}

// Filter returns a view restricted to the given origins and to flags whose
// name contains criteria.NameQuery, ignoring case.
func (a *Aggregator) Filter(criteria models.FilterCriteria) *Aggregator {
	var origins map[string]struct{}
	if len(criteria.Origins) > 0 {
		origins = make(map[string]struct{}, len(criteria.Origins))
		for _, o := range criteria.Origins {
			origins[o] = struct{}{}
		}
	}
	query := strings.ToLower(criteria.NameQuery)

	out := make([]models.UsageRecord, 0, len(a.records))
	for _, r := range a.records {
		if origins != nil {
			if _, ok := origins[r.Origin]; !ok {
				continue
			}
		}
		if query != "" && !strings.Contains(strings.ToLower(r.Name), query) {
			continue
		}
		out = append(out, r)
	}
	return &Aggregator{records: out}
}

// TopByOrigin returns the origins with the highest summed calls.
func (a *Aggregator) TopByOrigin(limit int) []models.RankedEntry {
	return a.topBy(limit, func(r models.UsageRecord) string { return r.Origin })
}

// TopByName returns the flags with the highest summed calls.
func (a *Aggregator) TopByName(limit int) []models.RankedEntry {
	return a.topBy(limit, func(r models.UsageRecord) string { return r.Name })
}

// topBy groups by keyFn, sums calls, orders by total desc then key asc,
// and truncates to limit.
func (a *Aggregator) topBy(limit int, keyFn func(models.UsageRecord) string) []models.RankedEntry {
	if limit <= 0 {
		return []models.RankedEntry{}
	}

	totals := make(map[string]float64)
	for _, r := range a.records {
		totals[keyFn(r)] += r.Sum
	}

	entries := make([]models.RankedEntry, 0, len(totals))
	for k, v := range totals {
		entries = append(entries, models.RankedEntry{Key: k, Total: v})
	}
	slices.SortFunc(entries, func(x, y models.RankedEntry) int {
		if c := cmp.Compare(y.Total, x.Total); c != 0 {
			return c
		}
		return cmp.Compare(x.Key, y.Key)
	})

	if limit < len(entries) {
		entries = entries[:limit]
	}
	return entries
}

// OriginSummary returns record count, total and mean calls for an origin.
// It returns ErrDivisionUndefined with a zero-valued summary when the
// origin has no records.
func (a *Aggregator) OriginSummary(origin string) (models.OriginSummary, error) {
	summary := models.OriginSummary{Origin: origin}
	for _, r := range a.records {
		if r.Origin == origin {
			summary.RecordCount++
			summary.TotalCalls += r.Sum
		}
	}

	if summary.RecordCount == 0 {
		return summary, ErrDivisionUndefined
	}
	summary.MeanCalls = summary.TotalCalls / float64(summary.RecordCount)
	return summary, nil
}

// SharedFlags returns flags used by at least minOrigins distinct origins,
// ordered by distinct origin count desc then name asc.
func (a *Aggregator) SharedFlags(minOrigins int) []models.SharedFlag {
	type group struct {
		origins map[string]struct{}
		total   float64
	}

	groups := make(map[string]*group)
	for _, r := range a.records {
		g, ok := groups[r.Name]
		if !ok {
			g = &group{origins: make(map[string]struct{})}
			groups[r.Name] = g
		}
		g.origins[r.Origin] = struct{}{}
		g.total += r.Sum
	}

	out := make([]models.SharedFlag, 0)
	for name, g := range groups {
		if len(g.origins) > minOrigins-1 {
			out = append(out, models.SharedFlag{
				Name:                name,
				DistinctOriginCount: len(g.origins),
				TotalCalls:          g.total,
			})
		}
	}
	slices.SortFunc(out, func(x, y models.SharedFlag) int {
		if c := cmp.Compare(y.DistinctOriginCount, x.DistinctOriginCount); c != 0 {
			return c
		}
		return cmp.Compare(x.Name, y.Name)
	})
	return out
}

// FlagDetail returns the per-origin breakdown for an exact flag name.
// A flag with no records yields a zero-valued detail with an empty map.
func (a *Aggregator) FlagDetail(name string) models.FlagDetail {
	detail := models.FlagDetail{
		Name:      name,
		PerOrigin: make(map[string]float64),
	}
	for _, r := range a.records {
		if r.Name != name {
			continue
		}
		detail.TotalOriginCount++
		detail.TotalCalls += r.Sum
		detail.PerOrigin[r.Origin] += r.Sum
	}
	return detail
}

// Metrics returns the headline numbers for the view.
func (a *Aggregator) Metrics() models.Metrics {
	flags := make(map[string]struct{})
	origins := make(map[string]struct{})
	m := models.Metrics{TotalRecords: len(a.records)}

	for _, r := range a.records {
		flags[r.Name] = struct{}{}
		origins[r.Origin] = struct{}{}
		m.TotalCalls += r.Sum
	}

	m.UniqueFlagCount = len(flags)
	m.UniqueOriginCount = len(origins)
	return m
}
