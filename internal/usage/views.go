package usage

import (
	"cmp"
	"slices"
	"strings"

	"github.com/j-veylop/flag-usage-dashboard-tui/internal/models"
)

// Sorted returns the records ordered by field in the given direction.
// Rows that compare equal keep their original relative order.
func (a *Aggregator) Sorted(field models.SortField, order models.SortOrder) []models.UsageRecord {
	out := a.Records()

	var compare func(x, y models.UsageRecord) int
	switch field {
	case models.SortByName:
		compare = func(x, y models.UsageRecord) int { return cmp.Compare(x.Name, y.Name) }
	case models.SortByOrigin:
		compare = func(x, y models.UsageRecord) int { return cmp.Compare(x.Origin, y.Origin) }
	default:
		compare = func(x, y models.UsageRecord) int { return cmp.Compare(x.Sum, y.Sum) }
	}

	if order == models.Descending {
		asc := compare
		compare = func(x, y models.UsageRecord) int { return asc(y, x) }
	}

	slices.SortStableFunc(out, compare)
	return out
}

// Origins returns the distinct origins in lexicographic order.
func (a *Aggregator) Origins() []string {
	return a.distinct(func(r models.UsageRecord) string { return r.Origin })
}

func (a *Aggregator) distinct(keyFn func(models.UsageRecord) string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, r := range a.records {
		k := keyFn(r)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// OriginFlags returns the records of one origin ordered by calls desc,
// truncated to limit. A limit <= 0 returns every record.
func (a *Aggregator) OriginFlags(origin string, limit int) []models.UsageRecord {
	out := make([]models.UsageRecord, 0)
	for _, r := range a.records {
		if r.Origin == origin {
			out = append(out, r)
		}
	}

	slices.SortStableFunc(out, func(x, y models.UsageRecord) int {
		if c := cmp.Compare(y.Sum, x.Sum); c != 0 {
			return c
		}
		return cmp.Compare(x.Name, y.Name)
	})

	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

// FlagMatches groups the flags whose name contains query, ignoring case.
// OriginCount is the number of matching records for the flag. Results are
// ordered by total calls desc then name asc. An empty query matches nothing.
func (a *Aggregator) FlagMatches(query string) []models.FlagMatch {
	out := make([]models.FlagMatch, 0)
	if query == "" {
		return out
	}
	q := strings.ToLower(query)

	index := make(map[string]int)
	for _, r := range a.records {
		if !strings.Contains(strings.ToLower(r.Name), q) {
			continue
		}
		i, ok := index[r.Name]
		if !ok {
			i = len(out)
			index[r.Name] = i
			out = append(out, models.FlagMatch{Name: r.Name})
		}
		out[i].TotalCalls += r.Sum
		out[i].OriginCount++
		out[i].Origins = append(out[i].Origins, r.Origin)
	}

	slices.SortStableFunc(out, func(x, y models.FlagMatch) int {
		if c := cmp.Compare(y.TotalCalls, x.TotalCalls); c != 0 {
			return c
		}
		return cmp.Compare(x.Name, y.Name)
	})
	return out
}
