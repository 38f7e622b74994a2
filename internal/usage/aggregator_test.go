package usage

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-veylop/flag-usage-dashboard-tui/internal/models"
)

func scenarioRecords() []models.UsageRecord {
	return []models.UsageRecord{
		{Origin: "svc-a", Name: "flagX", Sum: 10},
		{Origin: "svc-b", Name: "flagX", Sum: 5},
		{Origin: "svc-a", Name: "flagY", Sum: 3},
	}
}

func wideRecords() []models.UsageRecord {
	return []models.UsageRecord{
		{Origin: "checkout", Name: "new-cart", Sum: 120},
		{Origin: "search", Name: "new-cart", Sum: 30},
		{Origin: "search", Name: "fuzzy-Match", Sum: 75},
		{Origin: "billing", Name: "invoice-v2", Sum: 75},
		{Origin: "checkout", Name: "dark-mode", Sum: 5},
		{Origin: "search", Name: "dark-mode", Sum: 5},
		{Origin: "billing", Name: "dark-mode", Sum: 5},
		{Origin: "billing", Name: "new-cart", Sum: 0},
	}
}

func mustLoad(t *testing.T, records []models.UsageRecord) *Aggregator {
	t.Helper()
	agg, err := Load(records)
	require.NoError(t, err)
	return agg
}

func TestLoad_CopiesInput(t *testing.T) {
	records := scenarioRecords()
	agg := mustLoad(t, records)

	records[0].Sum = 999
	assert.Equal(t, 10.0, agg.Records()[0].Sum, "aggregator must own its records")

	out := agg.Records()
	out[1].Origin = "mutated"
	assert.Equal(t, "svc-b", agg.Records()[1].Origin, "Records must return a copy")
}

func TestLoad_AcceptsNegativeZeroAndDuplicates(t *testing.T) {
	agg := mustLoad(t, []models.UsageRecord{
		{Origin: "a", Name: "f", Sum: -4},
		{Origin: "a", Name: "f", Sum: 0},
		{Origin: "a", Name: "f", Sum: 10},
	})

	m := agg.Metrics()
	assert.Equal(t, 3, m.TotalRecords)
	assert.Equal(t, 1, m.UniqueFlagCount)
	assert.Equal(t, 6.0, m.TotalCalls)

	summary, err := agg.OriginSummary("a")
	require.NoError(t, err)
	assert.Equal(t, 3, summary.RecordCount)
	assert.InDelta(t, 2.0, summary.MeanCalls, 1e-9)
}

func TestLoad_RejectsNonFiniteSum(t *testing.T) {
	tests := []struct {
		name string
		sum  float64
	}{
		{"NaN", math.NaN()},
		{"PosInf", math.Inf(1)},
		{"NegInf", math.Inf(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]models.UsageRecord{
				{Origin: "a", Name: "ok", Sum: 1},
				{Origin: "a", Name: "bad", Sum: tt.sum},
			})
			require.Error(t, err)

			var dfe *DataFormatError
			require.True(t, errors.As(err, &dfe))
			assert.Equal(t, "1.sum", dfe.Path)
			assert.True(t, IsDataFormatError(err))
		})
	}
}

func TestLoad_Empty(t *testing.T) {
	agg := mustLoad(t, nil)
	assert.Equal(t, 0, agg.Len())
	assert.Equal(t, models.Metrics{}, agg.Metrics())
	assert.Empty(t, agg.TopByOrigin(5))
	assert.Empty(t, agg.SharedFlags(2))
}

func TestScenario(t *testing.T) {
	agg := mustLoad(t, scenarioRecords())

	assert.Equal(t, models.Metrics{
		TotalRecords:      3,
		UniqueFlagCount:   2,
		UniqueOriginCount: 2,
		TotalCalls:        18,
	}, agg.Metrics())

	assert.Equal(t, []models.RankedEntry{{Key: "flagX", Total: 15}}, agg.TopByName(1))

	assert.Equal(t, []models.SharedFlag{
		{Name: "flagX", DistinctOriginCount: 2, TotalCalls: 15},
	}, agg.SharedFlags(2))

	assert.Equal(t, models.FlagDetail{
		Name:             "flagX",
		TotalOriginCount: 2,
		TotalCalls:       15,
		PerOrigin:        map[string]float64{"svc-a": 10, "svc-b": 5},
	}, agg.FlagDetail("flagX"))
}

func TestMetrics_TotalRecordsMatchesInput(t *testing.T) {
	for _, records := range [][]models.UsageRecord{nil, scenarioRecords(), wideRecords()} {
		agg := mustLoad(t, records)
		assert.Equal(t, len(records), agg.Metrics().TotalRecords)
	}
}

func TestFilter_Identity(t *testing.T) {
	agg := mustLoad(t, wideRecords())
	assert.Equal(t, agg.Records(), agg.Filter(models.FilterCriteria{}).Records())
	assert.Equal(t, agg.Records(), agg.Filter(models.FilterCriteria{Origins: []string{}}).Records())
}

func TestFilter_ByOrigin(t *testing.T) {
	agg := mustLoad(t, wideRecords())
	view := agg.Filter(models.FilterCriteria{Origins: []string{"billing", "checkout"}})

	want := []models.UsageRecord{
		{Origin: "checkout", Name: "new-cart", Sum: 120},
		{Origin: "billing", Name: "invoice-v2", Sum: 75},
		{Origin: "checkout", Name: "dark-mode", Sum: 5},
		{Origin: "billing", Name: "dark-mode", Sum: 5},
		{Origin: "billing", Name: "new-cart", Sum: 0},
	}
	assert.Equal(t, want, view.Records(), "filter keeps relative order")
	assert.Equal(t, 8, agg.Len(), "source view must not change")
}

func TestFilter_NameCaseInsensitive(t *testing.T) {
	agg := mustLoad(t, wideRecords())

	view := agg.Filter(models.FilterCriteria{NameQuery: "MATCH"})
	require.Equal(t, 1, view.Len())
	assert.Equal(t, "fuzzy-Match", view.Records()[0].Name)

	combined := agg.Filter(models.FilterCriteria{Origins: []string{"search"}, NameQuery: "cart"})
	assert.Equal(t, []models.UsageRecord{{Origin: "search", Name: "new-cart", Sum: 30}}, combined.Records())
}

func TestFilter_NoMatch(t *testing.T) {
	agg := mustLoad(t, wideRecords())
	view := agg.Filter(models.FilterCriteria{Origins: []string{"nope"}})

	assert.Equal(t, 0, view.Len())
	assert.Equal(t, models.Metrics{}, view.Metrics())
	assert.Empty(t, view.TopByName(10))
}

func TestFilter_Idempotent(t *testing.T) {
	agg := mustLoad(t, wideRecords())
	criteria := models.FilterCriteria{Origins: []string{"search", "billing"}, NameQuery: "a"}

	once := agg.Filter(criteria)
	twice := once.Filter(criteria)
	assert.Equal(t, once.Records(), twice.Records())
}

func TestTopByOrigin(t *testing.T) {
	agg := mustLoad(t, wideRecords())

	got := agg.TopByOrigin(10)
	assert.Equal(t, []models.RankedEntry{
		{Key: "checkout", Total: 125},
		{Key: "search", Total: 110},
		{Key: "billing", Total: 80},
	}, got)
}

func TestTopBy_LimitBounds(t *testing.T) {
	agg := mustLoad(t, wideRecords())
	uniqueOrigins := agg.Metrics().UniqueOriginCount

	for _, limit := range []int{-3, 0, 1, 2, 3, 4, 100} {
		got := agg.TopByOrigin(limit)
		want := 0
		if limit > 0 {
			want = min(limit, uniqueOrigins)
		}
		assert.Len(t, got, want, "limit %d", limit)
	}
}

func TestTopByName_TieBreakByKey(t *testing.T) {
	agg := mustLoad(t, wideRecords())

	got := agg.TopByName(10)
	assert.Equal(t, []models.RankedEntry{
		{Key: "new-cart", Total: 150},
		{Key: "fuzzy-Match", Total: 75},
		{Key: "invoice-v2", Total: 75},
		{Key: "dark-mode", Total: 15},
	}, got)
}

func TestTopByName_CoversTotal(t *testing.T) {
	agg := mustLoad(t, wideRecords())
	m := agg.Metrics()

	var total float64
	for _, e := range agg.TopByName(m.UniqueFlagCount) {
		total += e.Total
	}
	assert.InDelta(t, m.TotalCalls, total, 1e-9)
}

func TestOriginSummary(t *testing.T) {
	agg := mustLoad(t, wideRecords())

	got, err := agg.OriginSummary("search")
	require.NoError(t, err)
	assert.Equal(t, models.OriginSummary{
		Origin:      "search",
		RecordCount: 3,
		TotalCalls:  110,
		MeanCalls:   110.0 / 3,
	}, got)
}

func TestOriginSummary_EmptyGroup(t *testing.T) {
	agg := mustLoad(t, wideRecords())

	got, err := agg.OriginSummary("missing")
	assert.ErrorIs(t, err, ErrDivisionUndefined)
	assert.Equal(t, models.OriginSummary{Origin: "missing"}, got)
}

func TestSharedFlags(t *testing.T) {
	agg := mustLoad(t, wideRecords())

	got := agg.SharedFlags(2)
	assert.Equal(t, []models.SharedFlag{
		{Name: "dark-mode", DistinctOriginCount: 3, TotalCalls: 15},
		{Name: "new-cart", DistinctOriginCount: 3, TotalCalls: 150},
	}, got)

	for _, f := range got {
		assert.Greater(t, f.DistinctOriginCount, 1)
	}
}

func TestSharedFlags_Threshold(t *testing.T) {
	agg := mustLoad(t, wideRecords())

	assert.Len(t, agg.SharedFlags(1), 4, "min 1 keeps every flag")
	assert.Len(t, agg.SharedFlags(3), 2)
	assert.Empty(t, agg.SharedFlags(4))
}

func TestSharedFlags_DuplicateRowsCountOnce(t *testing.T) {
	agg := mustLoad(t, []models.UsageRecord{
		{Origin: "a", Name: "dup", Sum: 1},
		{Origin: "a", Name: "dup", Sum: 2},
	})
	assert.Empty(t, agg.SharedFlags(2), "one distinct origin is not shared")
}

func TestFlagDetail_NotFound(t *testing.T) {
	agg := mustLoad(t, wideRecords())

	got := agg.FlagDetail("does-not-exist")
	assert.Equal(t, 0, got.TotalOriginCount)
	assert.Equal(t, 0.0, got.TotalCalls)
	assert.NotNil(t, got.PerOrigin)
	assert.Empty(t, got.PerOrigin)
}

func TestFlagDetail_ExactMatchOnly(t *testing.T) {
	agg := mustLoad(t, wideRecords())

	assert.Zero(t, agg.FlagDetail("new").TotalOriginCount)
	assert.Zero(t, agg.FlagDetail("NEW-CART").TotalOriginCount)
	assert.Equal(t, 3, agg.FlagDetail("new-cart").TotalOriginCount)
}

func TestQueries_Pure(t *testing.T) {
	agg := mustLoad(t, wideRecords())

	assert.Equal(t, agg.TopByOrigin(3), agg.TopByOrigin(3))
	assert.Equal(t, agg.SharedFlags(2), agg.SharedFlags(2))

	first := agg.FlagDetail("dark-mode")
	first.PerOrigin["search"] = 1000
	assert.Equal(t, 5.0, agg.FlagDetail("dark-mode").PerOrigin["search"])
}
