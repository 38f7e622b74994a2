// Package models defines data structures and domain types.
package models

import (
	"fmt"
	"strings"
)

// UsageRecord is one row of the flag usage dataset.
type UsageRecord struct {
	Origin string  `json:"origin"`
	Name   string  `json:"name"`
	Sum    float64 `json:"sum"`
}

// RankedEntry is a group key with its summed call count.
type RankedEntry struct {
	Key   string
	Total float64
}

// OriginSummary describes all records attributed to a single origin.
type OriginSummary struct {
	Origin      string
	RecordCount int
	TotalCalls  float64
	MeanCalls   float64
}

// SharedFlag is a flag invoked by more than one origin.
type SharedFlag struct {
	Name                string
	DistinctOriginCount int
	TotalCalls          float64
}

// FlagDetail breaks a single flag's usage down by origin.
type FlagDetail struct {
	Name             string
	TotalOriginCount int
	TotalCalls       float64
	PerOrigin        map[string]float64
}

// FlagMatch is one flag returned by a name search, grouped across origins.
type FlagMatch struct {
	Name        string
	TotalCalls  float64
	OriginCount int
	Origins     []string
}

// Metrics holds the headline numbers for a record set.
type Metrics struct {
	TotalRecords      int
	UniqueFlagCount   int
	UniqueOriginCount int
	TotalCalls        float64
}

// FilterCriteria restricts a record set by origin and flag name.
// Empty fields impose no restriction.
type FilterCriteria struct {
	Origins   []string
	NameQuery string
}

// IsEmpty returns true if the criteria do not restrict anything.
func (c FilterCriteria) IsEmpty() bool {
	return len(c.Origins) == 0 && c.NameQuery == ""
}

// HasOrigin returns true if origin is part of the origin restriction.
func (c FilterCriteria) HasOrigin(origin string) bool {
	for _, o := range c.Origins {
		if o == origin {
			return true
		}
	}
	return false
}

// ToggleOrigin returns a copy of the criteria with origin added or removed.
func (c FilterCriteria) ToggleOrigin(origin string) FilterCriteria {
	out := FilterCriteria{NameQuery: c.NameQuery}
	removed := false
	for _, o := range c.Origins {
		if o == origin {
			removed = true
			continue
		}
		out.Origins = append(out.Origins, o)
	}
	if !removed {
		out.Origins = append(out.Origins, origin)
	}
	return out
}

// String returns a short human-readable description of the criteria.
func (c FilterCriteria) String() string {
	if c.IsEmpty() {
		return "none"
	}
	var parts []string
	if len(c.Origins) > 0 {
		parts = append(parts, "origins="+strings.Join(c.Origins, ","))
	}
	if c.NameQuery != "" {
		parts = append(parts, fmt.Sprintf("name~%q", c.NameQuery))
	}
	return strings.Join(parts, " ")
}

// SortField selects the column used to order raw rows.
type SortField int

const (
	// SortBySum orders rows by call count.
	SortBySum SortField = iota
	// SortByName orders rows by flag name.
	SortByName
	// SortByOrigin orders rows by origin.
	SortByOrigin
)

// String returns the column name for a sort field.
func (f SortField) String() string {
	switch f {
	case SortBySum:
		return "sum"
	case SortByName:
		return "name"
	case SortByOrigin:
		return "origin"
	default:
		return "unknown"
	}
}

// Next cycles to the next sort field.
func (f SortField) Next() SortField {
	return (f + 1) % 3
}

// ParseSortField converts a column name into a SortField.
func ParseSortField(s string) (SortField, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sum", "":
		return SortBySum, nil
	case "name":
		return SortByName, nil
	case "origin":
		return SortByOrigin, nil
	default:
		return SortBySum, fmt.Errorf("unknown sort field %q (want sum, name or origin)", s)
	}
}

// SortOrder is the direction of a sort.
type SortOrder int

const (
	// Descending puts the largest values first.
	Descending SortOrder = iota
	// Ascending puts the smallest values first.
	Ascending
)

// String returns the display name for a sort order.
func (o SortOrder) String() string {
	if o == Ascending {
		return "ascending"
	}
	return "descending"
}

// Toggle flips the sort direction.
func (o SortOrder) Toggle() SortOrder {
	if o == Ascending {
		return Descending
	}
	return Ascending
}
