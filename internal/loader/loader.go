// Package loader reads flag usage datasets from disk.
//
// JSON files must hold an array of {"origin", "name", "sum"} objects and are
// validated against an embedded JSON Schema before decoding. Files with a
// SQLite extension are read from their flag_usage table.
package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/j-veylop/flag-usage-dashboard-tui/internal/db"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/models"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/usage"
)

const usageSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["origin", "name", "sum"],
    "properties": {
      "origin": { "type": "string" },
      "name": { "type": "string" },
      "sum": { "type": "number" }
    }
  }
}`

var usageSchemaLoader = gojsonschema.NewStringLoader(usageSchemaJSON)

// Format identifies how a dataset file is encoded.
type Format int

const (
	FormatJSON Format = iota
	FormatSQLite
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatSQLite:
		return "sqlite"
	default:
		return "unknown"
	}
}

// DetectFormat picks the format from the file extension. Anything that is
// not a SQLite extension is treated as JSON.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite
	default:
		return FormatJSON
	}
}

// LoadFile reads the dataset at path.
// Malformed content is reported as *usage.DataFormatError; I/O failures are
// returned wrapped.
func LoadFile(path string) ([]models.UsageRecord, error) {
	if DetectFormat(path) == FormatSQLite {
		return loadSQLite(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read usage data: %w", err)
	}

	records, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// Decode validates data against the usage schema and decodes it.
func Decode(data []byte) ([]models.UsageRecord, error) {
	result, err := gojsonschema.Validate(usageSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, &usage.DataFormatError{Reason: fmt.Sprintf("not valid JSON: %v", err)}
	}

	if !result.Valid() {
		first := result.Errors()[0]
		reason := first.Description()
		if n := len(result.Errors()); n > 1 {
			reason = fmt.Sprintf("%s (and %d more)", reason, n-1)
		}
		return nil, &usage.DataFormatError{Path: errorPath(first), Reason: reason}
	}

	records := make([]models.UsageRecord, 0)
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &usage.DataFormatError{Reason: err.Error()}
	}
	return records, nil
}

// errorPath renders a validation error location as "<index>.<field>",
// naming the missing property for required errors.
func errorPath(re gojsonschema.ResultError) string {
	path := re.Context().String()
	if prop, ok := re.Details()["property"].(string); ok && re.Type() == "required" {
		path += "." + prop
	}
	return strings.TrimPrefix(path, "(root).")
}

func loadSQLite(path string) ([]models.UsageRecord, error) {
	store, err := db.OpenExisting(path)
	if err != nil {
		if errors.Is(err, db.ErrNoUsageTable) {
			return nil, &usage.DataFormatError{Path: path, Reason: err.Error()}
		}
		return nil, err
	}
	defer func() { _ = store.Close() }()

	records, err := store.LoadUsageRecords()
	if err != nil {
		var rowErr *db.RowError
		if errors.As(err, &rowErr) {
			return nil, &usage.DataFormatError{
				Path:   fmt.Sprintf("%d.%s", rowErr.Row, rowErr.Column),
				Reason: rowErr.Err.Error(),
			}
		}
		return nil, err
	}
	return records, nil
}
