package usage

import (
	"errors"
	"fmt"
)

// ErrDivisionUndefined is returned by OriginSummary when the origin has no
// records and the mean cannot be computed.
var ErrDivisionUndefined = errors.New("mean calls undefined for an origin with no records")

// DataFormatError reports a malformed record in the input data.
// Path locates the offending value, e.g. "3.sum" or "(root)".
type DataFormatError struct {
	Path   string
	Reason string
}

func (e *DataFormatError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid usage data: %s", e.Reason)
	}
	return fmt.Sprintf("invalid usage data at %s: %s", e.Path, e.Reason)
}

// IsDataFormatError reports whether err wraps a *DataFormatError.
func IsDataFormatError(err error) bool {
	var dfe *DataFormatError
	return errors.As(err, &dfe)
}
