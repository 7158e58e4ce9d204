package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// MissingHistoricalDataError reports past days a read path needed but the
// cache does not hold. Read paths never fetch history on their own; the
// caller must run an explicit backfill.
type MissingHistoricalDataError struct {
	Days []string
}

// NewMissingHistoricalData builds the error with days deduplicated and
// sorted ascending.
func NewMissingHistoricalData(days []string) *MissingHistoricalDataError {
	uniq := make(map[string]struct{}, len(days))
	for _, d := range days {
		uniq[d] = struct{}{}
	}
	out := make([]string, 0, len(uniq))
	for d := range uniq {
		out = append(out, d)
	}
	sort.Strings(out)
	return &MissingHistoricalDataError{Days: out}
}

func (e *MissingHistoricalDataError) Error() string {
	return "missing historical cache days: " + strings.Join(e.Days, ", ")
}

// ConfigurationError marks a setting that is absent or invalid. Not
// retryable; the operator must fix the configuration.
type ConfigurationError struct {
	Setting string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Setting, e.Reason)
}

// Data-unavailable sentinels for the token metrics computation. Metadata
// absence falls back silently, but the metrics aggregate cannot be computed
// without a balance and a price.
var (
	ErrBalanceUnavailable = errors.New("dead wallet balance unavailable from upstream")
	ErrPriceUnavailable   = errors.New("token price unavailable from upstream")
)
