package domain

// DayFormat is the canonical key format for calendar days (UTC, ISO 8601).
const DayFormat = "2006-01-02"

// DataSource tags every served payload with where its numbers came from.
const DataSource = "moralis+sqlite-cache"

// DailyBurnRecord is one finalized burn total for a UTC calendar day as
// persisted in the cache store. BurnRaw is string-encoded to avoid precision
// loss on arbitrarily large token amounts.
type DailyBurnRecord struct {
	Day       string `json:"day"`
	BurnRaw   string `json:"burn_raw"`
	UpdatedAt int64  `json:"updated_at"`
}

// CachedPayload is a timestamped, JSON-serialized derived artifact (series,
// projection, token metrics) keyed by its semantic parameters.
type CachedPayload struct {
	Key         string `json:"key"`
	PayloadJSON string `json:"payload_json"`
	UpdatedAt   int64  `json:"updated_at"`
}

// TokenMeta holds token identity fetched once per process lifetime.
type TokenMeta struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int32  `json:"decimals"`
}

// DailyBurn is one day of the served burn series: the raw integer amount and
// its exact token-unit rendering.
type DailyBurn struct {
	Day     string `json:"day"`
	BurnRaw string `json:"burn_raw"`
	Burn    string `json:"burn"`
}
