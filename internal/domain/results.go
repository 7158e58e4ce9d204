package domain

// Projection model identifiers. ModelRegressionFallback is reported when the
// regression fit was degenerate and the mean model was silently used instead.
const (
	ModelMean               = "mean"
	ModelRegression         = "regression"
	ModelRegressionFallback = "regression_fallback_mean"
)

// TokenInfo identifies the tracked token and its burn sink.
type TokenInfo struct {
	Address     string `json:"address"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Decimals    int32  `json:"decimals"`
	DeadAddress string `json:"dead_address"`
}

// SeriesResult is the served multi-day burn series. It is cached as a
// payload keyed by (window, day) so repeated requests within the series TTL
// do not recompute.
type SeriesResult struct {
	Token                 TokenInfo   `json:"token"`
	WindowDays            int         `json:"window_days"`
	StartDay              string      `json:"start_day"`
	EndDay                string      `json:"end_day"`
	TotalBurnRaw          string      `json:"total_burn_raw"`
	TotalBurn             string      `json:"total_burn"`
	Daily                 []DailyBurn `json:"daily"`
	DataSource            string      `json:"data_source"`
	TodayLastUpdatedEpoch int64       `json:"today_last_updated_epoch"`
	Cached                bool        `json:"cached"`
}

// SummaryDay is one side of the yesterday/today summary.
type SummaryDay struct {
	Day              string `json:"day"`
	BurnRaw          string `json:"burn_raw"`
	Burn             string `json:"burn"`
	Label            string `json:"label"`
	LastUpdatedEpoch int64  `json:"last_updated_epoch,omitempty"`
}

// SummaryResult is the served yesterday+today burn summary.
type SummaryResult struct {
	Token      TokenInfo  `json:"token"`
	Yesterday  SummaryDay `json:"yesterday"`
	Today      SummaryDay `json:"today"`
	DataSource string     `json:"data_source"`
}

// Tokenomics is a supply snapshot: how much has been burned and what
// remains, in tokens, trillions of tokens, and percent of max supply.
type Tokenomics struct {
	BurnedTokens    string `json:"burned_tokens"`
	BurnedT         string `json:"burned_t"`
	BurnedPct       string `json:"burned_pct"`
	RemainingTokens string `json:"remaining_tokens"`
	RemainingT      string `json:"remaining_t"`
}

// TokenMetricsResult is the served token metrics aggregate. Burned total
// comes from the dead wallet's current on-chain balance, an independent
// cross-check of the summed daily deltas.
type TokenMetricsResult struct {
	Token            TokenInfo `json:"token"`
	MaxSupplyTokens  string    `json:"max_supply_tokens"`
	MaxSupplyT       string    `json:"max_supply_t"`
	BurnedRaw        string    `json:"burned_raw"`
	BurnedTokens     string    `json:"burned_tokens"`
	BurnedT          string    `json:"burned_t"`
	BurnedPct        string    `json:"burned_pct"`
	RemainingTokens  string    `json:"remaining_tokens"`
	RemainingT       string    `json:"remaining_t"`
	PriceUSD         string    `json:"price_usd"`
	DataSource       string    `json:"data_source"`
	LastUpdatedEpoch int64     `json:"last_updated_epoch"`
}

// ProjectionResult is the served forward burn estimate. Model reports which
// model actually produced the numbers, distinguishing a true regression fit
// from a fallback to the mean.
type ProjectionResult struct {
	Model                 string     `json:"model"`
	WindowDays            int        `json:"window_days"`
	HorizonDays           int        `json:"horizon_days"`
	BurnPerDayRaw         string     `json:"x_burn_per_day_raw"`
	BurnPerDay            string     `json:"x_burn_per_day"`
	HorizonBurnRaw        string     `json:"y_burn_raw"`
	HorizonBurn           string     `json:"y_burn"`
	Assumption            string     `json:"assumption"`
	DataSource            string     `json:"data_source"`
	TodayLastUpdatedEpoch int64      `json:"today_last_updated_epoch"`
	Tokenomics            Tokenomics `json:"tokenomics"`
	TokenomicsProjected   Tokenomics `json:"tokenomics_projected"`
	Cached                bool       `json:"cached"`
}
