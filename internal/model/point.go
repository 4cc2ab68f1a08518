package model

// VolatilityPoint is one (pair, tenor) cell of a fetched surface.
// Rates are quoted in volatility points; risk reversals carry the canonical
// pair's sign convention, applied once at ingestion.
type VolatilityPoint struct {
	Pair   string  `json:"pair"`
	Tenor  string  `json:"tenor"`
	AtmBid float64 `json:"atm_bid"`
	AtmAsk float64 `json:"atm_ask"`
	RR25   float64 `json:"rr_25d"`
	RR10   float64 `json:"rr_10d"`
	BF25   float64 `json:"bf_25d"`
	BF10   float64 `json:"bf_10d"`
}
