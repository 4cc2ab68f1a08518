package model

// DefaultSource is the provider feed tag assigned to newly discovered pairs.
const DefaultSource = "BGN"

// Pair is one tradable currency pair with its per-pair feed configuration.
// Symbol is the canonical six-letter code (e.g. "EURSEK").
type Pair struct {
	Symbol      string `json:"symbol"`
	AtmSource   string `json:"atm_source"`
	SmileSource string `json:"smile_source"`
	Live        bool   `json:"live"`
}

// NewPair returns a pair with default sources, marked live.
func NewPair(symbol string) Pair {
	return Pair{
		Symbol:      symbol,
		AtmSource:   DefaultSource,
		SmileSource: DefaultSource,
		Live:        true,
	}
}
