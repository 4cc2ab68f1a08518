package settings

import (
	"time"

	"fxvolbridge/internal/model"
)

// Settings is the persisted per-pair configuration, rewritten after every
// registry change or successful data load.
type Settings struct {
	Pairs     []model.Pair `json:"currency_pairs"`
	LastSaved time.Time    `json:"last_saved"`
}

// Store persists settings snapshots.
type Store interface {
	Load() (Settings, error)
	Save(Settings) error
}

// Find returns the persisted entry for a symbol, if any.
func (s Settings) Find(symbol string) (model.Pair, bool) {
	for _, pair := range s.Pairs {
		if pair.Symbol == symbol {
			return pair, true
		}
	}
	return model.Pair{}, false
}
