package registry

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"fxvolbridge/internal/model"
	"fxvolbridge/internal/settings"
	"fxvolbridge/internal/ticker"
)

// Registry holds the tradable pair list: the upstream positions feed defines
// which pairs exist, persisted settings define their sources and liveness.
type Registry struct {
	positionsPath string
	mapper        *ticker.Mapper
	store         settings.Store
	logger        *zap.Logger

	pairs []model.Pair
}

// New builds a registry over the positions file and settings store.
func New(positionsPath string, mapper *ticker.Mapper, store settings.Store, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		positionsPath: positionsPath,
		mapper:        mapper,
		store:         store,
		logger:        logger,
	}
}

// Load seeds the registry from persisted settings, sorted by symbol.
func (r *Registry) Load() {
	loaded, err := r.store.Load()
	if err != nil {
		r.logger.Warn("settings load failed", zap.Error(err))
		return
	}
	pairs := append([]model.Pair(nil), loaded.Pairs...)
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Symbol < pairs[j].Symbol })
	r.pairs = pairs
}

// Refresh re-derives the pair list from the positions feed: pairs no longer
// listed upstream are dropped, new pairs adopt persisted configuration or
// defaults. The merged list is persisted. Returns the universe size and the
// positions file timestamp for status display.
func (r *Registry) Refresh() (int, time.Time) {
	universe := ReadPositions(r.positionsPath, r.mapper)
	persisted, err := r.store.Load()
	if err != nil {
		r.logger.Warn("settings load failed", zap.Error(err))
		persisted = settings.Settings{}
	}

	listed := make(map[string]struct{}, len(universe))
	for _, symbol := range universe {
		listed[symbol] = struct{}{}
	}

	merged := make([]model.Pair, 0, len(universe))
	current := make(map[string]model.Pair, len(r.pairs))
	for _, pair := range r.pairs {
		if _, ok := listed[pair.Symbol]; ok {
			current[pair.Symbol] = pair
		}
	}

	for _, symbol := range universe {
		if pair, ok := current[symbol]; ok {
			merged = append(merged, pair)
			continue
		}
		if pair, ok := persisted.Find(symbol); ok {
			merged = append(merged, pair)
			continue
		}
		merged = append(merged, model.NewPair(symbol))
	}

	sort.Slice(merged, func(i, j int) bool { return merged[i].Symbol < merged[j].Symbol })
	r.pairs = merged
	r.Save()

	modTime := PositionsModTime(r.positionsPath)
	r.logger.Info("pair universe refreshed",
		zap.Int("pairs", len(merged)),
		zap.Time("positions_file", modTime),
	)
	return len(universe), modTime
}

// Pairs returns a copy of the current pair list.
func (r *Registry) Pairs() []model.Pair {
	return append([]model.Pair(nil), r.pairs...)
}

// SetPairs replaces the pair list (manual override).
func (r *Registry) SetPairs(pairs []model.Pair) {
	r.pairs = append([]model.Pair(nil), pairs...)
}

// Save persists the current pair list.
func (r *Registry) Save() {
	if err := r.store.Save(settings.Settings{Pairs: r.pairs}); err != nil {
		r.logger.Warn("settings save failed", zap.Error(err))
	}
}
