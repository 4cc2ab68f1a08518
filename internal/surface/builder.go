package surface

import (
	"fmt"

	"go.uber.org/zap"

	"fxvolbridge/internal/gateway"
	"fxvolbridge/internal/model"
	"fxvolbridge/internal/ticker"
)

// Fields requested from the provider.
const (
	fieldBid = "PX_BID"
	fieldAsk = "PX_ASK"
	fieldMid = "PX_MID"
)

// Smile quote codes, in the fixed per-tenor identifier order.
var smileCodes = []string{"25R", "10R", "25B", "10B"}

// Builder assembles a normalized volatility grid for the live pairs.
type Builder struct {
	gateway gateway.Gateway
	mapper  *ticker.Mapper
	logger  *zap.Logger
}

// NewBuilder wires the builder to its gateway and mapper.
func NewBuilder(gw gateway.Gateway, mapper *ticker.Mapper, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{gateway: gw, mapper: mapper, logger: logger}
}

// AtmTicker formats the provider identifier for an ATM volatility level.
func AtmTicker(providerPair, tenor, source string) string {
	return fmt.Sprintf("%sV%s %s Curncy", providerPair, tenor, source)
}

// SmileTicker formats the provider identifier for a smile quote
// (code is one of 25R, 10R, 25B, 10B).
func SmileTicker(providerPair, code, tenor, source string) string {
	return fmt.Sprintf("%s%s%s %s Curncy", providerPair, code, tenor, source)
}

// Build fetches ATM and smile quotes for every live pair and returns one
// point per (pair, tenor) in pair-major, tenor-minor order. Risk reversals
// are sign-adjusted here, exactly once, keyed by the canonical symbol;
// butterflies and ATM levels pass through unadjusted.
func (b *Builder) Build(pairs []model.Pair) ([]model.VolatilityPoint, error) {
	live := make([]model.Pair, 0, len(pairs))
	for _, pair := range pairs {
		if pair.Live {
			live = append(live, pair)
		}
	}
	if len(live) == 0 {
		return nil, nil
	}

	atmTickers := make([]string, 0, len(live)*len(model.Tenors))
	for _, pair := range live {
		providerPair := b.mapper.ToProviderPair(pair.Symbol)
		for _, tenor := range model.Tenors {
			atmTickers = append(atmTickers, AtmTicker(providerPair, tenor, pair.AtmSource))
		}
	}

	atm, err := b.gateway.Fetch(atmTickers, []string{fieldBid, fieldAsk})
	if err != nil {
		return nil, fmt.Errorf("fetch atm data: %w", err)
	}

	smileTickers := make([]string, 0, len(live)*len(model.Tenors)*len(smileCodes))
	for _, pair := range live {
		providerPair := b.mapper.ToProviderPair(pair.Symbol)
		for _, tenor := range model.Tenors {
			for _, code := range smileCodes {
				smileTickers = append(smileTickers, SmileTicker(providerPair, code, tenor, pair.SmileSource))
			}
		}
	}

	smile, err := b.gateway.Fetch(smileTickers, []string{fieldMid})
	if err != nil {
		return nil, fmt.Errorf("fetch smile data: %w", err)
	}

	points := make([]model.VolatilityPoint, 0, len(live)*len(model.Tenors))
	for _, pair := range live {
		providerPair := b.mapper.ToProviderPair(pair.Symbol)
		for _, tenor := range model.Tenors {
			atmTicker := AtmTicker(providerPair, tenor, pair.AtmSource)

			rr25 := smile.Number(SmileTicker(providerPair, "25R", tenor, pair.SmileSource), fieldMid)
			rr10 := smile.Number(SmileTicker(providerPair, "10R", tenor, pair.SmileSource), fieldMid)
			bf25 := smile.Number(SmileTicker(providerPair, "25B", tenor, pair.SmileSource), fieldMid)
			bf10 := smile.Number(SmileTicker(providerPair, "10B", tenor, pair.SmileSource), fieldMid)

			points = append(points, model.VolatilityPoint{
				Pair:   pair.Symbol,
				Tenor:  tenor,
				AtmBid: atm.Number(atmTicker, fieldBid),
				AtmAsk: atm.Number(atmTicker, fieldAsk),
				RR25:   b.mapper.AdjustRiskReversal(rr25, pair.Symbol),
				RR10:   b.mapper.AdjustRiskReversal(rr10, pair.Symbol),
				BF25:   bf25,
				BF10:   bf10,
			})
		}
	}

	b.logger.Info("surface built",
		zap.Int("pairs", len(live)),
		zap.Int("points", len(points)),
	)
	return points, nil
}
