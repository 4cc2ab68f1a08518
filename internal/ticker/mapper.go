package ticker

import "strings"

// Mapper translates between canonical currency-pair symbols (the risk
// system's identity key) and the provider's possibly inverted symbols.
// The inversion table is the single source of truth for both ticker
// construction and export formatting.
type Mapper struct {
	inverted map[string]string
}

// defaultInverted maps canonical pair -> provider pair for pairs the
// provider quotes inverted.
var defaultInverted = map[string]string{
	"CNHSEK": "SEKCNH",
}

// NewMapper builds a mapper from the given inversion table. A nil table
// selects the built-in default. Keys and values are case-insensitive.
func NewMapper(inverted map[string]string) *Mapper {
	if inverted == nil {
		inverted = defaultInverted
	}
	table := make(map[string]string, len(inverted))
	for canonical, provider := range inverted {
		table[strings.ToUpper(canonical)] = strings.ToUpper(provider)
	}
	return &Mapper{inverted: table}
}

// ToProviderPair converts a canonical symbol to the provider's symbol.
func (m *Mapper) ToProviderPair(canonical string) string {
	if provider, ok := m.inverted[strings.ToUpper(canonical)]; ok {
		return provider
	}
	return canonical
}

// ToCanonicalPair converts a provider symbol back to the canonical symbol.
func (m *Mapper) ToCanonicalPair(provider string) string {
	upper := strings.ToUpper(provider)
	for canonical, mapped := range m.inverted {
		if mapped == upper {
			return canonical
		}
	}
	return provider
}

// IsInverted reports whether the provider quotes the pair inverted.
func (m *Mapper) IsInverted(canonical string) bool {
	_, ok := m.inverted[strings.ToUpper(canonical)]
	return ok
}

// AdjustRiskReversal flips the sign for inverted pairs. Callers must apply
// it exactly once per value, keyed by the canonical pair.
func (m *Mapper) AdjustRiskReversal(value float64, canonical string) float64 {
	if m.IsInverted(canonical) {
		return -value
	}
	return value
}

// ToExternalFormat renders a symbol as "XXX/YYY" for the export documents,
// normalizing provider symbols to canonical form first.
func (m *Mapper) ToExternalFormat(pair string) string {
	canonical := m.ToCanonicalPair(pair)
	if len(canonical) < 6 {
		return canonical
	}
	return canonical[:3] + "/" + canonical[3:6]
}
