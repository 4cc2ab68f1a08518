package registry

import (
	"encoding/csv"
	"os"
	"sort"
	"strings"
	"time"

	"fxvolbridge/internal/ticker"
)

// Rows with this typology are positions in instruments that carry no
// volatility surface and are excluded from the live universe.
const excludedTypology = "FX: Spot Forward"

// ReadPositions derives the live pair universe from the upstream positions
// file: semicolon-delimited text with a header row naming CURR_PAIR and
// TYPOLOGY (any column order, case-insensitive). Symbols are slash-stripped,
// normalized to canonical form, deduplicated and sorted ascending. A missing
// or unreadable file yields an empty universe.
func ReadPositions(path string, mapper *ticker.Mapper) []string {
	file, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil || len(records) < 2 {
		return nil
	}

	pairIdx, typologyIdx := -1, -1
	for i, header := range records[0] {
		switch {
		case strings.EqualFold(strings.TrimSpace(header), "CURR_PAIR"):
			pairIdx = i
		case strings.EqualFold(strings.TrimSpace(header), "TYPOLOGY"):
			typologyIdx = i
		}
	}
	if pairIdx < 0 {
		return nil
	}

	seen := make(map[string]struct{})
	var pairs []string
	for _, row := range records[1:] {
		if len(row) <= pairIdx {
			continue
		}
		if typologyIdx >= 0 && len(row) > typologyIdx &&
			strings.EqualFold(strings.TrimSpace(row[typologyIdx]), excludedTypology) {
			continue
		}

		symbol := strings.ReplaceAll(strings.TrimSpace(row[pairIdx]), "/", "")
		if symbol == "" {
			continue
		}
		symbol = strings.ToUpper(mapper.ToCanonicalPair(symbol))
		if _, ok := seen[symbol]; ok {
			continue
		}
		seen[symbol] = struct{}{}
		pairs = append(pairs, symbol)
	}

	sort.Strings(pairs)
	return pairs
}

// PositionsModTime returns the positions file's last-modified time, or the
// zero time if the file is unreachable.
func PositionsModTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
