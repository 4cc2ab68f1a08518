package ticker

import "testing"

func TestRoundTrip(t *testing.T) {
	m := NewMapper(nil)

	for _, pair := range []string{"CNHSEK", "EURSEK", "USDSEK"} {
		got := m.ToCanonicalPair(m.ToProviderPair(pair))
		if got != pair {
			t.Fatalf("round trip mismatch for %s: got %s", pair, got)
		}
	}
}

func TestToProviderPair(t *testing.T) {
	m := NewMapper(nil)

	if got := m.ToProviderPair("CNHSEK"); got != "SEKCNH" {
		t.Fatalf("inverted pair: got %s, want SEKCNH", got)
	}
	if got := m.ToProviderPair("cnhsek"); got != "SEKCNH" {
		t.Fatalf("case-insensitive lookup: got %s, want SEKCNH", got)
	}
	if got := m.ToProviderPair("EURSEK"); got != "EURSEK" {
		t.Fatalf("identity pair: got %s, want EURSEK", got)
	}
}

func TestAdjustRiskReversal(t *testing.T) {
	m := NewMapper(nil)

	if got := m.AdjustRiskReversal(0.25, "CNHSEK"); got != -0.25 {
		t.Fatalf("inverted pair rr: got %v, want -0.25", got)
	}
	if got := m.AdjustRiskReversal(0.25, "EURSEK"); got != 0.25 {
		t.Fatalf("identity pair rr: got %v, want 0.25", got)
	}
	if !m.IsInverted("CNHSEK") || m.IsInverted("EURSEK") {
		t.Fatalf("IsInverted table mismatch")
	}
}

func TestToExternalFormat(t *testing.T) {
	m := NewMapper(nil)

	if got := m.ToExternalFormat("EURSEK"); got != "EUR/SEK" {
		t.Fatalf("external format: got %s, want EUR/SEK", got)
	}
	// Provider form normalizes to canonical before splitting.
	if got := m.ToExternalFormat("SEKCNH"); got != "CNH/SEK" {
		t.Fatalf("external format of provider symbol: got %s, want CNH/SEK", got)
	}
}

func TestCustomTable(t *testing.T) {
	m := NewMapper(map[string]string{"JPYSEK": "SEKJPY"})

	if got := m.ToProviderPair("JPYSEK"); got != "SEKJPY" {
		t.Fatalf("custom table: got %s, want SEKJPY", got)
	}
	if m.IsInverted("CNHSEK") {
		t.Fatalf("custom table must replace the default")
	}
}
