package gateway

import "strconv"

// Gateway is the reference-data provider session. Connect reports success as
// a boolean and never fails hard; the next trigger retries implicitly.
type Gateway interface {
	Connect() bool
	Fetch(securities []string, fields []string) (Result, error)
	Close()
}

// Result holds raw field values per security. Securities or fields absent
// from the provider response are simply missing.
type Result map[string]map[string]string

// Value returns the raw string for a security field, or "" if missing.
func (r Result) Value(security, field string) string {
	fields, ok := r[security]
	if !ok {
		return ""
	}
	return fields[field]
}

// Number parses a field as a float. Missing or unparsable values yield 0;
// downstream consumers treat 0 as a placeholder, not a sentinel.
func (r Result) Number(security, field string) float64 {
	value, err := strconv.ParseFloat(r.Value(security, field), 64)
	if err != nil {
		return 0
	}
	return value
}

// Set records a field value, allocating the per-security map on first use.
func (r Result) Set(security, field, value string) {
	fields, ok := r[security]
	if !ok {
		fields = make(map[string]string)
		r[security] = fields
	}
	fields[field] = value
}
