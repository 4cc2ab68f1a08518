package model

// Tenors is the fixed maturity grid, in fetch and export order.
// The order never varies per pair.
var Tenors = []string{"ON", "1W", "2W", "1M", "2M", "3M", "6M", "1Y", "2Y", "3Y"}

// DisplayTenor renders a tenor for the export documents.
func DisplayTenor(tenor string) string {
	if tenor == "ON" {
		return "O/N"
	}
	return tenor
}
