package coordinator

import (
	"fmt"

	"fxvolbridge/internal/model"
)

const clockFormat = "15:04:05"

// renderStatus recomputes the user-facing status from the state record.
// Priority: exports awaiting appearance, then kinds awaiting consumption,
// then unrendered completions (consumed here, one-shot), else the current
// text stands.
func (m *machine) renderStatus() {
	atm := m.kinds[model.ExportAtm]
	smile := m.kinds[model.ExportSmile]

	switch {
	case atm.exported && smile.exported:
		m.status = "ATM and Smile exported, waiting for MX3 import..."
		return
	case atm.exported:
		m.status = "ATM exported, waiting for MX3 import..."
		return
	case smile.exported:
		m.status = "Smile exported, waiting for MX3 import..."
		return
	}

	atmImporting := atm.phase == AwaitingConsumption
	smileImporting := smile.phase == AwaitingConsumption

	switch {
	case atmImporting && smileImporting:
		m.status = "ATM and Smile importing to MX3..."
		return
	case atmImporting:
		if smile.completedAt != nil {
			m.status = fmt.Sprintf("Smile done at %s, ATM importing...", smile.completedAt.Format(clockFormat))
		} else {
			m.status = "ATM importing to MX3..."
		}
		return
	case smileImporting:
		if atm.completedAt != nil {
			m.status = fmt.Sprintf("ATM done at %s, Smile importing...", atm.completedAt.Format(clockFormat))
		} else {
			m.status = "Smile importing to MX3..."
		}
		return
	}

	switch {
	case atm.completedAt != nil && smile.completedAt != nil:
		m.status = fmt.Sprintf("ATM and Smile completed at %s", atm.completedAt.Format(clockFormat))
		atm.completedAt = nil
		smile.completedAt = nil
	case atm.completedAt != nil:
		m.status = fmt.Sprintf("ATM completed at %s", atm.completedAt.Format(clockFormat))
		atm.completedAt = nil
	case smile.completedAt != nil:
		m.status = fmt.Sprintf("Smile completed at %s", smile.completedAt.Format(clockFormat))
		smile.completedAt = nil
	}
}
