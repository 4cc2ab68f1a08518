package model

import "strings"

// ExportKind identifies one of the two downstream artifacts, tracked
// independently through the export/consumption handshake.
type ExportKind int

const (
	ExportAtm ExportKind = iota
	ExportSmile
)

// File names the downstream system scans for.
const (
	AtmFileName   = "update_fxvols_ps.xml"
	SmileFileName = "update_fxvols_smile.xml"
)

// ExportKinds lists both kinds in display order.
var ExportKinds = []ExportKind{ExportAtm, ExportSmile}

func (k ExportKind) String() string {
	if k == ExportAtm {
		return "ATM"
	}
	return "Smile"
}

// FileName returns the artifact file name for the kind.
func (k ExportKind) FileName() string {
	if k == ExportAtm {
		return AtmFileName
	}
	return SmileFileName
}

// KindForFile maps an observed file name back to its kind.
func KindForFile(name string) (ExportKind, bool) {
	switch {
	case strings.EqualFold(name, AtmFileName):
		return ExportAtm, true
	case strings.EqualFold(name, SmileFileName):
		return ExportSmile, true
	default:
		return 0, false
	}
}
