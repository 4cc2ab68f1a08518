package coordinator

import (
	"time"

	"fxvolbridge/internal/model"
)

// Phase is the per-kind consumption state.
type Phase int

const (
	// Idle: no artifact outstanding.
	Idle Phase = iota
	// AwaitingConsumption: the artifact exists and the downstream system
	// has not deleted it yet.
	AwaitingConsumption
	// RecentlyCompleted: the artifact disappeared; held until the
	// completion indicator fades.
	RecentlyCompleted
)

// kindState tracks one export artifact through the file handshake.
type kindState struct {
	phase Phase
	// exported is set when a write completes and cleared once the file is
	// observed in the directory; drives the "exported, waiting" status.
	exported bool
	// completedAt is a one-shot completion timestamp, consumed by the
	// first status render after both kinds fall quiet.
	completedAt *time.Time
}

// machine is the coordinator's full state record. All mutation happens on
// the owner goroutine; the struct itself carries no locking.
type machine struct {
	kinds map[model.ExportKind]*kindState

	loading           bool
	connected         bool
	justCompleted     bool
	lastScheduledHour int

	scheduleMinute int
	fromHour       int
	toHour         int

	status string
}

func newMachine(scheduleMinute, fromHour, toHour int) *machine {
	m := &machine{
		kinds:             make(map[model.ExportKind]*kindState, len(model.ExportKinds)),
		lastScheduledHour: -1,
		scheduleMinute:    scheduleMinute,
		fromHour:          fromHour,
		toHour:            toHour,
		status:            "Ready",
	}
	for _, kind := range model.ExportKinds {
		m.kinds[kind] = &kindState{}
	}
	return m
}

// seedStartup treats export files already present at process start as
// awaiting consumption, regardless of who wrote them.
func (m *machine) seedStartup(existing map[model.ExportKind]bool) {
	for kind, exists := range existing {
		if exists {
			m.kinds[kind].phase = AwaitingConsumption
		}
	}
}

// importing is the composite indicator: any kind awaiting consumption, or
// any export written but not yet observed.
func (m *machine) importing() bool {
	for _, state := range m.kinds {
		if state.exported || state.phase == AwaitingConsumption {
			return true
		}
	}
	return false
}

// anyPending reports whether the export-file existence poll is needed.
func (m *machine) anyPending() bool {
	for _, state := range m.kinds {
		if state.exported || state.phase != Idle {
			return true
		}
	}
	return false
}

// transition applies a mutation and reports whether the composite importing
// indicator fell on a true-to-false edge, which arms the fade timeout.
func (m *machine) transition(mutate func()) (completedEdge bool) {
	was := m.importing()
	mutate()
	return was && !m.importing()
}

// exportWritten records a completed export write for the kind.
func (m *machine) exportWritten(kind model.ExportKind) bool {
	return m.transition(func() {
		state := m.kinds[kind]
		state.exported = true
		state.phase = AwaitingConsumption
	})
}

// fileAppeared records the artifact showing up in the export directory.
// Idempotent: push and poll may both report the same observation.
func (m *machine) fileAppeared(kind model.ExportKind) bool {
	return m.transition(func() {
		state := m.kinds[kind]
		state.exported = false
		state.phase = AwaitingConsumption
	})
}

// fileDisappeared records consumption: the artifact vanished while awaiting.
// Any other phase is a no-op, so duplicate observations neither re-complete
// nor overwrite the timestamp.
func (m *machine) fileDisappeared(kind model.ExportKind, now time.Time) bool {
	return m.transition(func() {
		state := m.kinds[kind]
		if state.phase != AwaitingConsumption {
			return
		}
		state.phase = RecentlyCompleted
		completed := now
		state.completedAt = &completed
	})
}

// fadeExpired ends the transient completion indicator.
func (m *machine) fadeExpired() {
	m.justCompleted = false
	for _, state := range m.kinds {
		if state.phase == RecentlyCompleted {
			state.phase = Idle
		}
	}
}

// shouldSchedule evaluates the autonomous trigger: once per qualifying hour,
// at the configured minute, within the inclusive hour window. The last-fired
// hour guard prevents refiring on every tick inside the matching minute.
func (m *machine) shouldSchedule(now time.Time) bool {
	if now.Minute() != m.scheduleMinute || now.Second() != 0 {
		return false
	}
	if now.Hour() < m.fromHour || now.Hour() > m.toHour {
		return false
	}
	if now.Hour() == m.lastScheduledHour {
		return false
	}
	m.lastScheduledHour = now.Hour()
	return true
}
