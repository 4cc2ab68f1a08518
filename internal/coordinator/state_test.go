package coordinator

import (
	"testing"
	"time"

	"fxvolbridge/internal/model"
)

func at(hour, minute, second int) time.Time {
	return time.Date(2025, 3, 14, hour, minute, second, 0, time.Local)
}

func TestExportConsumptionLifecycle(t *testing.T) {
	m := newMachine(15, 8, 16)

	if m.kinds[model.ExportAtm].phase != Idle {
		t.Fatalf("initial phase must be Idle")
	}

	if edge := m.exportWritten(model.ExportAtm); edge {
		t.Fatalf("export write must not complete the importing indicator")
	}
	if m.kinds[model.ExportAtm].phase != AwaitingConsumption {
		t.Fatalf("write must move to AwaitingConsumption")
	}
	if !m.importing() {
		t.Fatalf("importing must be set while awaiting")
	}

	m.fileAppeared(model.ExportAtm)
	if m.kinds[model.ExportAtm].exported {
		t.Fatalf("appearance must clear the exported flag")
	}

	consumed := at(10, 30, 12)
	if edge := m.fileDisappeared(model.ExportAtm, consumed); !edge {
		t.Fatalf("consumption of the only pending kind must complete the indicator")
	}
	state := m.kinds[model.ExportAtm]
	if state.phase != RecentlyCompleted {
		t.Fatalf("disappearance must move to RecentlyCompleted, got %v", state.phase)
	}
	if state.completedAt == nil || !state.completedAt.Equal(consumed) {
		t.Fatalf("completion timestamp not recorded: %v", state.completedAt)
	}

	m.fadeExpired()
	if state.phase != Idle {
		t.Fatalf("fade must return the kind to Idle, got %v", state.phase)
	}
}

func TestDuplicateObservationsAreIdempotent(t *testing.T) {
	m := newMachine(15, 8, 16)
	m.exportWritten(model.ExportAtm)
	m.fileAppeared(model.ExportAtm)

	// Push and poll both report the same appearance.
	m.fileAppeared(model.ExportAtm)
	if m.kinds[model.ExportAtm].phase != AwaitingConsumption {
		t.Fatalf("duplicate appearance must not transition")
	}

	first := at(10, 0, 0)
	m.fileDisappeared(model.ExportAtm, first)

	// A second disappearance observation must not refresh the timestamp.
	m.fileDisappeared(model.ExportAtm, at(10, 0, 3))
	if got := m.kinds[model.ExportAtm].completedAt; got == nil || !got.Equal(first) {
		t.Fatalf("duplicate disappearance must keep the first timestamp, got %v", got)
	}

	// Disappearance while idle is a no-op.
	m.fadeExpired()
	m.kinds[model.ExportAtm].completedAt = nil
	m.fileDisappeared(model.ExportAtm, at(11, 0, 0))
	if m.kinds[model.ExportAtm].phase != Idle || m.kinds[model.ExportAtm].completedAt != nil {
		t.Fatalf("disappearance while idle must not transition")
	}
}

func TestStartupSeedTreatsPresentFilesAsPending(t *testing.T) {
	m := newMachine(15, 8, 16)
	m.seedStartup(map[model.ExportKind]bool{
		model.ExportAtm:   true,
		model.ExportSmile: false,
	})

	if m.kinds[model.ExportAtm].phase != AwaitingConsumption {
		t.Fatalf("present file must seed AwaitingConsumption")
	}
	if m.kinds[model.ExportSmile].phase != Idle {
		t.Fatalf("absent file must stay Idle")
	}
	if !m.importing() {
		t.Fatalf("seeded pending state must set the importing indicator")
	}
}

func TestCompositeEdgeOnlyWhenBothQuiet(t *testing.T) {
	m := newMachine(15, 8, 16)
	m.exportWritten(model.ExportAtm)
	m.exportWritten(model.ExportSmile)
	m.fileAppeared(model.ExportAtm)
	m.fileAppeared(model.ExportSmile)

	if edge := m.fileDisappeared(model.ExportAtm, at(10, 0, 0)); edge {
		t.Fatalf("indicator must stay up while the other kind is pending")
	}
	if edge := m.fileDisappeared(model.ExportSmile, at(10, 0, 5)); !edge {
		t.Fatalf("indicator must fall when the last pending kind completes")
	}
}

func TestShouldScheduleOncePerQualifyingHour(t *testing.T) {
	m := newMachine(15, 8, 16)

	sequence := []struct {
		now  time.Time
		want bool
	}{
		{at(8, 15, 0), true},
		{at(8, 15, 1), false}, // same minute, later second
		{at(9, 15, 0), true},  // new hour resets the guard
		{at(8, 16, 0), false}, // wrong minute
	}
	for _, step := range sequence {
		if got := m.shouldSchedule(step.now); got != step.want {
			t.Fatalf("shouldSchedule(%v): got %v, want %v", step.now, got, step.want)
		}
	}
}

func TestShouldScheduleRespectsHourWindow(t *testing.T) {
	m := newMachine(15, 8, 16)

	if m.shouldSchedule(at(7, 15, 0)) {
		t.Fatalf("must not fire before the window")
	}
	if !m.shouldSchedule(at(8, 15, 0)) {
		t.Fatalf("window start is inclusive")
	}
	if !m.shouldSchedule(at(16, 15, 0)) {
		t.Fatalf("window end is inclusive")
	}
	if m.shouldSchedule(at(17, 15, 0)) {
		t.Fatalf("must not fire after the window")
	}
}
