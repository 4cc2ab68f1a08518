package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"fxvolbridge/internal/model"
)

// Settle delays before a positions-file change is signaled, so a file is
// never read mid-write. The push path waits longer: network-share
// notifications tend to arrive before the writer has finished.
const (
	pollSettleDelay = 500 * time.Millisecond
	pushSettleDelay = 1000 * time.Millisecond
)

// EventType classifies observer events.
type EventType int

const (
	ExportAppeared EventType = iota
	ExportRemoved
	PositionsChanged
)

// Event is one normalized file observation. Kind is meaningful for the
// export event types only.
type Event struct {
	Type EventType
	Kind model.ExportKind
}

// Observer watches the export directory and the upstream positions file,
// reporting through both push notifications and poll fallback. Both sources
// feed the same queue; the coordinator's transitions are idempotent, so a
// change observed twice is harmless.
type Observer struct {
	exportDir     string
	positionsPath string
	logger        *zap.Logger

	events  chan Event
	watcher *fsnotify.Watcher
	done    chan struct{}

	mu            sync.Mutex
	lastExists    map[model.ExportKind]bool
	lastPositions time.Time
	settleTimer   *time.Timer
}

// NewObserver builds an observer; Start begins push notification delivery.
func NewObserver(exportDir, positionsPath string, logger *zap.Logger) *Observer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Observer{
		exportDir:     exportDir,
		positionsPath: positionsPath,
		logger:        logger,
		events:        make(chan Event, 32),
		done:          make(chan struct{}),
		lastExists:    make(map[model.ExportKind]bool),
	}
}

// Events is the single queue both detection paths feed.
func (o *Observer) Events() <-chan Event {
	return o.events
}

// SeedExports records the current export-file existence snapshot and
// returns it, for startup state derivation.
func (o *Observer) SeedExports() map[model.ExportKind]bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	snapshot := make(map[model.ExportKind]bool, len(model.ExportKinds))
	for _, kind := range model.ExportKinds {
		exists := fileExists(filepath.Join(o.exportDir, kind.FileName()))
		o.lastExists[kind] = exists
		snapshot[kind] = exists
	}
	o.lastPositions = modTime(o.positionsPath)
	return snapshot
}

// Start subscribes to push notifications for the export directory and the
// positions file's directory.
func (o *Observer) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	if err := watcher.Add(o.exportDir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch export dir: %w", err)
	}
	positionsDir := filepath.Dir(o.positionsPath)
	if err := watcher.Add(positionsDir); err != nil {
		// Poll fallback still covers the positions file.
		o.logger.Warn("watch positions dir failed", zap.String("dir", positionsDir), zap.Error(err))
	}

	o.watcher = watcher
	go o.run()
	return nil
}

// Close stops push delivery and any pending settle timer.
func (o *Observer) Close() {
	select {
	case <-o.done:
		return
	default:
	}
	close(o.done)
	if o.watcher != nil {
		o.watcher.Close()
	}

	o.mu.Lock()
	if o.settleTimer != nil {
		o.settleTimer.Stop()
		o.settleTimer = nil
	}
	o.mu.Unlock()
}

func (o *Observer) run() {
	for {
		select {
		case <-o.done:
			return
		case event, ok := <-o.watcher.Events:
			if !ok {
				return
			}
			o.handlePush(event)
		case err, ok := <-o.watcher.Errors:
			if !ok {
				return
			}
			o.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (o *Observer) handlePush(event fsnotify.Event) {
	name := filepath.Base(event.Name)

	if samePath(event.Name, o.positionsPath) {
		if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
			o.schedulePositionsChanged(pushSettleDelay)
		}
		return
	}

	kind, ok := model.KindForFile(name)
	if !ok {
		return
	}

	switch {
	case event.Op&fsnotify.Create != 0:
		o.setExists(kind, true)
		o.emit(Event{Type: ExportAppeared, Kind: kind})
	// A rename is a removal of the old name; the new name is not ours.
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		o.setExists(kind, false)
		o.emit(Event{Type: ExportRemoved, Kind: kind})
	}
}

// PollExports re-checks export-file existence and emits events for any
// difference against the last snapshot. Called from the coordinator tick
// while an export is pending; backs up lost push notifications.
func (o *Observer) PollExports() {
	for _, kind := range model.ExportKinds {
		exists := fileExists(filepath.Join(o.exportDir, kind.FileName()))

		o.mu.Lock()
		last := o.lastExists[kind]
		o.lastExists[kind] = exists
		o.mu.Unlock()

		if exists && !last {
			o.emit(Event{Type: ExportAppeared, Kind: kind})
		} else if !exists && last {
			o.emit(Event{Type: ExportRemoved, Kind: kind})
		}
	}
}

// PollPositions re-checks the positions file timestamp and schedules a
// change signal when it advanced.
func (o *Observer) PollPositions() {
	current := modTime(o.positionsPath)

	o.mu.Lock()
	advanced := current.After(o.lastPositions)
	if advanced {
		o.lastPositions = current
	}
	o.mu.Unlock()

	if advanced {
		o.schedulePositionsChanged(pollSettleDelay)
	}
}

func (o *Observer) schedulePositionsChanged(delay time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.settleTimer != nil {
		o.settleTimer.Reset(delay)
		return
	}
	o.settleTimer = time.AfterFunc(delay, func() {
		o.mu.Lock()
		o.settleTimer = nil
		o.lastPositions = modTime(o.positionsPath)
		o.mu.Unlock()

		o.emit(Event{Type: PositionsChanged})
	})
}

func (o *Observer) setExists(kind model.ExportKind, exists bool) {
	o.mu.Lock()
	o.lastExists[kind] = exists
	o.mu.Unlock()
}

func (o *Observer) emit(event Event) {
	select {
	case o.events <- event:
	default:
		o.logger.Warn("event queue full, dropping", zap.Int("type", int(event.Type)))
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func modTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

func samePath(a, b string) bool {
	return strings.EqualFold(filepath.Clean(a), filepath.Clean(b))
}
