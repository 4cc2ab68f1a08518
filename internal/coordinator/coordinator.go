package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"fxvolbridge/internal/gateway"
	"fxvolbridge/internal/model"
	"fxvolbridge/internal/registry"
	"fxvolbridge/internal/watch"
)

// fadeDelay bounds the transient completion indicator.
const fadeDelay = 5 * time.Second

// Builder produces a volatility grid for the given pairs.
type Builder interface {
	Build(pairs []model.Pair) ([]model.VolatilityPoint, error)
}

// Writer persists one export artifact.
type Writer interface {
	Write(kind model.ExportKind, points []model.VolatilityPoint) error
}

// Config holds the coordinator's scheduling settings.
type Config struct {
	ScheduleMinute int
	FromHour       int
	ToHour         int
	AutoExport     bool
}

// Snapshot is the externally visible coordinator state.
type Snapshot struct {
	Status        string
	Connected     bool
	Importing     bool
	JustCompleted bool
	Points        int
}

type opKind int

const (
	opLoad opKind = iota
	opExport
	opRefreshPairs
)

type request struct {
	op   opKind
	kind model.ExportKind
}

type fetchResult struct {
	points        []model.VolatilityPoint
	err           error
	connectFailed bool
	scheduled     bool
}

// Coordinator owns the import/export state machine. All state lives on the
// goroutine running Run; observer events, fetch results, and external
// requests are marshaled onto it through channels.
type Coordinator struct {
	cfg      Config
	gateway  gateway.Gateway
	builder  Builder
	exporter Writer
	registry *registry.Registry
	observer *watch.Observer
	logger   *zap.Logger
	now      func() time.Time

	requests  chan request
	fetchDone chan fetchResult

	m         *machine
	tickCount int

	mu       sync.RWMutex
	snapshot Snapshot
	points   []model.VolatilityPoint
}

// New wires a coordinator. A nil clock selects time.Now.
func New(
	cfg Config,
	gw gateway.Gateway,
	builder Builder,
	exporter Writer,
	reg *registry.Registry,
	observer *watch.Observer,
	logger *zap.Logger,
	now func() time.Time,
) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &Coordinator{
		cfg:       cfg,
		gateway:   gw,
		builder:   builder,
		exporter:  exporter,
		registry:  reg,
		observer:  observer,
		logger:    logger,
		now:       now,
		requests:  make(chan request, 8),
		fetchDone: make(chan fetchResult, 1),
		m:         newMachine(cfg.ScheduleMinute, cfg.FromHour, cfg.ToHour),
	}
}

// Run executes the owner loop until the context ends. The gateway session
// is released exactly once on the way out; an in-flight fetch is not
// cancelled, its late result is simply never consumed.
func (c *Coordinator) Run(ctx context.Context) error {
	c.m.seedStartup(c.observer.SeedExports())
	c.registry.Load()
	c.refreshPairs()
	c.m.renderStatus()
	c.sync()

	if err := c.observer.Start(); err != nil {
		return err
	}
	defer c.observer.Close()
	defer c.gateway.Close()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	fade := time.NewTimer(fadeDelay)
	if !fade.Stop() {
		<-fade.C
	}
	defer fade.Stop()

	c.logger.Info("coordinator running",
		zap.Int("schedule_minute", c.cfg.ScheduleMinute),
		zap.Int("from_hour", c.cfg.FromHour),
		zap.Int("to_hour", c.cfg.ToHour),
		zap.Bool("auto_export", c.cfg.AutoExport),
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-c.observer.Events():
			c.handleObserver(event, fade)
		case req := <-c.requests:
			c.handleRequest(req)
		case result := <-c.fetchDone:
			c.handleFetchResult(result)
		case <-ticker.C:
			c.tick(c.now())
		case <-fade.C:
			c.m.fadeExpired()
			c.m.renderStatus()
			c.sync()
		}
	}
}

// TriggerLoad requests a manual data load. Ignored while a load is already
// in flight.
func (c *Coordinator) TriggerLoad() {
	c.send(request{op: opLoad})
}

// TriggerExport requests a manual export of one kind. Exports carry no
// overlap guard: the last write to the shared path wins.
func (c *Coordinator) TriggerExport(kind model.ExportKind) {
	c.send(request{op: opExport, kind: kind})
}

// TriggerRefresh requests a registry refresh from the positions feed.
func (c *Coordinator) TriggerRefresh() {
	c.send(request{op: opRefreshPairs})
}

// State returns the current externally visible state.
func (c *Coordinator) State() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Points returns a copy of the last fetched grid.
func (c *Coordinator) Points() []model.VolatilityPoint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]model.VolatilityPoint(nil), c.points...)
}

func (c *Coordinator) send(req request) {
	select {
	case c.requests <- req:
	default:
		c.logger.Warn("request queue full, dropping", zap.Int("op", int(req.op)))
	}
}

func (c *Coordinator) handleObserver(event watch.Event, fade *time.Timer) {
	switch event.Type {
	case watch.ExportAppeared:
		c.m.fileAppeared(event.Kind)
		c.m.renderStatus()
	case watch.ExportRemoved:
		if c.m.fileDisappeared(event.Kind, c.now()) {
			c.armFade(fade)
		}
		c.m.renderStatus()
	case watch.PositionsChanged:
		c.refreshPairs()
	}
	c.sync()
}

func (c *Coordinator) armFade(fade *time.Timer) {
	c.m.justCompleted = true
	if !fade.Stop() {
		select {
		case <-fade.C:
		default:
		}
	}
	fade.Reset(fadeDelay)
}

func (c *Coordinator) handleRequest(req request) {
	switch req.op {
	case opLoad:
		c.startLoad(false)
	case opExport:
		c.exportKind(req.kind)
	case opRefreshPairs:
		c.refreshPairs()
		c.sync()
	}
}

func (c *Coordinator) tick(now time.Time) {
	c.tickCount++

	if c.m.anyPending() {
		c.observer.PollExports()
	}
	if c.tickCount%5 == 0 {
		c.observer.PollPositions()
	}

	if c.cfg.AutoExport && c.m.shouldSchedule(now) {
		c.setStatus(fmt.Sprintf("Scheduled import at %s...", now.Format("15:04")))
		c.startLoad(true)
	}
}

func (c *Coordinator) refreshPairs() {
	count, modTime := c.registry.Refresh()
	stamp := "n/a"
	if !modTime.IsZero() {
		stamp = modTime.Format("2006-01-02 15:04")
	}
	c.m.status = fmt.Sprintf("Found %d pairs (file: %s)", count, stamp)
}

// startLoad launches the blocking gateway fetch on a worker goroutine; the
// result is marshaled back through fetchDone before any state changes.
func (c *Coordinator) startLoad(scheduled bool) {
	if c.m.loading {
		c.logger.Warn("load already in flight, ignoring trigger")
		return
	}
	c.m.loading = true
	c.setStatus("Loading volatility data...")

	pairs := c.registry.Pairs()
	go func() {
		if !c.gateway.Connect() {
			c.fetchDone <- fetchResult{connectFailed: true, scheduled: scheduled}
			return
		}
		points, err := c.builder.Build(pairs)
		c.fetchDone <- fetchResult{points: points, err: err, scheduled: scheduled}
	}()
}

func (c *Coordinator) handleFetchResult(result fetchResult) {
	c.m.loading = false

	switch {
	case result.connectFailed:
		c.m.connected = false
		c.setStatus("Cannot load data - not connected to market data gateway")
	case result.err != nil:
		c.logger.Warn("data load failed", zap.Error(result.err))
		c.setStatus(fmt.Sprintf("Error loading data: %v", result.err))
	default:
		c.m.connected = true
		c.mu.Lock()
		c.points = result.points
		c.mu.Unlock()
		c.setStatus(fmt.Sprintf("Loaded %d tenor points at %s", len(result.points), c.now().Format(clockFormat)))
		c.registry.Save()
	}

	if result.scheduled {
		if result.connectFailed || result.err != nil || len(result.points) == 0 {
			// No empty-file writes on an empty scheduled fetch.
			c.setStatus("Scheduled import failed - no data loaded")
			return
		}
		c.exportKind(model.ExportAtm)
		c.exportKind(model.ExportSmile)
	}
}

func (c *Coordinator) exportKind(kind model.ExportKind) {
	c.mu.RLock()
	points := c.points
	c.mu.RUnlock()

	if len(points) == 0 {
		c.logger.Warn("export skipped, no data loaded", zap.String("kind", kind.String()))
		return
	}

	if err := c.exporter.Write(kind, points); err != nil {
		c.logger.Warn("export failed", zap.String("kind", kind.String()), zap.Error(err))
		c.setStatus(fmt.Sprintf("%s export error: %v", kind, err))
		return
	}

	c.m.exportWritten(kind)
	c.m.renderStatus()
	c.sync()
}

func (c *Coordinator) setStatus(status string) {
	c.m.status = status
	c.sync()
}

func (c *Coordinator) sync() {
	c.mu.Lock()
	c.snapshot = Snapshot{
		Status:        c.m.status,
		Connected:     c.m.connected,
		Importing:     c.m.importing(),
		JustCompleted: c.m.justCompleted,
		Points:        len(c.points),
	}
	c.mu.Unlock()
}
