package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"marguerite.stanford.edu/internal/logging"
)

type State int

const (
	StateIdle State = iota
	StateInFlight
	StateScheduled
	StateErrorSurfaced
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInFlight:
		return "in_flight"
	case StateScheduled:
		return "scheduled"
	case StateErrorSurfaced:
		return "error_surfaced"
	default:
		return "unknown"
	}
}

type Fetcher interface {
	Fetch(ctx context.Context) ([]VehicleRecord, error)
}

type Resolver interface {
	Resolve(ctx context.Context, records []VehicleRecord) (Mapping, error)
}

// MetricsRecorder receives pipeline measurements.
type MetricsRecorder interface {
	RecordCycle(result string, duration time.Duration)
	RecordRetry()
	RecordDropped(reason string, count int)
	SetActiveShuttles(count int)
}

type nopMetrics struct{}

func (nopMetrics) RecordCycle(string, time.Duration) {}
func (nopMetrics) RecordRetry()                      {}
func (nopMetrics) RecordDropped(string, int)         {}
func (nopMetrics) SetActiveShuttles(int)             {}

// ChangeSink is notified after every applied cycle.
type ChangeSink interface {
	PublishChanges(ctx context.Context, shuttles []Shuttle, changes Changes) error
}

// Controller owns the poll loop and the active shuttle set.
type Controller struct {
	fetcher  Fetcher
	resolver Resolver
	routes   RouteLookup
	config   Config
	logger   *slog.Logger
	metrics  MetricsRecorder
	sinks    []ChangeSink
	events   *eventHub

	mu         sync.Mutex
	state      State
	viewing    bool
	closed     bool
	generation uint64
	cancel     context.CancelFunc
	timer      *time.Timer
	lastErr    error

	shuttlesMu  sync.RWMutex
	shuttles    []Shuttle
	lastUpdated time.Time

	wg sync.WaitGroup
}

func NewController(config Config, fetcher Fetcher, resolver Resolver, routes RouteLookup, logger *slog.Logger) *Controller {
	config = config.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		fetcher:  fetcher,
		resolver: resolver,
		routes:   routes,
		config:   config,
		logger:   logging.Component(logger, "shuttle_controller"),
		metrics:  nopMetrics{},
		events:   newEventHub(config.SubscriberBuffer),
		shuttles: []Shuttle{},
	}
}

// NewHTTPController wires the vendor fetcher and resolver from config.
func NewHTTPController(config Config, routes RouteLookup, logger *slog.Logger, metrics MetricsRecorder) (*Controller, error) {
	config = config.withDefaults()
	if !config.Enabled() {
		return nil, fmt.Errorf("realtime pipeline needs both a feed URL and a lookup URL")
	}

	tables, err := LoadStaticTables(config.StaticTablesPath)
	if err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: config.RequestTimeout}
	fetcher := NewFeedFetcher(config.FeedURL, client, tables.DepotPolygon(), logger, metrics)
	resolver := NewRouteResolver(config.LookupURL, client, tables.FareboxTable(), logger)

	c := NewController(config, fetcher, resolver, routes, logger)
	if metrics != nil {
		c.SetMetrics(metrics)
	}
	return c, nil
}

// SetMetrics and AddSink must be called before polling starts.
func (c *Controller) SetMetrics(m MetricsRecorder) {
	c.metrics = m
}

func (c *Controller) AddSink(s ChangeSink) {
	c.sinks = append(c.sinks, s)
}

// CurrentShuttles returns the active set of the last applied cycle.
func (c *Controller) CurrentShuttles() []Shuttle {
	c.shuttlesMu.RLock()
	defer c.shuttlesMu.RUnlock()
	return slices.Clone(c.shuttles)
}

func (c *Controller) LastUpdated() time.Time {
	c.shuttlesMu.RLock()
	defer c.shuttlesMu.RUnlock()
	return c.lastUpdated
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Viewing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewing
}

// LastError is the surfaced error, or nil.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Subscribe returns a channel of controller events and a function that
// unsubscribes. Events are dropped for subscribers that fall behind.
func (c *Controller) Subscribe() (<-chan Event, func()) {
	return c.events.subscribe()
}

// SetViewingLiveMap turns automatic polling on or off. Turning it off
// cancels the armed timer and the in-flight cycle; a cycle that still
// completes is discarded.
func (c *Controller) SetViewingLiveMap(viewing bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.viewing == viewing {
		return
	}
	c.viewing = viewing

	if viewing {
		logging.LogOperation(c.logger, "live_map_viewing_started")
		c.startCycleLocked()
		return
	}

	logging.LogOperation(c.logger, "live_map_viewing_stopped")
	c.stopLocked()
	c.state = StateIdle
}

// ForceRefresh starts a cycle now. It is a no-op while a cycle is in flight
// or while the live map is not being viewed, and reports whether a cycle was
// started.
func (c *Controller) ForceRefresh() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || !c.viewing || c.state == StateInFlight {
		return false
	}
	c.stopTimerLocked()
	c.startCycleLocked()
	return true
}

// Shutdown stops polling, waits for the in-flight cycle to return and closes
// every subscriber channel.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.stopLocked()
	c.state = StateIdle
	c.mu.Unlock()

	c.wg.Wait()
	c.events.close()
	logging.LogOperation(c.logger, "shuttle_controller_stopped")
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) stopLocked() {
	c.stopTimerLocked()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.generation++
}

func (c *Controller) startCycleLocked() {
	c.generation++
	gen := c.generation
	cycleID := uuid.NewString()

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.state = StateInFlight

	c.emit(Event{Type: EventPollingStarted, CycleID: cycleID, Time: time.Now()})

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		c.runCycle(ctx, gen, cycleID)
	}()
}

func (c *Controller) runCycle(ctx context.Context, gen uint64, cycleID string) {
	logger := c.logger.With(slog.String("cycle_id", cycleID))
	start := time.Now()

	var records []VehicleRecord
	var mapping Mapping
	attempt := 0

	operation := func() error {
		attempt++
		if attempt > 1 {
			c.metrics.RecordRetry()
			logger.Warn("poll_cycle_retrying", slog.Int("attempt", attempt))
		}

		fetchCtx, cancelFetch := context.WithTimeout(ctx, c.config.RequestTimeout)
		recs, err := c.fetcher.Fetch(fetchCtx)
		cancelFetch()
		if err != nil {
			logging.LogError(logger, "vehicle_feed_fetch_failed", err, slog.Int("attempt", attempt))
			return err
		}

		resolveCtx, cancelResolve := context.WithTimeout(ctx, c.config.RequestTimeout)
		m, err := c.resolver.Resolve(resolveCtx, recs)
		cancelResolve()
		if err != nil {
			logging.LogError(logger, "vehicle_route_resolve_failed", err, slog.Int("attempt", attempt))
			return err
		}

		records, mapping = recs, m
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(&backoff.ZeroBackOff{}, c.config.SilentRetries), ctx)
	err := backoff.Retry(operation, policy)

	c.finishCycle(logger, gen, cycleID, start, records, mapping, err)
}

func (c *Controller) finishCycle(logger *slog.Logger, gen uint64, cycleID string, start time.Time, records []VehicleRecord, mapping Mapping, err error) {
	duration := time.Since(start)

	c.mu.Lock()
	if gen != c.generation || !c.viewing || c.closed {
		c.mu.Unlock()
		c.metrics.RecordCycle("discarded", duration)
		logging.LogOperation(logger, "poll_cycle_discarded", slog.Duration("duration", duration))
		return
	}
	c.cancel = nil

	if err != nil {
		c.state = StateErrorSurfaced
		c.lastErr = err
		c.mu.Unlock()

		classification := Classify(err)
		c.metrics.RecordCycle("failed", duration)
		logging.LogError(logger, "poll_cycle_failed", err,
			slog.String("classification", string(classification)),
			slog.Duration("duration", duration))
		c.emit(Event{
			Type:           EventPollingFailed,
			CycleID:        cycleID,
			Time:           time.Now(),
			Message:        err.Error(),
			Classification: classification,
		})
		return
	}

	c.shuttlesMu.Lock()
	next, changes := Reconcile(c.shuttles, records, mapping, c.routes)
	c.shuttles = next
	c.lastUpdated = time.Now()
	c.shuttlesMu.Unlock()

	c.lastErr = nil
	c.state = StateScheduled
	c.timer = time.AfterFunc(c.config.PollInterval, func() { c.timerFired(gen) })
	c.mu.Unlock()

	c.metrics.RecordCycle("succeeded", duration)
	c.metrics.RecordDropped("unresolved", changes.Unresolved)
	c.metrics.SetActiveShuttles(len(next))
	logging.LogOperation(logger, "poll_cycle_succeeded",
		slog.Int("shuttles", len(next)),
		slog.Int("added", len(changes.Added)),
		slog.Int("updated", len(changes.Updated)),
		slog.Int("removed", len(changes.Removed)),
		slog.Duration("duration", duration))

	c.publishToSinks(logger, next, changes)

	c.emit(Event{
		Type:    EventPollingSucceeded,
		CycleID: cycleID,
		Time:    time.Now(),
		Changes: &changes,
	})
}

func (c *Controller) publishToSinks(logger *slog.Logger, shuttles []Shuttle, changes Changes) {
	if len(c.sinks) == 0 || changes.Empty() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.config.RequestTimeout)
	defer cancel()
	for _, sink := range c.sinks {
		if err := sink.PublishChanges(ctx, shuttles, changes); err != nil {
			logging.LogError(logger, "shuttle_change_publish_failed", err)
		}
	}
}

func (c *Controller) emit(e Event) {
	c.metrics.RecordDropped("slow_subscriber", c.events.publish(e))
}

func (c *Controller) timerFired(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || !c.viewing || gen != c.generation || c.state != StateScheduled {
		return
	}
	c.timer = nil
	c.startCycleLocked()
}
