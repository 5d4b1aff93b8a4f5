package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/regevbr/anydo/internal/anydo"
	"github.com/regevbr/anydo/internal/calendar"
	"github.com/regevbr/anydo/internal/instrumentation"
	"github.com/regevbr/anydo/internal/logging"
)

// ServerContext holds the context for the serve daemon: the Any.do client,
// the calendar adapters it refreshes, and shutdown state shared between the
// poll loop, the MCP server, and the HTTP handlers.
type ServerContext struct {
	ctx      context.Context
	cancel   context.CancelFunc
	client   *anydo.Client
	adapters []*calendar.ListAdapter
	metrics  *instrumentation.Metrics
	logger   *slog.Logger

	// updateMu serializes update cycles so overlapping ticks never race
	updateMu sync.Mutex

	mu         sync.RWMutex
	lastUpdate time.Time
	lastErr    error
	shutdown   bool
}

// ContextOption configures a ServerContext.
type ContextOption func(*ServerContext)

// WithMetrics attaches a metrics recorder to the server context.
func WithMetrics(metrics *instrumentation.Metrics) ContextOption {
	return func(sc *ServerContext) {
		sc.metrics = metrics
	}
}

// WithLogger sets the logger used by update cycles.
func WithLogger(logger *slog.Logger) ContextOption {
	return func(sc *ServerContext) {
		sc.logger = logger
	}
}

// NewServerContext creates a new server context.
func NewServerContext(ctx context.Context, client *anydo.Client, adapters []*calendar.ListAdapter, opts ...ContextOption) (*ServerContext, error) {
	if client == nil {
		return nil, fmt.Errorf("anydo client is required")
	}

	shutdownCtx, cancel := context.WithCancel(ctx)

	sc := &ServerContext{
		ctx:      shutdownCtx,
		cancel:   cancel,
		client:   client,
		adapters: adapters,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(sc)
	}

	return sc, nil
}

// Context returns the server context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Metrics returns the metrics recorder, or nil when none is configured.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// Client returns the Any.do client.
func (sc *ServerContext) Client() *anydo.Client {
	return sc.client
}

// Adapters returns all calendar adapters.
func (sc *ServerContext) Adapters() []*calendar.ListAdapter {
	return sc.adapters
}

// AdapterByName returns the calendar adapter with the given name.
// The lookup is case-insensitive. Returns nil if no adapter matches.
func (sc *ServerContext) AdapterByName(name string) *calendar.ListAdapter {
	for _, adapter := range sc.adapters {
		if strings.EqualFold(adapter.Name(), name) {
			return adapter
		}
	}
	return nil
}

// updateOne refreshes a single adapter and records the cycle. The caller
// must hold updateMu: updates share the client's session and caches and
// never run concurrently.
func (sc *ServerContext) updateOne(ctx context.Context, adapter *calendar.ListAdapter) error {
	start := time.Now()
	err := adapter.Update(ctx)
	duration := time.Since(start)

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		sc.logger.Error("calendar update failed",
			logging.List(adapter.Name()),
			logging.Err(err),
		)
	} else {
		sc.logger.Debug("calendar updated",
			logging.List(adapter.Name()),
			slog.Int("tasks", len(adapter.AllTasks())),
		)
	}

	if sc.metrics != nil {
		sc.metrics.RecordUpdateCycle(ctx, adapter.Name(), status, duration)
		if err == nil {
			sc.metrics.RecordTrackedTasks(ctx, adapter.Name(), len(adapter.AllTasks()))
		}
	}
	return err
}

// UpdateAdapter refreshes one calendar adapter on demand, serialized with
// the poll loop and any other on-demand updates.
func (sc *ServerContext) UpdateAdapter(ctx context.Context, adapter *calendar.ListAdapter) error {
	sc.updateMu.Lock()
	defer sc.updateMu.Unlock()
	return sc.updateOne(ctx, adapter)
}

// UpdateAll refreshes every calendar adapter. Cycles are serialized; a
// slow cycle causes the next tick to wait rather than run concurrently.
// All adapters are attempted even when some fail.
func (sc *ServerContext) UpdateAll(ctx context.Context) error {
	sc.updateMu.Lock()
	defer sc.updateMu.Unlock()

	var errs []error
	for _, adapter := range sc.adapters {
		if err := sc.updateOne(ctx, adapter); err != nil {
			errs = append(errs, fmt.Errorf("update %s: %w", adapter.Name(), err))
		}
	}

	err := errors.Join(errs...)

	sc.mu.Lock()
	sc.lastUpdate = time.Now()
	sc.lastErr = err
	sc.mu.Unlock()

	return err
}

// LastUpdate returns the time of the last completed update cycle and its
// error, if any. The zero time means no cycle has completed yet.
func (sc *ServerContext) LastUpdate() (time.Time, error) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.lastUpdate, sc.lastErr
}

// IsShutdown returns whether the server has been shutdown.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
