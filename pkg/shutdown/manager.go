package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	shutdownDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "settlement_shutdown_duration_seconds",
		Help:    "Time from shutdown signal to the last store closing",
		Buckets: []float64{1, 5, 10, 15, 20, 25, 30},
	})

	phaseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "settlement_shutdown_phase_duration_seconds",
		Help:    "Time spent in each shutdown phase",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 15, 20, 25, 30},
	}, []string{"phase"})

	shutdownErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_shutdown_errors_total",
		Help: "Components that failed to stop cleanly",
	}, []string{"component"})
)

// Phase orders shutdown. Lower phases stop first.
type Phase int

const (
	// PhaseDrain refuses new requests and waits for running ones, which may hold an
	// open claim transaction
	PhaseDrain Phase = iota
	// PhaseListeners closes the HTTP, gRPC and metrics servers
	PhaseListeners
	// PhaseBackground cancels loops such as the pool monitor
	PhaseBackground
	// PhaseStores closes the primary pool and the reporting replica
	PhaseStores
)

func (p Phase) String() string {
	switch p {
	case PhaseDrain:
		return "drain"
	case PhaseListeners:
		return "listeners"
	case PhaseBackground:
		return "background"
	case PhaseStores:
		return "stores"
	}
	return "unknown"
}

// ShutdownFunc stops one component within the shutdown deadline
type ShutdownFunc func(context.Context) error

type component struct {
	phase Phase
	name  string
	fn    ShutdownFunc
}

// Manager stops the service phase by phase. Components of one phase stop concurrently
// and the next phase starts when all of them returned.
type Manager struct {
	logger     *zap.Logger
	timeout    time.Duration
	mu         sync.Mutex
	components []component
}

// NewManager creates a manager whose whole shutdown is bounded by timeout
func NewManager(logger *zap.Logger, timeout time.Duration) *Manager {
	return &Manager{logger: logger, timeout: timeout}
}

// Register adds a component to phase
func (sm *Manager) Register(phase Phase, name string, fn ShutdownFunc) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.components = append(sm.components, component{phase: phase, name: name, fn: fn})
	sm.logger.Debug("Registered shutdown component",
		zap.String("component", name),
		zap.Stringer("phase", phase),
	)
}

// RegisterHTTPServer registers an http.Server style Shutdown
func (sm *Manager) RegisterHTTPServer(phase Phase, name string, server interface{ Shutdown(context.Context) error }) {
	sm.Register(phase, name, server.Shutdown)
}

// RegisterCloser registers a component with Close() error
func (sm *Manager) RegisterCloser(phase Phase, name string, closer interface{ Close() error }) {
	sm.Register(phase, name, func(context.Context) error {
		return closer.Close()
	})
}

// RegisterNoErr registers a stop function that cannot fail
func (sm *Manager) RegisterNoErr(phase Phase, name string, fn func()) {
	sm.Register(phase, name, func(context.Context) error {
		fn()
		return nil
	})
}

// WaitForShutdown blocks until SIGINT or SIGTERM and then shuts down
func (sm *Manager) WaitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	sm.logger.Info("Received shutdown signal",
		zap.String("signal", sig.String()),
		zap.Duration("timeout", sm.timeout),
	)
	sm.Shutdown()
}

// Shutdown stops every registered component and returns the failures by component name.
// A phase that overruns the deadline does not stop later phases from running, so the
// stores are always closed.
func (sm *Manager) Shutdown() map[string]error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), sm.timeout)
	defer cancel()

	sm.mu.Lock()
	components := make([]component, len(sm.components))
	copy(components, sm.components)
	sm.mu.Unlock()
	sort.SliceStable(components, func(i, j int) bool { return components[i].phase < components[j].phase })

	errs := make(map[string]error)
	for i := 0; i < len(components); {
		j := i
		for j < len(components) && components[j].phase == components[i].phase {
			j++
		}
		sm.runPhase(ctx, components[i].phase, components[i:j], errs)
		i = j
	}

	elapsed := time.Since(start)
	shutdownDuration.Observe(elapsed.Seconds())
	if ctx.Err() != nil {
		sm.logger.Warn("Shutdown deadline exceeded", zap.Duration("timeout", sm.timeout))
	}
	if len(errs) > 0 {
		sm.logger.Error("Shutdown completed with errors",
			zap.Int("error_count", len(errs)),
			zap.Duration("elapsed", elapsed),
		)
	} else {
		sm.logger.Info("Shutdown completed", zap.Duration("elapsed", elapsed))
	}
	return errs
}

func (sm *Manager) runPhase(ctx context.Context, phase Phase, components []component, errs map[string]error) {
	start := time.Now()
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, c := range components {
		wg.Add(1)
		go func(c component) {
			defer wg.Done()
			if err := c.fn(ctx); err != nil {
				shutdownErrors.WithLabelValues(c.name).Inc()
				sm.logger.Error("Component shutdown failed",
					zap.String("component", c.name),
					zap.Stringer("phase", phase),
					zap.Error(err),
				)
				mu.Lock()
				errs[c.name] = err
				mu.Unlock()
			}
		}(c)
	}
	wg.Wait()

	phaseDuration.WithLabelValues(phase.String()).Observe(time.Since(start).Seconds())
	sm.logger.Info("Shutdown phase finished",
		zap.Stringer("phase", phase),
		zap.Int("components", len(components)),
		zap.Duration("elapsed", time.Since(start)),
	)
}
