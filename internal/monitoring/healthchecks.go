package monitoring

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const HEALTHCHECK_INTERVAL = 15 * time.Second

// Probe reports whether a dependency is reachable.
type Probe func(ctx context.Context) bool

// PingProbe adapts a Ping-style method to a Probe.
func PingProbe(ping func(ctx context.Context) error) Probe {
	return func(ctx context.Context) bool { return ping(ctx) == nil }
}

type check struct {
	probe   Probe
	healthy *atomic.Bool
}

// Monitor periodically probes the dependencies registered with it and keeps
// the last known state of each.
type Monitor struct {
	mu      sync.RWMutex
	checks  map[string]check
	timeout time.Duration
}

func NewMonitor() *Monitor {
	return &Monitor{checks: make(map[string]check), timeout: 5 * time.Second}
}

// Register adds a dependency. It is assumed healthy until the first probe.
func (m *Monitor) Register(name string, probe Probe) {
	healthy := &atomic.Bool{}
	healthy.Store(true)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks[name] = check{probe: probe, healthy: healthy}
}

func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.CheckNow(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CheckNow(ctx)
		}
	}
}

func (m *Monitor) CheckNow(ctx context.Context) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for name, c := range m.checks {
		probeCtx, cancel := context.WithTimeout(ctx, m.timeout)
		isHealthy := c.probe(probeCtx)
		cancel()

		if was := c.healthy.Swap(isHealthy); was != isHealthy {
			if isHealthy {
				slog.Info("[HealthCheck] Dependency recovered", slog.String("name", name))
			} else {
				slog.Warn("[HealthCheck] Dependency is unhealthy", slog.String("name", name))
			}
		}
	}
}

func (m *Monitor) Status() map[string]bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status := make(map[string]bool, len(m.checks))
	for name, c := range m.checks {
		status[name] = c.healthy.Load()
	}
	return status
}
