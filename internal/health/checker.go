// Package health runs periodic liveness probes against the service's
// external dependencies (content store API, database) and keeps a
// snapshot for the health endpoint.
package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Config holds probe scheduling configuration.
type Config struct {
	CheckInterval time.Duration
	ProbeTimeout  time.Duration
	FailThreshold int
}

// Probe is one named dependency check. Check returns nil when the
// dependency is reachable.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// ProbeStatus is the last observed state of one probe.
type ProbeStatus struct {
	Healthy     bool      `json:"healthy"`
	FailCount   int       `json:"fail_count,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
	LastChecked time.Time `json:"last_checked"`
}

// MetricsRecordFunc is an optional callback for recording probe results.
type MetricsRecordFunc func(probe string, success bool)

type probeState struct {
	failCount int
	status    ProbeStatus
}

// Checker runs the probe loop and serves status snapshots.
type Checker struct {
	probes    []Probe
	cfg       Config
	onMetrics MetricsRecordFunc
	logger    *zap.Logger

	mu     sync.Mutex
	states map[string]*probeState
}

// New creates a Checker over the given probes.
func New(probes []Probe, cfg Config, logger *zap.Logger) *Checker {
	if cfg.CheckInterval == 0 {
		cfg.CheckInterval = time.Minute
	}
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = 10 * time.Second
	}
	if cfg.FailThreshold == 0 {
		cfg.FailThreshold = 3
	}

	states := make(map[string]*probeState, len(probes))
	for _, p := range probes {
		// Unchecked probes report healthy until the first run says otherwise.
		states[p.Name] = &probeState{status: ProbeStatus{Healthy: true}}
	}
	return &Checker{probes: probes, cfg: cfg, logger: logger, states: states}
}

// SetMetricsRecord configures the metrics recording callback.
func (c *Checker) SetMetricsRecord(fn MetricsRecordFunc) {
	c.onMetrics = fn
}

// Start runs the probe loop until stop is closed. It takes its own stop
// channel rather than sharing the process signal channel: a shared
// channel lets the loop consume the one delivered signal and leave the
// shutdown path waiting forever.
func (c *Checker) Start(stop <-chan struct{}) {
	ticker := time.NewTicker(c.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.CheckAll(context.Background())
		case <-stop:
			return
		}
	}
}

// CheckAll runs every probe once, concurrently.
func (c *Checker) CheckAll(ctx context.Context) {
	var wg sync.WaitGroup
	for _, p := range c.probes {
		wg.Add(1)
		go func(p Probe) {
			defer wg.Done()

			probeCtx, cancel := context.WithTimeout(ctx, c.cfg.ProbeTimeout)
			err := p.Check(probeCtx)
			cancel()

			if c.onMetrics != nil {
				c.onMetrics(p.Name, err == nil)
			}
			c.record(p.Name, err)
		}(p)
	}
	wg.Wait()
}

func (c *Checker) record(name string, err error) {
	now := time.Now().UTC()

	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.states[name]

	if err == nil {
		recovered := st.failCount >= c.cfg.FailThreshold
		st.failCount = 0
		st.status = ProbeStatus{Healthy: true, LastChecked: now}
		if recovered {
			c.logger.Info("health: dependency recovered", zap.String("probe", name))
		}
		return
	}

	st.failCount++
	st.status.FailCount = st.failCount
	st.status.LastError = err.Error()
	st.status.LastChecked = now

	// Only flip to unhealthy at the threshold, so one flaky probe run
	// does not take /healthz down.
	if st.failCount == c.cfg.FailThreshold {
		st.status.Healthy = false
		c.logger.Warn("health: dependency degraded",
			zap.String("probe", name),
			zap.Int("fail_count", st.failCount),
			zap.Error(err),
		)
	} else if st.failCount > c.cfg.FailThreshold {
		st.status.Healthy = false
	}
}

// Snapshot returns the current status of every probe.
func (c *Checker) Snapshot() map[string]ProbeStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]ProbeStatus, len(c.states))
	for name, st := range c.states {
		out[name] = st.status
	}
	return out
}

// Healthy reports whether every probe is currently healthy.
func (c *Checker) Healthy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, st := range c.states {
		if !st.status.Healthy {
			return false
		}
	}
	return true
}
