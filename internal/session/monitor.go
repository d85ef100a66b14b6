package session

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Prober checks backend reachability.
type Prober interface {
	Ping(ctx context.Context) error
}

// Monitor drives the session's online flag from periodic backend probes.
type Monitor struct {
	prober   Prober
	session  *Session
	interval time.Duration
	logger   *zap.Logger
}

func NewMonitor(prober Prober, s *Session, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{prober: prober, session: s, interval: interval, logger: logger}
}

// Run probes until the context is cancelled. One probe fires immediately so
// the terminal does not start with a stale flag.
func (m *Monitor) Run(ctx context.Context) {
	m.probe(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.probe(ctx)
		}
	}
}

func (m *Monitor) probe(ctx context.Context) {
	timeout := m.interval
	if timeout > 5*time.Second {
		timeout = 5 * time.Second
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := m.prober.Ping(probeCtx); err != nil {
		if m.session.Online() {
			m.logger.Warn("backend probe failed", zap.Error(err))
		}
		m.session.SetOnline(false)
		return
	}
	m.session.SetOnline(true)
}
