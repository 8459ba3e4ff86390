package match

import (
	"context"
	"log/slog"
	"time"

	"github.com/ovenrush/matchcore/internal/transport"
)

// LatencyMonitor samples round-trip time over the transport while a
// match is running
type LatencyMonitor struct {
	transport transport.Transport
	interval  time.Duration
	logger    *slog.Logger

	cancel context.CancelFunc
}

// NewLatencyMonitor creates a monitor sampling at the given interval
func NewLatencyMonitor(t transport.Transport, interval time.Duration, logger *slog.Logger) *LatencyMonitor {
	if interval == 0 {
		interval = 5 * time.Second
	}
	return &LatencyMonitor{
		transport: t,
		interval:  interval,
		logger:    logger.With(slog.String("component", "latency-monitor")),
	}
}

// Start begins sampling until Stop or context cancellation
func (m *LatencyMonitor) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)

	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				pingCtx, cancel := context.WithTimeout(ctx, m.interval)
				rtt, err := m.transport.Ping(pingCtx)
				cancel()
				if err != nil {
					m.logger.Debug("latency sample failed", slog.String("error", err.Error()))
					continue
				}
				m.logger.Debug("latency sample", slog.Duration("rtt", rtt))
			}
		}
	}()
}

// Stop ends sampling
func (m *LatencyMonitor) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
}
