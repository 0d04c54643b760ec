package frames

import (
	"context"
	"time"

	"github.com/hyperjump/waygraph/internal/layout"
	"go.uber.org/zap"
)

// Ticker advances a simulation by one frame.
type Ticker interface {
	Tick() layout.Snapshot
}

// Loop calls Tick once per interval and publishes each snapshot.
type Loop struct {
	ticker   Ticker
	hub      *Hub
	interval time.Duration
	logger   *zap.Logger
}

// NewLoop creates a loop. A non-positive interval means 60 frames per second.
func NewLoop(ticker Ticker, hub *Hub, interval time.Duration, logger *zap.Logger) *Loop {
	if interval <= 0 {
		interval = time.Second / 60
	}
	return &Loop{ticker: ticker, hub: hub, interval: interval, logger: logger}
}

// Run ticks until ctx is cancelled. Frames are not skipped to catch up; a slow tick
// simply delays the next one.
func (l *Loop) Run(ctx context.Context) error {
	t := time.NewTicker(l.interval)
	defer t.Stop()
	if l.logger != nil {
		l.logger.Info("frame loop started", zap.Duration("interval", l.interval))
	}
	for {
		select {
		case <-ctx.Done():
			if l.logger != nil {
				l.logger.Info("frame loop stopped")
			}
			return nil
		case <-t.C:
			snap := l.ticker.Tick()
			if l.hub != nil {
				l.hub.Publish(snap)
			}
		}
	}
}
