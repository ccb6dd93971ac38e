package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"smart_hatchery/internal/models"
)

// DefaultServoIntervalSeconds is used until the active configuration loads.
const DefaultServoIntervalSeconds = 7200

const hmsFallback = "00:00:00"

// Countdown is the local time-to-next-turn reminder. It ticks on its own
// clock and wraps to the period instead of stopping.
type Countdown struct {
	mu        sync.Mutex
	remaining int
	period    int

	observe func(remaining int)
}

// NewCountdown starts a countdown at period. observe, if set, is called
// after every tick with the new remaining value.
func NewCountdown(period int, observe func(remaining int)) *Countdown {
	c := &Countdown{observe: observe}
	c.Reset(period)
	return c
}

// Tick advances by one second: n -> n-1, 0 -> period. A non-positive period
// pins the countdown at 0.
func (c *Countdown) Tick() int {
	c.mu.Lock()
	switch {
	case c.period <= 0:
		c.remaining = 0
	case c.remaining <= 0:
		c.remaining = c.period
	default:
		c.remaining--
	}
	remaining := c.remaining
	c.mu.Unlock()

	if c.observe != nil {
		c.observe(remaining)
	}
	return remaining
}

// Reset installs a new period and restarts from it.
func (c *Countdown) Reset(period int) {
	if period < 0 {
		period = 0
	}
	c.mu.Lock()
	c.period = period
	c.remaining = period
	c.mu.Unlock()
}

// Restart sets the remaining time back to the current period.
func (c *Countdown) Restart() {
	c.mu.Lock()
	c.remaining = c.period
	c.mu.Unlock()
}

func (c *Countdown) State() models.CountdownState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.CountdownState{
		SecondsRemaining: c.remaining,
		PeriodSeconds:    c.period,
		Display:          FormatHMS(c.remaining),
	}
}

// Run ticks every tick until ctx is canceled.
func (c *Countdown) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.Tick()
		}
	}
}

// FormatHMS renders seconds as HH:MM:SS. Negative values and values beyond
// 99:59:59 render as 00:00:00.
func FormatHMS(seconds int) string {
	if seconds < 0 || seconds > models.MaxServoIntervalSeconds {
		return hmsFallback
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds%3600/60, seconds%60)
}
