package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ScanDebouncer suppresses duplicate rapid scans per scanning device. A
// single physical scan fires several camera frame callbacks in quick
// succession; only the first within the window should reach the validator.
//
// This is device-side UX filtering, not a security control: the validator
// is read-only on the credential path and stays correct under repeated or
// concurrent calls for the same credential.
type ScanDebouncer struct {
	mu      sync.Mutex
	entries map[string]debounceEntry

	window        time.Duration
	sweepInterval time.Duration
	now           func() time.Time
	logger        zerolog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

type debounceEntry struct {
	payload string
	seenAt  time.Time
}

type DebounceConfig struct {
	// Window is how long a repeated identical payload from the same device
	// is suppressed. Defaults to 750ms.
	Window time.Duration

	// SweepInterval is how often stale entries are evicted. Defaults to 30s.
	SweepInterval time.Duration
}

func NewScanDebouncer(cfg DebounceConfig, logger zerolog.Logger) *ScanDebouncer {
	window := cfg.Window
	if window <= 0 {
		window = 750 * time.Millisecond
	}
	sweep := cfg.SweepInterval
	if sweep <= 0 {
		sweep = 30 * time.Second
	}

	return &ScanDebouncer{
		entries:       make(map[string]debounceEntry),
		window:        window,
		sweepInterval: sweep,
		now:           time.Now,
		logger:        logger,
		done:          make(chan struct{}),
	}
}

// ShouldProcess reports whether a scanned payload from the given device
// session should be validated. An empty device session id disables
// debouncing for that call.
func (d *ScanDebouncer) ShouldProcess(deviceSessionID, payload string) bool {
	if deviceSessionID == "" {
		return true
	}

	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()

	if e, ok := d.entries[deviceSessionID]; ok &&
		e.payload == payload && now.Sub(e.seenAt) < d.window {
		return false
	}

	d.entries[deviceSessionID] = debounceEntry{payload: payload, seenAt: now}
	return true
}

// Reset clears the device's suppression state, e.g. when the scanning UI
// is explicitly reset by the guard.
func (d *ScanDebouncer) Reset(deviceSessionID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.entries, deviceSessionID)
}

// Start begins the background sweep loop that evicts stale entries. The
// loop exits when ctx is cancelled or Stop is called.
func (d *ScanDebouncer) Start(ctx context.Context) {
	ctx, d.cancel = context.WithCancel(ctx)
	go d.loop(ctx)
}

// Stop signals the sweep loop to exit and waits for it to finish. Safe to
// call when Start was never invoked.
func (d *ScanDebouncer) Stop() {
	if d.cancel == nil {
		return
	}
	d.cancel()
	<-d.done
}

func (d *ScanDebouncer) loop(ctx context.Context) {
	defer close(d.done)

	ticker := time.NewTicker(d.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.sweep()
		}
	}
}

func (d *ScanDebouncer) sweep() {
	cutoff := d.now().Add(-d.window)

	d.mu.Lock()
	defer d.mu.Unlock()

	removed := 0
	for id, e := range d.entries {
		if e.seenAt.Before(cutoff) {
			delete(d.entries, id)
			removed++
		}
	}
	if removed > 0 {
		d.logger.Debug().Int("removed", removed).Msg("debounce sweep")
	}
}
