package preset

import (
	"sync"
	"time"
)

// DebounceInterval is the coalescing window for preset-config writes, the
// reference editor's own debounce window for export_presets.cfg.
const DebounceInterval = 800 * time.Millisecond

// Debouncer coalesces rapid preset edits into a single Save call, the way
// an editor property panel avoids rewriting the config file on every
// keystroke. Callers call Request on each edit; Save runs at most once per
// DebounceInterval of inactivity.
type Debouncer struct {
	path string

	mu      sync.Mutex
	timer   *time.Timer
	pending []*Preset
	lastErr error
}

// NewDebouncer returns a Debouncer that writes to path.
func NewDebouncer(path string) *Debouncer {
	return &Debouncer{path: path}
}

// Request schedules presets to be written after DebounceInterval of no
// further calls, replacing any not-yet-fired schedule.
func (d *Debouncer) Request(presets []*Preset) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = presets
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(DebounceInterval, d.flush)
}

func (d *Debouncer) flush() {
	d.mu.Lock()
	presets := d.pending
	path := d.path
	d.mu.Unlock()

	err := Save(path, presets)

	d.mu.Lock()
	d.lastErr = err
	d.mu.Unlock()
}

// Flush cancels any pending timer and writes immediately, for callers that
// need the config on disk before exiting (e.g. editor shutdown).
func (d *Debouncer) Flush() error {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	presets := d.pending
	path := d.path
	d.mu.Unlock()

	if presets == nil {
		return nil
	}
	err := Save(path, presets)

	d.mu.Lock()
	d.lastErr = err
	d.mu.Unlock()
	return err
}

// LastError returns the error from the most recent debounced write, if any.
func (d *Debouncer) LastError() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastErr
}
