// Package prefetch resolves the rows just past the viewport in the
// background so the next scroll renders from memory.
package prefetch

import (
	"context"
	"sync"

	"lesbin/internal/buffer"
	"lesbin/internal/logger"
)

// Stamp identifies the state a prefetch was started for.
type Stamp struct {
	Generation uint64
	Revision   uint64
}

// Reader is a frozen view of the buffer, usually a *buffer.Snapshot.
type Reader interface {
	Window(offset int64, n int) (buffer.Window, error)
}

// Result is a finished prefetch.
type Result struct {
	Stamp  Stamp
	Window buffer.Window
	Err    error
}

// Fetch resolves [offset, offset+n) from r. It is meant to run off the UI
// goroutine.
func Fetch(ctx context.Context, r Reader, stamp Stamp, offset int64, n int) Result {
	if err := ctx.Err(); err != nil {
		return Result{Stamp: stamp, Err: err}
	}
	w, err := r.Window(offset, n)
	return Result{Stamp: stamp, Window: w, Err: err}
}

// Cache holds the most recent accepted prefetch.
type Cache struct {
	mu      sync.Mutex
	pending Stamp
	started bool
	stamp   Stamp
	win     buffer.Window
	hits    int
}

// Begin records stamp as the prefetch in flight. It returns false when a
// prefetch for the same stamp is already running or done.
func (c *Cache) Begin(stamp Stamp) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started && c.pending == stamp {
		return false
	}
	c.pending = stamp
	c.started = true
	return true
}

// Accept stores res if it belongs to the latest Begin. Failed prefetches
// are dropped; the render path will read and report the error itself.
func (c *Cache) Accept(res Result) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started || res.Stamp != c.pending {
		logger.DebugTagf("prefetch", "dropping stale prefetch gen=%d rev=%d", res.Stamp.Generation, res.Stamp.Revision)
		return false
	}
	if res.Err != nil {
		logger.DebugTagf("prefetch", "prefetch failed: %v", res.Err)
		return false
	}
	c.stamp = res.Stamp
	c.win = res.Window
	return true
}

// Lookup serves [offset, offset+n) from the cache when it was filled at
// the given buffer revision and covers the whole range. A range that runs
// past the end of the file is served as long as the cached window reaches
// the end too.
func (c *Cache) Lookup(revision uint64, offset int64, n int, length int64) (buffer.Window, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.win.Data == nil || c.stamp.Revision != revision {
		return buffer.Window{}, false
	}
	want := min(int64(n), max(length-offset, 0))
	if !c.win.Covers(offset, int(want)) {
		return buffer.Window{}, false
	}
	c.hits++
	return c.win.Slice(offset, int(want)), true
}

// Invalidate drops the cached window.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.win = buffer.Window{}
	c.started = false
}

// Hits reports how many lookups were served.
func (c *Cache) Hits() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits
}
