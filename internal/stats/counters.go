// Package stats implements the per-stage counters stream spec.md §6
// ("Produces: a counters stream (per-stage instruction counts, opt hits,
// spill counts)"), serialized with msgpack the way the teacher's
// internal/driver.dcache round-trips its diagnose cache payload.
package stats

import (
	"fmt"
	"io"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// StageCounts holds one stage's tallies for one method.
type StageCounts struct {
	Stage        string `msgpack:"stage"`
	Method       string `msgpack:"method"`
	Instructions  int   `msgpack:"instructions"`
	OptHits       int   `msgpack:"opt_hits"`
	Spills        int   `msgpack:"spills"`
	Fills         int   `msgpack:"fills"`
	NodesDeleted  int   `msgpack:"nodes_deleted"`
}

// Counters aggregates StageCounts across every method compiled in one run.
// Safe for concurrent use by the worker pool (spec.md §5: per-method state
// is thread-local, but the counters sink is shared).
type Counters struct {
	mu    sync.Mutex
	items []StageCounts
}

// New creates an empty counters stream.
func New() *Counters { return &Counters{} }

// Record appends one stage's counts.
func (c *Counters) Record(sc StageCounts) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, sc)
}

// Items returns a snapshot of every recorded StageCounts.
func (c *Counters) Items() []StageCounts {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]StageCounts, len(c.items))
	copy(out, c.items)
	return out
}

// TotalFor sums one stage's Instructions field across every method.
func (c *Counters) TotalFor(stage string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, it := range c.items {
		if it.Stage == stage {
			total += it.Instructions
		}
	}
	return total
}

// Encode writes the full counters stream to w as a single msgpack array.
func (c *Counters) Encode(w io.Writer) error {
	items := c.Items()
	enc := msgpack.NewEncoder(w)
	if err := enc.Encode(items); err != nil {
		return fmt.Errorf("stats: failed to encode counters: %w", err)
	}
	return nil
}

// Decode reads a counters stream previously written by Encode and replaces
// the receiver's contents.
func (c *Counters) Decode(r io.Reader) error {
	var items []StageCounts
	dec := msgpack.NewDecoder(r)
	if err := dec.Decode(&items); err != nil {
		return fmt.Errorf("stats: failed to decode counters: %w", err)
	}
	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
	return nil
}
