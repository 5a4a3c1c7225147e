// Package stats provides the event counter used to report export and import
// outcomes. Counters are named, hold one tally per category and can be folded
// into a parent counter so that several runs add up to a single report.
package stats

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Well-known categories.
const (
	CategoryRows   = "rows"
	CategoryErrors = "errors"
)

// EventCounter counts named events. It is safe for concurrent use.
type EventCounter struct {
	name string

	mu        sync.Mutex
	counts    map[string]int
	order     []string
	errorCats map[string]struct{}
}

// NewEventCounter creates a counter. The "errors" category is always treated
// as an error category; errorCategories adds more.
func NewEventCounter(name string, errorCategories ...string) *EventCounter {
	c := &EventCounter{
		name:      name,
		counts:    make(map[string]int),
		errorCats: map[string]struct{}{CategoryErrors: {}},
	}
	for _, cat := range errorCategories {
		c.errorCats[cat] = struct{}{}
	}
	return c
}

// Name returns the counter name.
func (c *EventCounter) Name() string {
	return c.name
}

// Log increments category by one.
func (c *EventCounter) Log(category string) {
	c.LogN(category, 1)
}

// LogN increments category by n.
func (c *EventCounter) LogN(category string, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.add(category, n)
}

func (c *EventCounter) add(category string, n int) {
	if _, ok := c.counts[category]; !ok {
		c.order = append(c.order, category)
	}
	c.counts[category] += n
}

// Value returns the tally of category, zero if it was never logged.
func (c *EventCounter) Value(category string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[category]
}

// Categories returns the logged categories in first-logged order.
func (c *EventCounter) Categories() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// ErrorCount sums all error categories.
func (c *EventCounter) ErrorCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for cat := range c.errorCats {
		total += c.counts[cat]
	}
	return total
}

// HasErrors reports whether any error category is non-zero.
func (c *EventCounter) HasErrors() bool {
	return c.ErrorCount() > 0
}

// MergeChild folds child's tallies into c, keeping category names. Error
// categories of the child become error categories of c.
func (c *EventCounter) MergeChild(child *EventCounter) {
	if child == nil || child == c {
		return
	}

	// Snapshot the child first so two counters merging into each other
	// never hold both locks.
	child.mu.Lock()
	order := make([]string, len(child.order))
	copy(order, child.order)
	counts := make(map[string]int, len(child.counts))
	for k, v := range child.counts {
		counts[k] = v
	}
	errorCats := make([]string, 0, len(child.errorCats))
	for cat := range child.errorCats {
		errorCats = append(errorCats, cat)
	}
	child.mu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cat := range order {
		c.add(cat, counts[cat])
	}
	for _, cat := range errorCats {
		c.errorCats[cat] = struct{}{}
	}
}

// Snapshot returns a copy of all tallies.
func (c *EventCounter) Snapshot() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

// String renders one "name: category: value" line per category, sorted by
// category.
func (c *EventCounter) String() string {
	snap := c.Snapshot()
	cats := make([]string, 0, len(snap))
	for cat := range snap {
		cats = append(cats, cat)
	}
	sort.Strings(cats)

	var sb strings.Builder
	for i, cat := range cats {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%s: %s: %d", c.name, cat, snap[cat])
	}
	return sb.String()
}
