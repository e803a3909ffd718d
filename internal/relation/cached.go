package relation

import (
	"context"
	"sync"
)

// CachedRelation memoizes the first successful resolution of a Relation.
// Errors are not cached; the next call retries.
type CachedRelation struct {
	rel *Relation

	mu     sync.Mutex
	done   bool
	result Result
}

// Cached wraps r so Results runs the query at most once.
// Because r holds a snapshot of its parent, every cached result belongs
// to one unchanged parent state.
func Cached(r *Relation) *CachedRelation {
	return &CachedRelation{rel: r}
}

// Relation returns the wrapped relation.
func (c *CachedRelation) Relation() *Relation {
	return c.rel
}

// Results returns the memoized result, resolving on first use.
func (c *CachedRelation) Results(ctx context.Context) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.done {
		return c.result, nil
	}

	result, err := c.rel.Results(ctx)
	if err != nil {
		return Result{}, err
	}
	c.result = result
	c.done = true
	return result, nil
}

// Reset drops the memoized result.
func (c *CachedRelation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.done = false
	c.result = Result{}
}
