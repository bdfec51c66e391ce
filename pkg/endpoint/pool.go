package endpoint

import (
	"errors"
	"strings"
	"sync"
)

var ErrEmptyPool = errors.New("endpoint pool needs at least one RPC URL")

// Pool is an ordered, fixed list of RPC endpoints with a rotation cursor.
// Callers read the current endpoint and rotate after a failure. The cursor is
// shared by every operation that uses the pool, so concurrent failing calls
// may rotate past each other.
type Pool struct {
	mu        sync.RWMutex
	endpoints []string
	cursor    int
}

// NewPool builds a pool from the given URLs, skipping blank entries.
func NewPool(urls []string) (*Pool, error) {
	endpoints := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u != "" {
			endpoints = append(endpoints, u)
		}
	}
	if len(endpoints) == 0 {
		return nil, ErrEmptyPool
	}
	return &Pool{endpoints: endpoints}, nil
}

// Current returns the endpoint at the cursor.
func (p *Pool) Current() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.endpoints[p.cursor]
}

// Rotate advances the cursor to the next endpoint, wrapping around.
func (p *Pool) Rotate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cursor = (p.cursor + 1) % len(p.endpoints)
}

// Cursor returns the index of the current endpoint.
func (p *Pool) Cursor() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cursor
}

func (p *Pool) Len() int {
	return len(p.endpoints)
}

// Endpoints returns a copy of the configured endpoints in pool order.
func (p *Pool) Endpoints() []string {
	out := make([]string, len(p.endpoints))
	copy(out, p.endpoints)
	return out
}
