// Package queue buffers extracted invoices until a client collects them.
package queue

import (
	"sync"

	"github.com/zuma-group/bill-integration-platform/internal/domain"
)

// Pending is a FIFO of invoices waiting for review. It is safe for
// concurrent use.
type Pending struct {
	mu    sync.Mutex
	items []domain.Invoice
}

// NewPending creates an empty queue.
func NewPending() *Pending {
	return &Pending{}
}

// Enqueue appends invoices in order and returns the new queue size.
func (q *Pending) Enqueue(invoices ...domain.Invoice) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, invoices...)
	return len(q.items)
}

// Drain removes and returns up to max invoices from the front of the queue.
// A max below 1 drains nothing.
func (q *Pending) Drain(max int) []domain.Invoice {
	q.mu.Lock()
	defer q.mu.Unlock()
	if max < 1 || len(q.items) == 0 {
		return []domain.Invoice{}
	}
	if max > len(q.items) {
		max = len(q.items)
	}
	out := make([]domain.Invoice, max)
	copy(out, q.items[:max])
	rest := make([]domain.Invoice, len(q.items)-max)
	copy(rest, q.items[max:])
	q.items = rest
	return out
}

// Size returns the number of queued invoices.
func (q *Pending) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// ClampDrain bounds a requested drain size: non-positive values become def,
// values above max become max.
func ClampDrain(requested, def, max int) int {
	if requested <= 0 {
		requested = def
	}
	if requested > max {
		requested = max
	}
	if requested < 1 {
		requested = 1
	}
	return requested
}
