package queue_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zuma-group/bill-integration-platform/internal/domain"
	"github.com/zuma-group/bill-integration-platform/internal/queue"
)

func inv(number string) domain.Invoice {
	return domain.Invoice{InvoiceNumber: number}
}

func numbers(invs []domain.Invoice) []string {
	out := make([]string, len(invs))
	for i, v := range invs {
		out[i] = v.InvoiceNumber
	}
	return out
}

func TestPending_FIFO(t *testing.T) {
	q := queue.NewPending()
	assert.Equal(t, 2, q.Enqueue(inv("A"), inv("B")))
	assert.Equal(t, 3, q.Enqueue(inv("C")))

	assert.Equal(t, []string{"A", "B"}, numbers(q.Drain(2)))
	assert.Equal(t, 1, q.Size())
	assert.Equal(t, []string{"C"}, numbers(q.Drain(50)))
	assert.Equal(t, 0, q.Size())
	assert.Empty(t, q.Drain(10))
}

func TestPending_DrainNonPositive(t *testing.T) {
	q := queue.NewPending()
	q.Enqueue(inv("A"))
	assert.Empty(t, q.Drain(0))
	assert.Equal(t, 1, q.Size())
}

func TestPending_Concurrent(t *testing.T) {
	q := queue.NewPending()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Enqueue(inv("x"))
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, q.Size())
	assert.Len(t, q.Drain(200), 50)
}

func TestClampDrain(t *testing.T) {
	assert.Equal(t, 50, queue.ClampDrain(0, 50, 200))
	assert.Equal(t, 50, queue.ClampDrain(-3, 50, 200))
	assert.Equal(t, 7, queue.ClampDrain(7, 50, 200))
	assert.Equal(t, 200, queue.ClampDrain(999, 50, 200))
	assert.Equal(t, 1, queue.ClampDrain(0, 0, 200))
}
