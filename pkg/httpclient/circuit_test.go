package httpclient_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/authkit/pkg/httpclient"
)

func TestCircuitBreaker_Transitions(t *testing.T) {
	t.Parallel()

	t.Run("closed to open", func(t *testing.T) {
		t.Parallel()
		cb := httpclient.NewCircuitBreaker(2, 1, time.Hour)
		assert.Equal(t, httpclient.CircuitClosed, cb.State())

		cb.RecordFailure()
		assert.True(t, cb.Allow())
		cb.RecordFailure()
		assert.Equal(t, httpclient.CircuitOpen, cb.State())
		assert.False(t, cb.Allow())
	})

	t.Run("success resets failure count", func(t *testing.T) {
		t.Parallel()
		cb := httpclient.NewCircuitBreaker(2, 1, time.Hour)
		cb.RecordFailure()
		cb.RecordSuccess()
		cb.RecordFailure()
		assert.Equal(t, httpclient.CircuitClosed, cb.State())
	})

	t.Run("half-open probe closes", func(t *testing.T) {
		t.Parallel()
		cb := httpclient.NewCircuitBreaker(1, 2, 20*time.Millisecond)
		cb.RecordFailure()
		time.Sleep(30 * time.Millisecond)

		assert.Equal(t, httpclient.CircuitHalfOpen, cb.State())
		assert.True(t, cb.Allow())
		cb.RecordSuccess()
		assert.Equal(t, httpclient.CircuitHalfOpen, cb.State())
		cb.RecordSuccess()
		assert.Equal(t, httpclient.CircuitClosed, cb.State())
	})

	t.Run("half-open failure reopens", func(t *testing.T) {
		t.Parallel()
		cb := httpclient.NewCircuitBreaker(1, 1, 20*time.Millisecond)
		cb.RecordFailure()
		time.Sleep(30 * time.Millisecond)

		assert.True(t, cb.Allow())
		cb.RecordFailure()
		assert.Equal(t, httpclient.CircuitOpen, cb.State())
		assert.False(t, cb.Allow())
	})

	t.Run("reset", func(t *testing.T) {
		t.Parallel()
		cb := httpclient.NewCircuitBreaker(1, 1, time.Hour)
		cb.RecordFailure()
		cb.Reset()
		assert.Equal(t, httpclient.CircuitClosed, cb.State())
		assert.True(t, cb.Allow())
	})
}

func TestCircuitBreaker_Concurrent(t *testing.T) {
	t.Parallel()

	cb := httpclient.NewCircuitBreaker(10, 2, 10*time.Millisecond)
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := range 100 {
				switch (id + j) % 3 {
				case 0:
					cb.Allow()
				case 1:
					cb.RecordSuccess()
				default:
					cb.RecordFailure()
				}
			}
		}(i)
	}
	wg.Wait()

	assert.Contains(t, []string{"closed", "open", "half-open"}, cb.State().String())
}

func TestCircuitState_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "closed", httpclient.CircuitClosed.String())
	assert.Equal(t, "open", httpclient.CircuitOpen.String())
	assert.Equal(t, "half-open", httpclient.CircuitHalfOpen.String())
	assert.Equal(t, "unknown", httpclient.CircuitState(42).String())
}
