package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fail(b *Breaker, n int) {
	for range n {
		b.RecordFailure()
	}
}

func succeed(b *Breaker, n int) {
	for range n {
		b.RecordSuccess()
	}
}

func TestNewBreakerStartsClosed(t *testing.T) {
	b := New("postal-lookup")

	assert.Equal(t, "postal-lookup", b.Name())
	assert.Equal(t, StateClosed, b.State())
	assert.False(t, b.IsOpen())
}

func TestBreakerOpening(t *testing.T) {
	t.Run("opens on the failure that reaches the threshold", func(t *testing.T) {
		b := New("postal-lookup", WithFailureThreshold(3))
		fail(b, 2)
		require.False(t, b.IsOpen())

		useFallback, change := b.RecordFailure()
		assert.True(t, useFallback)
		assert.True(t, change.Opened)
		assert.Equal(t, StateOpen, b.State())
	})

	t.Run("failures while open report no transition", func(t *testing.T) {
		b := New("postal-lookup", WithFailureThreshold(1))
		fail(b, 1)

		useFallback, change := b.RecordFailure()
		assert.True(t, useFallback)
		assert.Equal(t, StateChange{}, change)
	})

	t.Run("a success clears the failure streak", func(t *testing.T) {
		b := New("postal-lookup", WithFailureThreshold(3))
		fail(b, 2)
		succeed(b, 1)
		fail(b, 2)
		assert.False(t, b.IsOpen())

		fail(b, 1)
		assert.True(t, b.IsOpen())
	})

	t.Run("non-positive thresholds keep the defaults", func(t *testing.T) {
		b := New("postal-lookup", WithFailureThreshold(0), WithSuccessThreshold(-1))
		fail(b, 4)
		assert.False(t, b.IsOpen())
		fail(b, 1)
		assert.True(t, b.IsOpen())
	})
}

func TestBreakerClosing(t *testing.T) {
	t.Run("closes after consecutive successes", func(t *testing.T) {
		b := New("postal-lookup", WithFailureThreshold(1), WithSuccessThreshold(2))
		fail(b, 1)

		usePrimary, change := b.RecordSuccess()
		assert.False(t, usePrimary)
		assert.False(t, change.Closed)

		usePrimary, change = b.RecordSuccess()
		assert.True(t, usePrimary)
		assert.True(t, change.Closed)
		assert.Equal(t, StateClosed, b.State())
	})

	t.Run("a failure while open restarts the success streak", func(t *testing.T) {
		b := New("postal-lookup", WithFailureThreshold(1), WithSuccessThreshold(3))
		fail(b, 1)
		succeed(b, 2)
		fail(b, 1)
		succeed(b, 2)
		assert.True(t, b.IsOpen())

		succeed(b, 1)
		assert.False(t, b.IsOpen())
	})

	t.Run("reset closes immediately", func(t *testing.T) {
		b := New("postal-lookup", WithFailureThreshold(1))
		fail(b, 1)

		b.Reset()
		assert.Equal(t, StateClosed, b.State())
	})
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
}
