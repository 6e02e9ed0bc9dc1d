package audit_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cadastro/internal/audit"
	"cadastro/internal/audit/store/memory"
	"cadastro/pkg/requestcontext"
)

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := audit.NewPublisher(store)
	defer pub.Close()

	personID := uuid.New()
	err := pub.Emit(context.Background(), audit.Event{
		PersonID: personID,
		Action:   audit.ActionPersonCreated,
	})
	require.NoError(t, err)

	events, err := store.ListByPerson(context.Background(), personID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionPersonCreated, events[0].Action)
	assert.NotEqual(t, uuid.Nil, events[0].ID)
}

func TestPublisher_AsyncModeWithWorker(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := audit.NewPublisher(store, audit.WithAsyncBuffer(10))
	worker := audit.NewWorker(store, pub.Inbox(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	personID := uuid.New()
	require.NoError(t, pub.Emit(context.Background(), audit.Event{
		PersonID: personID,
		Action:   audit.ActionPersonUpdated,
	}))

	require.Eventually(t, func() bool {
		events, _ := store.ListByPerson(context.Background(), personID)
		return len(events) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestPublisher_WorkerDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := audit.NewPublisher(store, audit.WithAsyncBuffer(100))

	personID := uuid.New()
	for range 10 {
		require.NoError(t, pub.Emit(context.Background(), audit.Event{
			PersonID: personID,
			Action:   audit.ActionPersonCreated,
		}))
	}
	pub.Close()

	// Inbox is closed, so Run returns once everything is appended.
	require.NoError(t, audit.NewWorker(store, pub.Inbox(), nil).Run(context.Background()))

	events, err := store.ListByPerson(context.Background(), personID)
	require.NoError(t, err)
	assert.Len(t, events, 10, "all events should be drained on close")
}

func TestPublisher_EventsEmittedDuringShutdownReachStore(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := audit.NewPublisher(store, audit.WithAsyncBuffer(10))

	signalCtx, stop := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- audit.NewWorker(store, pub.Inbox(), nil).Run(context.WithoutCancel(signalCtx))
	}()

	stop()
	// A request still in flight after the signal.
	personID := uuid.New()
	require.NoError(t, pub.Emit(context.Background(), audit.Event{
		PersonID: personID,
		Action:   audit.ActionPersonDeleted,
	}))

	select {
	case <-done:
		t.Fatal("worker returned before the publisher was closed")
	case <-time.After(20 * time.Millisecond):
	}

	pub.Close()
	require.NoError(t, <-done)

	events, err := store.ListByPerson(context.Background(), personID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionPersonDeleted, events[0].Action)
}

func TestPublisher_EmitWithCancelledContextStillQueues(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := audit.NewPublisher(store, audit.WithAsyncBuffer(10))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for range 20 {
		if !assert.NoError(t, pub.Emit(ctx, audit.Event{PersonID: uuid.New()})) {
			break
		}
		<-pub.Inbox()
	}
	pub.Close()
}

func TestPublisher_BufferFull(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := audit.NewPublisher(store, audit.WithAsyncBuffer(1))
	defer pub.Close()

	require.NoError(t, pub.Emit(context.Background(), audit.Event{PersonID: uuid.New()}))
	err := pub.Emit(context.Background(), audit.Event{PersonID: uuid.New()})
	assert.ErrorIs(t, err, audit.ErrBufferFull)
}

func TestPublisher_ConcurrentEmitDoesNotPanic(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := audit.NewPublisher(store, audit.WithAsyncBuffer(1))

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = pub.Emit(context.Background(), audit.Event{PersonID: uuid.New()})
		}()
	}
	pub.Close()
	wg.Wait()
}

func TestPublisher_EmitAfterCloseAppendsInline(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := audit.NewPublisher(store, audit.WithAsyncBuffer(1))
	pub.Close()

	personID := uuid.New()
	require.NoError(t, pub.Emit(context.Background(), audit.Event{PersonID: personID}))

	events, err := store.ListByPerson(context.Background(), personID)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestPublisher_PreservesExistingTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := audit.NewPublisher(store)

	personID := uuid.New()
	customTime := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, pub.Emit(context.Background(), audit.Event{
		PersonID:  personID,
		Timestamp: customTime,
	}))

	events, err := store.ListByPerson(context.Background(), personID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, customTime, events[0].Timestamp)
}

func TestNewEventEnrichesFromContext(t *testing.T) {
	now := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)
	ctx = requestcontext.WithRequestID(ctx, "req-1")
	ctx = requestcontext.WithActor(ctx, "operator-7")
	ctx = requestcontext.WithClientMetadata(ctx, "10.0.0.1", "Firefox/120.0 (Linux x86_64)")

	personID := uuid.New()
	event := audit.NewEvent(ctx, audit.ActionPersonDeleted, personID)

	assert.Equal(t, audit.ActionPersonDeleted, event.Action)
	assert.Equal(t, personID, event.PersonID)
	assert.Equal(t, "req-1", event.RequestID)
	assert.Equal(t, "operator-7", event.ActorID)
	assert.Equal(t, "10.0.0.1", event.ClientIP)
	assert.Equal(t, "Firefox/120.0 (Linux x86_64)", event.UserAgent)
	assert.Equal(t, now, event.Timestamp)
	assert.NotEqual(t, uuid.Nil, event.ID)
}
