package hooks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/soyeahso/agentconsole/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager() *Manager {
	return NewManager(logging.New(nil, "silent"))
}

func noop(context.Context, Payload) error { return nil }

func TestManager_On_And_Emit(t *testing.T) {
	m := testManager()

	var got Payload
	m.On(EventTourStepChanged, "test", func(_ context.Context, p Payload) error {
		got = p
		return nil
	})

	m.Emit(context.Background(), EventTourStepChanged, map[string]any{"from": 2, "to": 4})
	assert.Equal(t, EventTourStepChanged, got.Event)
	assert.Equal(t, 2, got.Data["from"])
	assert.Equal(t, 4, got.Data["to"])
}

func TestManager_Emit_Order(t *testing.T) {
	m := testManager()

	var order []string
	m.On(EventAgentCreated, "first", func(context.Context, Payload) error {
		order = append(order, "first")
		return nil
	})
	m.On(EventAgentCreated, "second", func(context.Context, Payload) error {
		order = append(order, "second")
		return nil
	})

	m.Emit(context.Background(), EventAgentCreated, nil)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestManager_Emit_ErrorsAndPanicsDoNotStopOthers(t *testing.T) {
	m := testManager()

	var lastCalled bool
	m.On(EventChatOpened, "failing", func(context.Context, Payload) error {
		return errors.New("handler broke")
	})
	m.On(EventChatOpened, "panicking", func(context.Context, Payload) error {
		panic("boom")
	})
	m.On(EventChatOpened, "last", func(context.Context, Payload) error {
		lastCalled = true
		return nil
	})

	m.Emit(context.Background(), EventChatOpened, nil)
	assert.True(t, lastCalled)
}

func TestManager_Emit_NoHandlers(t *testing.T) {
	m := testManager()
	m.Emit(context.Background(), EventTourClosed, nil)
}

func TestManager_Off_KeepsOthers(t *testing.T) {
	m := testManager()

	var removed, kept int
	m.On(EventTourOpened, "remove-me", func(context.Context, Payload) error {
		removed++
		return nil
	})
	m.On(EventTourOpened, "keep-me", func(context.Context, Payload) error {
		kept++
		return nil
	})

	m.Off(EventTourOpened, "remove-me")
	m.Emit(context.Background(), EventTourOpened, nil)
	assert.Equal(t, 0, removed)
	assert.Equal(t, 1, kept)
}

func TestManager_Once(t *testing.T) {
	m := testManager()

	var calls int
	m.Once(EventTourCompleted, "celebrate", func(context.Context, Payload) error {
		calls++
		return nil
	})
	m.On(EventTourCompleted, "persist", noop)

	m.Emit(context.Background(), EventTourCompleted, nil)
	m.Emit(context.Background(), EventTourCompleted, nil)
	assert.Equal(t, 1, calls)
}

func TestManager_EmitAsync_Wait(t *testing.T) {
	m := testManager()

	var count atomic.Int32
	m.On(EventChatMessage, "audit", func(context.Context, Payload) error {
		count.Add(1)
		return nil
	})
	m.On(EventChatMessage, "metrics", func(context.Context, Payload) error {
		count.Add(1)
		return nil
	})

	m.EmitAsync(context.Background(), EventChatMessage, nil)
	m.Wait()
	assert.Equal(t, int32(2), count.Load())
}

func TestAllEvents(t *testing.T) {
	require.NotEmpty(t, AllEvents)
	seen := map[string]bool{}
	for _, e := range AllEvents {
		assert.False(t, seen[e], "duplicate event %s", e)
		seen[e] = true
	}
	assert.True(t, seen[EventTourStepChanged])
}
