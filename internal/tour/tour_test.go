package tour

import (
	"context"
	"errors"
	"testing"

	"github.com/soyeahso/agentconsole/internal/hooks"
	"github.com/soyeahso/agentconsole/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	done bool
	err  error
	sets int
}

func (m *memStore) TourCompleted() (bool, error) { return m.done, m.err }

func (m *memStore) SetTourCompleted(done bool) error {
	if m.err != nil {
		return m.err
	}
	m.sets++
	m.done = done
	return nil
}

func newTest(t *testing.T, store Store) (*Coordinator, *hooks.Manager) {
	t.Helper()
	log := logging.New(nil, "silent")
	events := hooks.NewManager(log)
	return New(store, events, log), events
}

func recordSteps(events *hooks.Manager) *[]int {
	var got []int
	events.On(hooks.EventTourStepChanged, "test", func(_ context.Context, p hooks.Payload) error {
		got = append(got, p.Data["to"].(int))
		return nil
	})
	return &got
}

func TestStepsTable(t *testing.T) {
	all := Steps()
	require.Len(t, all, StepCount())
	for i, s := range all {
		assert.Equal(t, i, s.Index, s.ID)
	}
	assert.Equal(t, FlagAgentCreated, all[StepCreateAgent].Gate)
	assert.Equal(t, FlagChatOpened, all[StepOpenChat].Gate)
	assert.Equal(t, FlagAgentDeployed, all[StepDeploy].Gate)
	assert.Empty(t, all[StepSelectBlueprint].Gate)
}

func TestAutoStart(t *testing.T) {
	ctx := context.Background()

	c, _ := newTest(t, &memStore{})
	assert.True(t, c.AutoStart(ctx))
	assert.True(t, c.IsOpen())
	assert.False(t, c.AutoStart(ctx), "already open")

	c, _ = newTest(t, &memStore{done: true})
	assert.False(t, c.AutoStart(ctx))
	assert.False(t, c.IsOpen())
}

func TestAutoStart_StoreErrorCountsAsFirstRun(t *testing.T) {
	c, _ := newTest(t, &memStore{err: errors.New("disk gone")})
	assert.True(t, c.State().FirstRun)
}

func TestOpenCloseIdempotent(t *testing.T) {
	c, events := newTest(t, nil)
	var opened, closed int
	events.On(hooks.EventTourOpened, "t", func(context.Context, hooks.Payload) error { opened++; return nil })
	events.On(hooks.EventTourClosed, "t", func(context.Context, hooks.Payload) error { closed++; return nil })

	ctx := context.Background()
	c.Open(ctx)
	c.Open(ctx)
	c.Close(ctx)
	c.Close(ctx)
	assert.Equal(t, 1, opened)
	assert.Equal(t, 1, closed)
}

func TestGoToStep(t *testing.T) {
	c, events := newTest(t, nil)
	got := recordSteps(events)
	ctx := context.Background()

	require.NoError(t, c.GoToStep(ctx, StepAgentList))
	require.NoError(t, c.GoToStep(ctx, StepAgentList))
	assert.Equal(t, []int{StepAgentList}, *got, "second request is a no-op")

	assert.ErrorIs(t, c.GoToStep(ctx, -1), ErrInvalidStep)
	assert.ErrorIs(t, c.GoToStep(ctx, StepCount()), ErrInvalidStep)
}

func TestNext_SkipsBlueprintReview(t *testing.T) {
	c, events := newTest(t, nil)
	got := recordSteps(events)
	ctx := context.Background()

	var skipped int
	c.OnSkipBlueprint(func() { skipped++ })

	c.Open(ctx)
	require.NoError(t, c.GoToStep(ctx, StepSelectBlueprint))
	require.NoError(t, c.Next(ctx))

	assert.Equal(t, 1, skipped)
	assert.Equal(t, StepCreateAgent, c.State().Step)
	assert.Equal(t, []int{StepSelectBlueprint, StepCreateAgent}, *got)
}

func TestNext_AfterBlueprintChosen(t *testing.T) {
	c, _ := newTest(t, nil)
	ctx := context.Background()
	var skipped int
	c.OnSkipBlueprint(func() { skipped++ })

	c.Open(ctx)
	require.NoError(t, c.GoToStep(ctx, StepSelectBlueprint))
	require.NoError(t, c.SetFlag(FlagBlueprintInteracted, true))
	require.NoError(t, c.Next(ctx))

	assert.Equal(t, 0, skipped)
	assert.Equal(t, StepReviewBlueprint, c.State().Step)
}

func TestNext_GatedOnFirstRun(t *testing.T) {
	c, _ := newTest(t, &memStore{})
	ctx := context.Background()
	c.AutoStart(ctx)
	require.NoError(t, c.GoToStep(ctx, StepCreateAgent))

	assert.False(t, c.CanAdvance())
	assert.ErrorIs(t, c.Next(ctx), ErrStepGated)
	assert.Equal(t, StepCreateAgent, c.State().Step)

	require.NoError(t, c.SetFlag(FlagAgentCreated, true))
	assert.True(t, c.CanAdvance())
	require.NoError(t, c.Next(ctx))
	assert.Equal(t, StepAgentList, c.State().Step)
}

func TestNext_UngatedOnReplay(t *testing.T) {
	c, _ := newTest(t, &memStore{done: true})
	ctx := context.Background()
	c.Restart(ctx)
	require.NoError(t, c.GoToStep(ctx, StepOpenChat))

	assert.True(t, c.CanAdvance())
	require.NoError(t, c.Next(ctx))
	assert.Equal(t, StepDeploy, c.State().Step)
}

func TestNext_Closed(t *testing.T) {
	c, _ := newTest(t, nil)
	assert.ErrorIs(t, c.Next(context.Background()), ErrClosed)
	assert.ErrorIs(t, c.Back(context.Background()), ErrClosed)
	assert.False(t, c.CanAdvance())
}

func TestBack(t *testing.T) {
	c, _ := newTest(t, nil)
	ctx := context.Background()
	c.Open(ctx)
	require.NoError(t, c.Back(ctx))
	assert.Equal(t, StepWelcome, c.State().Step)

	require.NoError(t, c.GoToStep(ctx, StepReviewBlueprint))
	require.NoError(t, c.Back(ctx))
	assert.Equal(t, StepSelectBlueprint, c.State().Step)
}

func TestAdvance(t *testing.T) {
	c, _ := newTest(t, nil)
	ctx := context.Background()

	assert.False(t, c.Advance(ctx, StepSelectBlueprint), "closed tour is not nudged")
	assert.Equal(t, StepWelcome, c.State().Step)

	c.Open(ctx)
	assert.True(t, c.Advance(ctx, StepSelectBlueprint))
	assert.False(t, c.Advance(ctx, StepSelectBlueprint), "already there")
	assert.False(t, c.Advance(ctx, StepOpenCreate), "never moves backwards")
	assert.Equal(t, StepSelectBlueprint, c.State().Step)
}

func TestSetFlag(t *testing.T) {
	c, _ := newTest(t, nil)
	require.NoError(t, c.SetFlag(FlagChatOpened, true))
	assert.True(t, c.Flag(FlagChatOpened))
	require.NoError(t, c.SetFlag(FlagChatOpened, true))
	assert.ErrorIs(t, c.SetFlag("bogus", true), ErrUnknownFlag)

	st := c.State()
	st.Flags[FlagChatOpened] = false
	assert.True(t, c.Flag(FlagChatOpened), "snapshot is a copy")
}

func TestCompletePersists(t *testing.T) {
	store := &memStore{}
	c, events := newTest(t, store)
	var payload hooks.Payload
	events.On(hooks.EventTourCompleted, "t", func(_ context.Context, p hooks.Payload) error {
		payload = p
		return nil
	})
	ctx := context.Background()

	c.AutoStart(ctx)
	require.NoError(t, c.GoToStep(ctx, StepFinish))
	require.NoError(t, c.Next(ctx))

	assert.True(t, store.done)
	assert.False(t, c.IsOpen())
	assert.False(t, c.State().FirstRun)
	assert.Equal(t, false, payload.Data["dismissed"])

	require.NoError(t, c.Complete(ctx))
	assert.Equal(t, 1, store.sets, "second completion is a no-op")
}

func TestDismissPersists(t *testing.T) {
	store := &memStore{}
	c, events := newTest(t, store)
	var dismissed any
	events.On(hooks.EventTourCompleted, "t", func(_ context.Context, p hooks.Payload) error {
		dismissed = p.Data["dismissed"]
		return nil
	})
	ctx := context.Background()
	c.AutoStart(ctx)
	require.NoError(t, c.Dismiss(ctx))

	assert.True(t, store.done)
	assert.Equal(t, true, dismissed)

	c2, _ := newTest(t, store)
	assert.False(t, c2.AutoStart(ctx))
}

func TestReset(t *testing.T) {
	store := &memStore{done: true}
	c, _ := newTest(t, store)
	ctx := context.Background()
	require.NoError(t, c.SetFlag(FlagAgentCreated, true))

	require.NoError(t, c.Reset(ctx))
	assert.False(t, store.done)
	assert.True(t, c.State().FirstRun)
	assert.False(t, c.Flag(FlagAgentCreated))
	assert.True(t, c.AutoStart(ctx))
}
