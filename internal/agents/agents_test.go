package agents

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/soyeahso/agentconsole/internal/domain"
	"github.com/soyeahso/agentconsole/internal/draft"
	"github.com/soyeahso/agentconsole/internal/gateway"
	"github.com/soyeahso/agentconsole/internal/logging"
	"github.com/soyeahso/agentconsole/internal/tour"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const instructions45 = "You are a helpful bot that answers questions."

func listing(agents ...domain.Agent) func(context.Context) ([]domain.Agent, error) {
	return func(context.Context) ([]domain.Agent, error) { return agents, nil }
}

type purger struct{ ids []string }

func (p *purger) DeleteForAgent(id string) error {
	p.ids = append(p.ids, id)
	return nil
}

func TestRefresh_UsageNeverDecreases(t *testing.T) {
	month := int64(10)
	api := &gateway.MockAPI{
		ListAgentsFunc: func(context.Context) ([]domain.Agent, error) {
			return []domain.Agent{{AgentID: "a1", Name: "Bot", UsageMonth: month, UsageYear: 100}}, nil
		},
	}
	s := NewService(api, logging.New(nil, "silent"))

	_, err := s.Refresh(context.Background())
	require.NoError(t, err)

	month = 3
	list, err := s.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(10), list[0].UsageMonth)
	assert.Equal(t, int64(100), list[0].UsageYear)

	month = 12
	list, err = s.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), list[0].UsageMonth)
}

func TestRefresh_ConcurrentCallersShareRequest(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 8)
	api := &gateway.MockAPI{
		ListAgentsFunc: func(context.Context) ([]domain.Agent, error) {
			entered <- struct{}{}
			<-release
			return []domain.Agent{{AgentID: "a1"}}, nil
		},
	}
	s := NewService(api, logging.New(nil, "silent"))

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Refresh(context.Background())
			assert.NoError(t, err)
		}()
	}
	<-entered
	// Let the other callers join the in-flight call.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Less(t, api.CallCount(gateway.OpListAgents), 5)
	assert.Len(t, s.List(), 1)
}

func TestRefresh_Error(t *testing.T) {
	api := &gateway.MockAPI{
		ListAgentsFunc: func(context.Context) ([]domain.Agent, error) { return nil, errors.New("down") },
	}
	s := NewService(api, logging.New(nil, "silent"))
	_, err := s.Refresh(context.Background())
	assert.Error(t, err)
	assert.Empty(t, s.List())
}

func TestGet(t *testing.T) {
	api := &gateway.MockAPI{ListAgentsFunc: listing(
		domain.Agent{ID: "r1", AgentID: "a1", Name: "JokeAgent"},
		domain.Agent{ID: "r2", AgentID: "a2", Name: "Twin"},
		domain.Agent{ID: "r3", AgentID: "a3", Name: "twin"},
	)}
	s := NewService(api, logging.New(nil, "silent"))
	ctx := context.Background()

	a, err := s.Get(ctx, "jokeagent")
	require.NoError(t, err)
	assert.Equal(t, "a1", a.AgentID)
	assert.Equal(t, 1, api.CallCount(gateway.OpListAgents), "first lookup loads the list")

	a, err = s.Get(ctx, "r2")
	require.NoError(t, err)
	assert.Equal(t, "a2", a.AgentID)
	assert.Equal(t, 1, api.CallCount(gateway.OpListAgents), "cache hit")

	_, err = s.Get(ctx, "TWIN")
	assert.ErrorIs(t, err, ErrAmbiguous)

	_, err = s.Get(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 2, api.CallCount(gateway.OpListAgents), "miss triggers one refresh")
}

func TestDeploy_RequiresChatCapable(t *testing.T) {
	api := &gateway.MockAPI{ListAgentsFunc: listing(domain.Agent{AgentID: "a1", Name: "Half"})}
	s := NewService(api, logging.New(nil, "silent"))

	_, _, err := s.Deploy(context.Background(), "a1")
	assert.ErrorIs(t, err, ErrNotChatCapable)
	assert.Equal(t, 0, api.CallCount(gateway.OpDeployChat))
}

func TestDeployAndRevoke(t *testing.T) {
	ctx := context.Background()
	coord := tour.New(nil, nil, logging.New(nil, "silent"))
	coord.AutoStart(ctx)
	require.NoError(t, coord.GoToStep(ctx, tour.StepDeploy))

	api := &gateway.MockAPI{ListAgentsFunc: listing(domain.Agent{AgentID: "a1", AliasID: "al", Name: "Bot"})}
	s := NewService(api, logging.New(nil, "silent"), WithTour(coord))

	_, err := s.Revoke(ctx, "a1")
	assert.ErrorIs(t, err, ErrNotDeployed)

	a, dep, err := s.Deploy(ctx, "Bot")
	require.NoError(t, err)
	assert.Equal(t, "https://chat.example.com/a1", dep.URL)
	assert.True(t, a.Deployed())
	assert.True(t, s.List()[0].Deployed())
	assert.True(t, coord.Flag(tour.FlagAgentDeployed))
	assert.Equal(t, tour.StepFinish, coord.State().Step)

	a, err = s.Revoke(ctx, "Bot")
	require.NoError(t, err)
	assert.False(t, a.Deployed())
	assert.False(t, s.List()[0].Deployed())
}

func TestUpdate(t *testing.T) {
	var got gateway.UpdateAgentRequest
	api := &gateway.MockAPI{
		ListAgentsFunc: listing(domain.Agent{AgentID: "a1", Name: "Old"}),
		UpdateAgentFunc: func(_ context.Context, id string, req gateway.UpdateAgentRequest) error {
			assert.Equal(t, "a1", id)
			got = req
			return nil
		},
	}
	s := NewService(api, logging.New(nil, "silent"))
	ctx := context.Background()

	_, err := s.Update(ctx, "Old", draft.Draft{Name: "New Name", Instructions: "short"})
	var ve *draft.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, 0, api.CallCount(gateway.OpUpdateAgent))

	a, err := s.Update(ctx, "Old", draft.Draft{Name: "New Name", Instructions: instructions45, EnableEmail: true})
	require.NoError(t, err)
	assert.Equal(t, "NewName", got.Name)
	assert.True(t, got.EnableEmail)
	assert.Equal(t, "NewName", a.Name)
	assert.Equal(t, "NewName", s.List()[0].Name)
}

func TestDelete(t *testing.T) {
	p := &purger{}
	api := &gateway.MockAPI{ListAgentsFunc: listing(
		domain.Agent{AgentID: "a1", Name: "One"},
		domain.Agent{AgentID: "a2", Name: "Two"},
	)}
	s := NewService(api, logging.New(nil, "silent"), WithTranscripts(p))

	_, err := s.Delete(context.Background(), "One")
	require.NoError(t, err)
	assert.Equal(t, []string{"a1"}, p.ids)
	require.Len(t, s.List(), 1)
	assert.Equal(t, "a2", s.List()[0].AgentID)
}
