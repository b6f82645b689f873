package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/soyeahso/agentconsole/internal/agents"
	"github.com/soyeahso/agentconsole/internal/domain"
	"github.com/soyeahso/agentconsole/internal/gateway"
	"github.com/soyeahso/agentconsole/internal/logging"
	"github.com/soyeahso/agentconsole/internal/store"
	"github.com/soyeahso/agentconsole/internal/tour"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ready = domain.Agent{AgentID: "a1", AliasID: "al1", Name: "JokeAgent"}

func testTranscripts(t *testing.T) *store.Transcripts {
	t.Helper()
	db, err := store.Open(":memory:", logging.New(nil, "silent"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return store.NewTranscripts(db)
}

func TestOpen_RequiresChatCapable(t *testing.T) {
	_, err := Open(context.Background(), &gateway.MockAPI{}, domain.Agent{AgentID: "a1"}, Deps{}, logging.New(nil, "silent"))
	assert.ErrorIs(t, err, agents.ErrNotChatCapable)
}

func TestSend(t *testing.T) {
	var req gateway.SendChatRequest
	api := &gateway.MockAPI{
		SendChatFunc: func(_ context.Context, r gateway.SendChatRequest) (string, error) {
			req = r
			return "Why did the gopher cross the road?", nil
		},
	}
	tr := testTranscripts(t)
	s, err := Open(context.Background(), api, ready, Deps{Transcript: tr}, logging.New(nil, "silent"))
	require.NoError(t, err)

	reply, err := s.Send(context.Background(), "  tell me a joke ")
	require.NoError(t, err)
	s.Close()

	assert.Equal(t, "Why did the gopher cross the road?", reply)
	assert.Equal(t, "a1", req.AgentID)
	assert.Equal(t, "al1", req.AliasID)
	assert.Equal(t, s.ID(), req.SessionID)
	assert.Equal(t, "tell me a joke", req.Message)

	hist := s.History()
	require.Len(t, hist, 2)
	assert.Equal(t, domain.RoleUser, hist[0].Role)
	assert.Equal(t, domain.RoleBot, hist[1].Role)

	saved, err := tr.Get(s.ID())
	require.NoError(t, err)
	assert.Len(t, saved.Messages, 2)

	assert.Equal(t, 2, api.CallCount(gateway.OpSaveChatMessage))
	assert.Equal(t, 1, api.CallCount(gateway.OpSaveCallRecord))
}

func TestSend_AuditFailureIsNotReturned(t *testing.T) {
	api := &gateway.MockAPI{
		SaveChatMessageFunc: func(context.Context, domain.ChatMessage) error { return errors.New("audit down") },
		SaveCallRecordFunc:  func(context.Context, domain.CallRecord) error { return errors.New("audit down") },
	}
	s, err := Open(context.Background(), api, ready, Deps{}, logging.New(nil, "silent"))
	require.NoError(t, err)

	reply, err := s.Send(context.Background(), "hi")
	s.Close()
	require.NoError(t, err)
	assert.Equal(t, "mock reply", reply)
}

func TestSend_Error(t *testing.T) {
	api := &gateway.MockAPI{
		SendChatFunc: func(context.Context, gateway.SendChatRequest) (string, error) {
			return "", &gateway.RemoteError{Op: gateway.OpSendChat, Status: 502, Message: "bad gateway"}
		},
	}
	s, err := Open(context.Background(), api, ready, Deps{}, logging.New(nil, "silent"))
	require.NoError(t, err)

	_, err = s.Send(context.Background(), "hi")
	var re *gateway.RemoteError
	require.ErrorAs(t, err, &re)
	s.Close()
	assert.Empty(t, s.History())
	assert.Equal(t, 0, api.CallCount(gateway.OpSaveChatMessage))
}

func TestSend_Empty(t *testing.T) {
	api := &gateway.MockAPI{}
	s, err := Open(context.Background(), api, ready, Deps{}, logging.New(nil, "silent"))
	require.NoError(t, err)
	_, err = s.Send(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Equal(t, 0, api.CallCount(gateway.OpSendChat))
}

func TestOpen_AdvancesTour(t *testing.T) {
	ctx := context.Background()
	coord := tour.New(nil, nil, logging.New(nil, "silent"))
	coord.AutoStart(ctx)
	require.NoError(t, coord.GoToStep(ctx, tour.StepOpenChat))
	require.ErrorIs(t, coord.Next(ctx), tour.ErrStepGated)

	_, err := Open(ctx, &gateway.MockAPI{}, ready, Deps{Tour: coord}, logging.New(nil, "silent"))
	require.NoError(t, err)
	assert.True(t, coord.Flag(tour.FlagChatOpened))
	assert.Equal(t, tour.StepDeploy, coord.State().Step)
}
