package store

import (
	"testing"
	"time"

	"github.com/soyeahso/agentconsole/internal/domain"
	"github.com/soyeahso/agentconsole/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	log := logging.New(nil, "silent")
	db, err := Open(":memory:", log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// --- DB/Migration tests ---

func TestOpen_InMemory(t *testing.T) {
	db := testDB(t)
	assert.NotNil(t, db.SQL())
}

func TestOpen_File(t *testing.T) {
	path := t.TempDir() + "/data/console.db"
	db, err := Open(path, logging.New(nil, "silent"))
	require.NoError(t, err)
	require.NoError(t, NewPreferences(db).SetTourCompleted(true))
	require.NoError(t, db.Close())

	db, err = Open(path, logging.New(nil, "silent"))
	require.NoError(t, err)
	defer db.Close()
	done, err := NewPreferences(db).TourCompleted()
	require.NoError(t, err)
	assert.True(t, done)
}

func TestMigrations_Idempotent(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.migrate())

	var count int
	require.NoError(t, db.sql.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, len(migrations), count)
}

func TestSchema_TablesExist(t *testing.T) {
	db := testDB(t)

	for _, table := range []string{"preferences", "chat_sessions", "chat_messages", "chat_messages_fts"} {
		var name string
		err := db.sql.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
	}
}

// --- Preferences ---

func TestPreferences_TourCompletedDefaultsFalse(t *testing.T) {
	prefs := NewPreferences(testDB(t))
	done, err := prefs.TourCompleted()
	require.NoError(t, err)
	assert.False(t, done)
}

func TestPreferences_SetOverwrites(t *testing.T) {
	prefs := NewPreferences(testDB(t))
	require.NoError(t, prefs.Set("k", "one"))
	require.NoError(t, prefs.Set("k", "two"))

	v, ok, err := prefs.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "two", v)

	require.NoError(t, prefs.Delete("k"))
	_, ok, err = prefs.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPreferences_ClearingTourCompletedRemovesRow(t *testing.T) {
	prefs := NewPreferences(testDB(t))
	require.NoError(t, prefs.SetTourCompleted(true))
	require.NoError(t, prefs.SetTourCompleted(false))

	_, ok, err := prefs.Get(PrefTourCompleted)
	require.NoError(t, err)
	assert.False(t, ok)
	done, err := prefs.TourCompleted()
	require.NoError(t, err)
	assert.False(t, done)
}

func TestPreferences_MalformedBool(t *testing.T) {
	prefs := NewPreferences(testDB(t))
	require.NoError(t, prefs.Set(PrefTourCompleted, "maybe"))
	done, err := prefs.TourCompleted()
	require.NoError(t, err)
	assert.False(t, done)
}

// --- Transcripts ---

func TestTranscripts_AppendAndHistory(t *testing.T) {
	tr := NewTranscripts(testDB(t))
	sess, err := tr.Create("a1", "al1")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)

	require.NoError(t, tr.Append(domain.ChatMessage{SessionID: sess.ID, AgentID: "a1", Role: domain.RoleUser, Content: "tell me a joke"}))
	require.NoError(t, tr.Append(domain.ChatMessage{SessionID: sess.ID, AgentID: "a1", Role: domain.RoleBot, Content: "why did the gopher cross the road"}))

	got, err := tr.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "al1", got.AliasID)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, domain.RoleUser, got.Messages[0].Role)
	assert.Equal(t, domain.RoleBot, got.Messages[1].Role)
	assert.False(t, got.Messages[0].Timestamp.IsZero())
}

func TestTranscripts_AppendUnknownSession(t *testing.T) {
	tr := NewTranscripts(testDB(t))
	err := tr.Append(domain.ChatMessage{SessionID: "nope", Role: domain.RoleUser, Content: "hi"})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestTranscripts_GetNotFound(t *testing.T) {
	tr := NewTranscripts(testDB(t))
	_, err := tr.Get("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestTranscripts_ListForAgent(t *testing.T) {
	tr := NewTranscripts(testDB(t))
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	tr.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	first, err := tr.Create("a1", "al")
	require.NoError(t, err)
	second, err := tr.Create("a1", "al")
	require.NoError(t, err)
	_, err = tr.Create("a2", "al")
	require.NoError(t, err)

	// Activity on the first session moves it to the front.
	require.NoError(t, tr.Append(domain.ChatMessage{SessionID: first.ID, AgentID: "a1", Role: domain.RoleUser, Content: "hello"}))

	list, err := tr.ListForAgent("a1", 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
}

func TestTranscripts_Search(t *testing.T) {
	tr := NewTranscripts(testDB(t))
	s1, _ := tr.Create("a1", "al")
	s2, _ := tr.Create("a2", "al")
	require.NoError(t, tr.Append(domain.ChatMessage{SessionID: s1.ID, AgentID: "a1", Role: domain.RoleBot, Content: "refunds take five business days"}))
	require.NoError(t, tr.Append(domain.ChatMessage{SessionID: s2.ID, AgentID: "a2", Role: domain.RoleBot, Content: "refunds are not available"}))
	require.NoError(t, tr.Append(domain.ChatMessage{SessionID: s1.ID, AgentID: "a1", Role: domain.RoleUser, Content: "what about shipping"}))

	hits, err := tr.Search("", "refunds", 0)
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	hits, err = tr.Search("a1", "refunds", 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, s1.ID, hits[0].SessionID)

	hits, err = tr.Search("a1", "   ", 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestTranscripts_SearchPunctuation(t *testing.T) {
	tr := NewTranscripts(testDB(t))
	s1, _ := tr.Create("a1", "al")
	require.NoError(t, tr.Append(domain.ChatMessage{SessionID: s1.ID, AgentID: "a1", Role: domain.RoleUser, Content: "what's the e-mail refund policy?"}))

	for _, q := range []string{"what's", "e-mail", "refund?", "policy", `"refund"`, "e-mail (policy"} {
		t.Run(q, func(t *testing.T) {
			hits, err := tr.Search("", q, 0)
			require.NoError(t, err)
			assert.Len(t, hits, 1)
		})
	}

	hits, err := tr.Search("", "refund shipping", 0)
	require.NoError(t, err)
	assert.Empty(t, hits, "every term must match")
}

func TestFTSQuery(t *testing.T) {
	assert.Equal(t, `"what's" "e-mail"`, ftsQuery("  what's   e-mail "))
	assert.Equal(t, `"say" """hi"""`, ftsQuery(`say "hi"`))
	assert.Equal(t, "", ftsQuery("   "))
}

func TestTranscripts_DeleteForAgent(t *testing.T) {
	tr := NewTranscripts(testDB(t))
	s1, _ := tr.Create("a1", "al")
	require.NoError(t, tr.Append(domain.ChatMessage{SessionID: s1.ID, AgentID: "a1", Role: domain.RoleUser, Content: "pineapple"}))

	require.NoError(t, tr.DeleteForAgent("a1"))

	_, err := tr.Get(s1.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	hits, err := tr.Search("", "pineapple", 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
