package store

type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is applied in order; never edit a released entry.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create preferences",
		SQL: `
			CREATE TABLE preferences (
				key         TEXT PRIMARY KEY,
				value       TEXT NOT NULL,
				updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
			);
		`,
	},
	{
		Version: 2,
		Name:    "create chat sessions and messages",
		SQL: `
			CREATE TABLE chat_sessions (
				id          TEXT PRIMARY KEY,
				agent_id    TEXT NOT NULL,
				alias_id    TEXT NOT NULL DEFAULT '',
				created_at  TEXT NOT NULL DEFAULT (datetime('now')),
				updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE INDEX idx_chat_sessions_agent ON chat_sessions (agent_id, updated_at);

			CREATE TABLE chat_messages (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				session_id  TEXT NOT NULL REFERENCES chat_sessions(id) ON DELETE CASCADE,
				agent_id    TEXT NOT NULL,
				role        TEXT NOT NULL,
				content     TEXT NOT NULL,
				timestamp   TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE INDEX idx_chat_messages_session ON chat_messages (session_id, id);
		`,
	},
	{
		Version: 3,
		Name:    "index chat messages with FTS5",
		SQL: `
			CREATE VIRTUAL TABLE chat_messages_fts USING fts5(
				content,
				content='chat_messages',
				content_rowid='id'
			);

			CREATE TRIGGER chat_messages_ai AFTER INSERT ON chat_messages BEGIN
				INSERT INTO chat_messages_fts(rowid, content) VALUES (new.id, new.content);
			END;

			CREATE TRIGGER chat_messages_ad AFTER DELETE ON chat_messages BEGIN
				INSERT INTO chat_messages_fts(chat_messages_fts, rowid, content)
				VALUES ('delete', old.id, old.content);
			END;
		`,
	},
}
