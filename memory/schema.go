package memory

// schema is the SQL schema for the conversation store.
const schema = `
CREATE TABLE IF NOT EXISTS threads (
    id TEXT PRIMARY KEY,
    resource_id TEXT NOT NULL DEFAULT '',
    title TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
    id TEXT PRIMARY KEY,
    thread_id TEXT NOT NULL,
    sequence INTEGER NOT NULL,
    role TEXT NOT NULL,
    content TEXT NOT NULL,
    created_at DATETIME NOT NULL,
    FOREIGN KEY (thread_id) REFERENCES threads(id) ON DELETE CASCADE,
    UNIQUE (thread_id, sequence)
);

CREATE INDEX IF NOT EXISTS idx_threads_resource ON threads(resource_id, updated_at);
CREATE INDEX IF NOT EXISTS idx_messages_thread ON messages(thread_id, sequence);
`

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate() error {
	_, err := s.conn.Exec(schema)
	return err
}
