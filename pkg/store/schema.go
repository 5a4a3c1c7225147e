package store

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema creates the record table. Records are stored as DB view JSON;
// seq keeps insertion order across replacements.
const Schema = `
CREATE TABLE IF NOT EXISTS records (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    type_name TEXT NOT NULL,
    key_hash TEXT NOT NULL,
    key_text TEXT NOT NULL,
    body TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    UNIQUE (type_name, key_hash)
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_records_type ON records(type_name, seq);
`

// InsertSchemaVersion records the schema version.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

const (
	upsertRecord = `
INSERT INTO records (type_name, key_hash, key_text, body, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(type_name, key_hash) DO UPDATE SET
    body = excluded.body,
    updated_at = excluded.updated_at;
`
	selectRecord  = `SELECT body FROM records WHERE type_name = ? AND key_hash = ?;`
	streamRecords = `SELECT body FROM records WHERE type_name = ? ORDER BY seq;`
	countRecords  = `SELECT COUNT(*) FROM records WHERE type_name = ?;`
	deleteRecord  = `DELETE FROM records WHERE type_name = ? AND key_hash = ?;`
)
