package journal

// Schema is the DDL for the session journal.
const Schema = `
CREATE TABLE IF NOT EXISTS activity (
    id          TEXT PRIMARY KEY,
    feature     TEXT NOT NULL,
    outcome     TEXT NOT NULL,
    elapsed_ns  INTEGER NOT NULL DEFAULT 0,
    at          TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_activity_feature ON activity(feature);
CREATE INDEX IF NOT EXISTS idx_activity_at ON activity(at DESC);
`
