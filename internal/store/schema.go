package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS history (
    identity     TEXT NOT NULL,
    position     INTEGER NOT NULL,
    upload_id    INTEGER NOT NULL,
    filename     TEXT NOT NULL,
    summary_json TEXT NOT NULL,
    created_at   TEXT,
    fetched_at   TEXT NOT NULL,
    PRIMARY KEY (identity, position)
);

CREATE TABLE IF NOT EXISTS details (
    identity     TEXT NOT NULL,
    upload_id    INTEGER NOT NULL,
    filename     TEXT NOT NULL,
    summary_json TEXT NOT NULL,
    rows_json    TEXT NOT NULL,
    fetched_at   TEXT NOT NULL,
    PRIMARY KEY (identity, upload_id)
);

CREATE INDEX IF NOT EXISTS idx_history_identity ON history(identity);
`
