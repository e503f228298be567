package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	id             TEXT PRIMARY KEY,
	testing_type   TEXT NOT NULL DEFAULT '',
	started_at     DATETIME NOT NULL,
	finished_at    DATETIME NOT NULL,
	finding_count  INTEGER NOT NULL DEFAULT 0,
	new_count      INTEGER NOT NULL DEFAULT 0,
	existing_count INTEGER NOT NULL DEFAULT 0,
	error_count    INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS tickets (
	run_id       TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	ticket_id    TEXT NOT NULL,
	disposition  TEXT NOT NULL CHECK(disposition IN ('new', 'existing')),
	url          TEXT NOT NULL DEFAULT '',
	priority     TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT '',
	created      TEXT NOT NULL DEFAULT '',
	open_date    TEXT NOT NULL DEFAULT '',
	summary      TEXT NOT NULL DEFAULT '',
	assignee     TEXT NOT NULL DEFAULT '',
	severity     TEXT NOT NULL DEFAULT '',
	tracker_url  TEXT NOT NULL DEFAULT '',
	project      TEXT NOT NULL DEFAULT '',
	epic         TEXT NOT NULL DEFAULT '',
	fields       TEXT NOT NULL DEFAULT '{}',
	extra_fields TEXT NOT NULL DEFAULT '{}',
	labels       TEXT NOT NULL DEFAULT '[]',
	PRIMARY KEY (run_id, ticket_id, disposition)
);

CREATE TABLE IF NOT EXISTS errors (
	run_id  TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	tool    TEXT NOT NULL DEFAULT '',
	message TEXT NOT NULL,
	details TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_tickets_run_id ON tickets(run_id);
CREATE INDEX IF NOT EXISTS idx_errors_run_id ON errors(run_id);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
