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

CREATE TABLE IF NOT EXISTS messages (
	account_id   TEXT NOT NULL,
	folder       TEXT NOT NULL,
	uid          INTEGER NOT NULL,
	message_id   TEXT NOT NULL DEFAULT '',
	subject      TEXT NOT NULL DEFAULT '',
	from_name    TEXT NOT NULL DEFAULT '',
	from_address TEXT NOT NULL DEFAULT '',
	to_addrs     TEXT NOT NULL DEFAULT '[]',
	date         DATETIME NOT NULL,
	seen         INTEGER NOT NULL DEFAULT 0 CHECK(seen IN (0, 1)),
	flagged      INTEGER NOT NULL DEFAULT 0 CHECK(flagged IN (0, 1)),
	answered     INTEGER NOT NULL DEFAULT 0 CHECK(answered IN (0, 1)),
	fetched_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (account_id, folder, uid)
);

CREATE TABLE IF NOT EXISTS attachments (
	account_id    TEXT NOT NULL,
	folder        TEXT NOT NULL,
	uid           INTEGER NOT NULL,
	attachment_id TEXT NOT NULL,
	name          TEXT NOT NULL DEFAULT '',
	content_id    TEXT NOT NULL DEFAULT '',
	disposition   TEXT NOT NULL DEFAULT '',
	size          INTEGER NOT NULL DEFAULT 0,
	saved_path    TEXT NOT NULL DEFAULT '',
	saved_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (account_id, folder, uid, attachment_id)
);

CREATE INDEX IF NOT EXISTS idx_messages_date ON messages(date);
CREATE INDEX IF NOT EXISTS idx_messages_seen ON messages(seen);
CREATE INDEX IF NOT EXISTS idx_messages_flagged ON messages(flagged);
CREATE INDEX IF NOT EXISTS idx_attachments_uid ON attachments(account_id, folder, uid);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_messages_folder_date
	ON messages(account_id, folder, date);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
