package store

// schemaCreate creates whichever of the two tables is missing, with every
// current column. Tables that already exist are left untouched; columns
// missing from an existing history table are added by Migrate's probing.
const schemaCreate = `
CREATE TABLE IF NOT EXISTS history (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  command TEXT NOT NULL,
  cwd TEXT NOT NULL,
  exit_code INTEGER NOT NULL DEFAULT 0,
  duration_ms INTEGER NOT NULL DEFAULT 0,
  session_id TEXT NOT NULL,
  hostname TEXT NOT NULL,
  event_time INTEGER NOT NULL,
  command_hash TEXT,
  rank REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS command_stat (
  command_hash TEXT PRIMARY KEY,
  command TEXT NOT NULL,
  frequency INTEGER NOT NULL DEFAULT 1,
  last_used INTEGER NOT NULL
);
`

// Index definitions, keyed by name, each guarded by "create if the backing
// column exists" in Migrate.
var indexDefs = []struct {
	name   string
	column string // column that must exist before this index can be created
	ddl    string
}{
	{
		name:   "idx_history_cmd_prefix",
		column: "command",
		ddl:    `CREATE INDEX IF NOT EXISTS idx_history_cmd_prefix ON history(command COLLATE NOCASE)`,
	},
	{
		name:   "idx_history_event_time",
		column: "event_time",
		ddl:    `CREATE INDEX IF NOT EXISTS idx_history_event_time ON history(event_time DESC)`,
	},
	{
		name:   "idx_history_cwd",
		column: "cwd",
		ddl:    `CREATE INDEX IF NOT EXISTS idx_history_cwd ON history(cwd, event_time DESC)`,
	},
	{
		name:   "idx_history_hash",
		column: "command_hash",
		ddl:    `CREATE INDEX IF NOT EXISTS idx_history_hash ON history(command_hash)`,
	},
	{
		name:   "idx_history_rank",
		column: "rank",
		ddl:    `CREATE INDEX IF NOT EXISTS idx_history_rank ON history(rank DESC, event_time DESC)`,
	},
}
