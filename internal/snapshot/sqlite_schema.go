package snapshot

// SQLite schema DDL constants

const schemaSnapshots = `
CREATE TABLE IF NOT EXISTS snapshots (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    created_at TEXT NOT NULL
)`

const schemaNodes = `
CREATE TABLE IF NOT EXISTS snapshot_nodes (
    snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
    seq INTEGER NOT NULL,
    handle TEXT NOT NULL,
    arch TEXT NOT NULL,
    fields TEXT NOT NULL,
    PRIMARY KEY (snapshot_id, handle)
)`

const schemaEdges = `
CREATE TABLE IF NOT EXISTS snapshot_edges (
    snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
    seq INTEGER NOT NULL,
    handle TEXT NOT NULL,
    arch TEXT NOT NULL,
    source TEXT NOT NULL,
    target TEXT NOT NULL,
    directed INTEGER NOT NULL,
    fields TEXT NOT NULL,
    PRIMARY KEY (snapshot_id, handle)
)`

const indexSnapshotsCreated = `CREATE INDEX IF NOT EXISTS idx_snapshots_created ON snapshots(created_at)`

func allSchemaStatements() []string {
	return []string{
		schemaSnapshots,
		schemaNodes,
		schemaEdges,
		indexSnapshotsCreated,
	}
}

func allPragmas() []string {
	return []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
}
