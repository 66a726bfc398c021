package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// timeLayout sorts lexically in UTC.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLite opens (and if needed creates) the database at dbPath.
func NewSQLite(ctx context.Context, dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	// One connection keeps pragmas and in-memory databases consistent.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to sqlite: %w", err)
	}
	for _, pragma := range allPragmas() {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma: %w", err)
		}
	}
	for _, stmt := range allSchemaStatements() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}
	return &SQLiteRepository{db: db}, nil
}

// Close closes the SQLite connection.
func (r *SQLiteRepository) Close(ctx context.Context) error {
	return r.db.Close()
}

// Save writes snap in one transaction.
func (r *SQLiteRepository) Save(ctx context.Context, snap *Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, name, created_at) VALUES (?, ?, ?)`,
		snap.ID, snap.Name, snap.Created.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting snapshot: %w", err)
	}

	for i, n := range snap.Nodes {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO snapshot_nodes (snapshot_id, seq, handle, arch, fields) VALUES (?, ?, ?, ?, ?)`,
			snap.ID, i, n.Handle, n.Arch, string(n.Fields),
		)
		if err != nil {
			return fmt.Errorf("inserting node %s: %w", n.Handle, err)
		}
	}
	for i, e := range snap.Edges {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO snapshot_edges (snapshot_id, seq, handle, arch, source, target, directed, fields) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			snap.ID, i, e.Handle, e.Arch, e.Source, e.Target, boolToInt(e.Directed), string(e.Fields),
		)
		if err != nil {
			return fmt.Errorf("inserting edge %s: %w", e.Handle, err)
		}
	}
	return tx.Commit()
}

// Load reads the snapshot with the given id.
func (r *SQLiteRepository) Load(ctx context.Context, id string) (*Snapshot, error) {
	snap := &Snapshot{ID: id}
	var created string
	err := r.db.QueryRowContext(ctx, `SELECT name, created_at FROM snapshots WHERE id = ?`, id).Scan(&snap.Name, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	if snap.Created, err = time.Parse(timeLayout, created); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	nodeRows, err := r.db.QueryContext(ctx,
		`SELECT handle, arch, fields FROM snapshot_nodes WHERE snapshot_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("reading nodes: %w", err)
	}
	defer nodeRows.Close()
	for nodeRows.Next() {
		var n Node
		var fields string
		if err := nodeRows.Scan(&n.Handle, &n.Arch, &fields); err != nil {
			return nil, err
		}
		n.Fields = []byte(fields)
		snap.Nodes = append(snap.Nodes, n)
	}
	if err := nodeRows.Err(); err != nil {
		return nil, err
	}

	edgeRows, err := r.db.QueryContext(ctx,
		`SELECT handle, arch, source, target, directed, fields FROM snapshot_edges WHERE snapshot_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("reading edges: %w", err)
	}
	defer edgeRows.Close()
	for edgeRows.Next() {
		var e Edge
		var directed int
		var fields string
		if err := edgeRows.Scan(&e.Handle, &e.Arch, &e.Source, &e.Target, &directed, &fields); err != nil {
			return nil, err
		}
		e.Directed = directed == 1
		e.Fields = []byte(fields)
		snap.Edges = append(snap.Edges, e)
	}
	return snap, edgeRows.Err()
}

// List returns every stored snapshot, newest first.
func (r *SQLiteRepository) List(ctx context.Context) ([]Info, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.name, s.created_at,
		       (SELECT COUNT(*) FROM snapshot_nodes n WHERE n.snapshot_id = s.id),
		       (SELECT COUNT(*) FROM snapshot_edges e WHERE e.snapshot_id = s.id)
		FROM snapshots s
		ORDER BY s.created_at DESC, s.id
	`)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var infos []Info
	for rows.Next() {
		var info Info
		var created string
		if err := rows.Scan(&info.ID, &info.Name, &created, &info.Nodes, &info.Edges); err != nil {
			return nil, err
		}
		if t, err := time.Parse(timeLayout, created); err == nil {
			info.Created = t
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
