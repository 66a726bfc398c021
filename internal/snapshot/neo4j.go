package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Neo4jConfig holds Neo4j connection configuration.
type Neo4jConfig struct {
	URI      string
	Username string
	Password string
	Database string
}

// Neo4jRepository implements Repository on Neo4j. Captured nodes become
// (:GraphNode) vertices and captured edges become [:EDGE] relationships,
// so snapshots can be explored with Cypher.
type Neo4jRepository struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewNeo4j connects to Neo4j and ensures the indexes exist.
func NewNeo4j(ctx context.Context, cfg Neo4jConfig) (*Neo4jRepository, error) {
	driver, err := neo4j.NewDriverWithContext(
		cfg.URI,
		neo4j.BasicAuth(cfg.Username, cfg.Password, ""),
	)
	if err != nil {
		return nil, fmt.Errorf("creating neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("connecting to neo4j: %w", err)
	}

	r := &Neo4jRepository{driver: driver, database: cfg.Database}
	if err := r.ensureIndexes(ctx); err != nil {
		driver.Close(ctx)
		return nil, err
	}
	return r, nil
}

// Close closes the Neo4j connection.
func (r *Neo4jRepository) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

func (r *Neo4jRepository) session(ctx context.Context) neo4j.SessionWithContext {
	return r.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: r.database})
}

func (r *Neo4jRepository) ensureIndexes(ctx context.Context) error {
	session := r.session(ctx)
	defer session.Close(ctx)

	for _, q := range []string{
		`CREATE INDEX snapshot_id IF NOT EXISTS FOR (s:Snapshot) ON (s.id)`,
		`CREATE INDEX graph_node_handle IF NOT EXISTS FOR (n:GraphNode) ON (n.snapshot, n.handle)`,
	} {
		res, err := session.Run(ctx, q, nil)
		if err != nil {
			return fmt.Errorf("creating index: %w", err)
		}
		if _, err := res.Consume(ctx); err != nil {
			return fmt.Errorf("creating index: %w", err)
		}
	}
	return nil
}

// Save writes snap in one transaction.
func (r *Neo4jRepository) Save(ctx context.Context, snap *Snapshot) error {
	session := r.session(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, `
			CREATE (s:Snapshot {id: $id, name: $name, created: $created})
		`, map[string]any{
			"id":      snap.ID,
			"name":    snap.Name,
			"created": snap.Created.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return nil, fmt.Errorf("creating snapshot: %w", err)
		}

		_, err = tx.Run(ctx, `
			UNWIND $nodes AS n
			CREATE (:GraphNode {snapshot: $id, seq: n.seq, handle: n.handle, arch: n.arch, fields: n.fields})
		`, map[string]any{"id": snap.ID, "nodes": nodeParams(snap)})
		if err != nil {
			return nil, fmt.Errorf("creating nodes: %w", err)
		}

		_, err = tx.Run(ctx, `
			UNWIND $edges AS e
			MATCH (a:GraphNode {snapshot: $id, handle: e.source})
			MATCH (b:GraphNode {snapshot: $id, handle: e.target})
			CREATE (a)-[:EDGE {snapshot: $id, seq: e.seq, handle: e.handle, arch: e.arch, directed: e.directed, fields: e.fields}]->(b)
		`, map[string]any{"id": snap.ID, "edges": edgeParams(snap)})
		if err != nil {
			return nil, fmt.Errorf("creating edges: %w", err)
		}
		return nil, nil
	})
	return err
}

// Load reads the snapshot with the given id.
func (r *Neo4jRepository) Load(ctx context.Context, id string) (*Snapshot, error) {
	session := r.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `MATCH (s:Snapshot {id: $id}) RETURN s.name AS name, s.created AS created`, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		if !res.Next(ctx) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		rec := res.Record()
		snap := &Snapshot{ID: id, Name: recordString(rec, "name")}
		if t, err := time.Parse(time.RFC3339Nano, recordString(rec, "created")); err == nil {
			snap.Created = t
		}

		res, err = tx.Run(ctx, `
			MATCH (n:GraphNode {snapshot: $id})
			RETURN n.handle AS handle, n.arch AS arch, n.fields AS fields
			ORDER BY n.seq
		`, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		for res.Next(ctx) {
			rec := res.Record()
			snap.Nodes = append(snap.Nodes, Node{
				Handle: recordString(rec, "handle"),
				Arch:   recordString(rec, "arch"),
				Fields: []byte(recordString(rec, "fields")),
			})
		}
		if err := res.Err(); err != nil {
			return nil, err
		}

		res, err = tx.Run(ctx, `
			MATCH (a:GraphNode)-[e:EDGE {snapshot: $id}]->(b:GraphNode)
			RETURN e.handle AS handle, e.arch AS arch, a.handle AS source, b.handle AS target,
			       e.directed AS directed, e.fields AS fields
			ORDER BY e.seq
		`, map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		for res.Next(ctx) {
			rec := res.Record()
			directed, _ := rec.Get("directed")
			d, _ := directed.(bool)
			snap.Edges = append(snap.Edges, Edge{
				Handle:   recordString(rec, "handle"),
				Arch:     recordString(rec, "arch"),
				Source:   recordString(rec, "source"),
				Target:   recordString(rec, "target"),
				Directed: d,
				Fields:   []byte(recordString(rec, "fields")),
			})
		}
		return snap, res.Err()
	})
	if err != nil {
		return nil, err
	}
	return result.(*Snapshot), nil
}

// List returns every stored snapshot, newest first.
func (r *Neo4jRepository) List(ctx context.Context) ([]Info, error) {
	session := r.session(ctx)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
			MATCH (s:Snapshot)
			OPTIONAL MATCH (n:GraphNode {snapshot: s.id})
			WITH s, count(n) AS nodes
			OPTIONAL MATCH ()-[e:EDGE {snapshot: s.id}]->()
			RETURN s.id AS id, s.name AS name, s.created AS created, nodes, count(e) AS edges
			ORDER BY created DESC, id
		`, nil)
		if err != nil {
			return nil, err
		}
		var infos []Info
		for res.Next(ctx) {
			rec := res.Record()
			info := Info{
				ID:    recordString(rec, "id"),
				Name:  recordString(rec, "name"),
				Nodes: int(recordInt(rec, "nodes")),
				Edges: int(recordInt(rec, "edges")),
			}
			if t, err := time.Parse(time.RFC3339Nano, recordString(rec, "created")); err == nil {
				info.Created = t
			}
			infos = append(infos, info)
		}
		return infos, res.Err()
	})
	if err != nil {
		return nil, err
	}
	return result.([]Info), nil
}

// nodeParams converts captured nodes into Cypher parameters. Neo4j
// properties cannot hold nested maps, so fields stay JSON strings.
func nodeParams(snap *Snapshot) []map[string]any {
	out := make([]map[string]any, 0, len(snap.Nodes))
	for i, n := range snap.Nodes {
		out = append(out, map[string]any{
			"seq":    int64(i),
			"handle": n.Handle,
			"arch":   n.Arch,
			"fields": string(n.Fields),
		})
	}
	return out
}

func edgeParams(snap *Snapshot) []map[string]any {
	out := make([]map[string]any, 0, len(snap.Edges))
	for i, e := range snap.Edges {
		out = append(out, map[string]any{
			"seq":      int64(i),
			"handle":   e.Handle,
			"arch":     e.Arch,
			"source":   e.Source,
			"target":   e.Target,
			"directed": e.Directed,
			"fields":   string(e.Fields),
		})
	}
	return out
}

func recordString(rec *neo4j.Record, key string) string {
	v, _ := rec.Get(key)
	s, _ := v.(string)
	return s
}

func recordInt(rec *neo4j.Record, key string) int64 {
	v, _ := rec.Get(key)
	n, _ := v.(int64)
	return n
}
