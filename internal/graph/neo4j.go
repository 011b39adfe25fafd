package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type cypher struct {
	query  string
	params map[string]any
}

// cypherRunner is the part of the driver the store needs.
type cypherRunner interface {
	// write runs every statement in one transaction.
	write(ctx context.Context, stmts []cypher) error
	read(ctx context.Context, stmt cypher) ([]map[string]any, error)
	close(ctx context.Context) error
}

// Neo4jStore saves trees as (:Person) nodes joined by typed relationships.
type Neo4jStore struct {
	runner    cypherRunner
	retryable func(error) bool
}

// NewNeo4jStore connects to uri and checks the connection.
func NewNeo4jStore(ctx context.Context, uri, user, password, database string) (*Neo4jStore, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("connect to neo4j at %s: %w", uri, err)
	}
	return &Neo4jStore{
		runner:    &driverRunner{driver: driver, database: database},
		retryable: neo4j.IsRetryable,
	}, nil
}

const (
	mergePerson = `MERGE (n:Person {id: $id}) SET n.name = $name, n.birth = $birth`
	// The type is checked by ValidRelType before it is formatted in.
	mergeRelationship = `MATCH (a:Person {id: $start_id}), (b:Person {id: $end_id}) MERGE (a)-[rel:%s]->(b)`

	matchPersons       = `MATCH (p:Person) RETURN p.id AS id, p.name AS name, p.birth AS birth ORDER BY p.id`
	matchRelationships = `MATCH (a:Person)-[r]->(b:Person) RETURN a.id AS start_id, b.id AS end_id, type(r) AS type`
)

func (s *Neo4jStore) SaveTree(ctx context.Context, t Tree) error {
	if err := t.Validate(); err != nil {
		return err
	}
	t = t.Normalize()

	stmts := make([]cypher, 0, len(t.Persons)+len(t.Relationships))
	for _, p := range t.Persons {
		var birth any
		if p.Birth != nil {
			birth = *p.Birth
		}
		stmts = append(stmts, cypher{mergePerson, map[string]any{"id": p.ID, "name": p.Name, "birth": birth}})
	}
	for _, r := range t.Relationships {
		stmts = append(stmts, cypher{
			fmt.Sprintf(mergeRelationship, r.Type),
			map[string]any{"start_id": r.StartID, "end_id": r.EndID},
		})
	}
	if err := s.runner.write(ctx, stmts); err != nil {
		return s.wrap("save tree", err)
	}
	return nil
}

func (s *Neo4jStore) LoadTree(ctx context.Context) (Tree, error) {
	t := Tree{Persons: []Person{}, Relationships: []Relationship{}}

	rows, err := s.runner.read(ctx, cypher{query: matchPersons})
	if err != nil {
		return Tree{}, s.wrap("load persons", err)
	}
	for _, row := range rows {
		p := Person{ID: stringField(row, "id"), Name: stringField(row, "name")}
		if b, ok := row["birth"].(string); ok {
			p.Birth = &b
		}
		t.Persons = append(t.Persons, p)
	}

	rows, err = s.runner.read(ctx, cypher{query: matchRelationships})
	if err != nil {
		return Tree{}, s.wrap("load relationships", err)
	}
	for _, row := range rows {
		t.Relationships = append(t.Relationships, Relationship{
			StartID: stringField(row, "start_id"),
			EndID:   stringField(row, "end_id"),
			Type:    stringField(row, "type"),
		})
	}
	return t, nil
}

func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.runner.close(ctx)
}

func (s *Neo4jStore) wrap(op string, err error) error {
	if s.retryable != nil && s.retryable(err) {
		return &RetryableError{Backend: "neo4j", Err: fmt.Errorf("%s: %w", op, err)}
	}
	return fmt.Errorf("neo4j %s: %w", op, err)
}

func stringField(row map[string]any, key string) string {
	s, _ := row[key].(string)
	return s
}

type driverRunner struct {
	driver   neo4j.DriverWithContext
	database string
}

func (d *driverRunner) write(ctx context.Context, stmts []cypher) error {
	session := d.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite, DatabaseName: d.database})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, st := range stmts {
			result, err := tx.Run(ctx, st.query, st.params)
			if err != nil {
				return nil, err
			}
			if _, err := result.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

func (d *driverRunner) read(ctx context.Context, stmt cypher) ([]map[string]any, error) {
	session := d.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead, DatabaseName: d.database})
	defer session.Close(ctx)

	result, err := session.Run(ctx, stmt.query, stmt.params)
	if err != nil {
		return nil, err
	}
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]map[string]any, len(records))
	for i, rec := range records {
		rows[i] = rec.AsMap()
	}
	return rows, nil
}

func (d *driverRunner) close(ctx context.Context) error {
	return d.driver.Close(ctx)
}
