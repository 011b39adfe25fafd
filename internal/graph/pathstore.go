package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/dgallion1/gedgraph/internal/pathstore"
)

// PathstoreStore keeps the graph in the pathstore service. Each person is
// a node under <prefix>/persons; each relationship is a node under
// <prefix>/relationships plus a link between the two person nodes.
type PathstoreStore struct {
	client    *pathstore.Client
	prefix    string
	listLimit int
}

// DefaultListLimit caps how many persons or relationships LoadTree reads
// from one prefix scan.
const DefaultListLimit = 10000

func NewPathstoreStore(client *pathstore.Client, prefix string) *PathstoreStore {
	if prefix == "" {
		prefix = "gedgraph"
	}
	return &PathstoreStore{client: client, prefix: strings.Trim(prefix, "/"), listLimit: DefaultListLimit}
}

const pathstoreSource = "gedgraph"

func (s *PathstoreStore) personKey(id string) string {
	return s.prefix + "/persons/" + url.PathEscape(id)
}

func (s *PathstoreStore) relationshipKey(r Relationship) string {
	return s.prefix + "/relationships/" + url.PathEscape(r.StartID+"--"+r.Type+"--"+r.EndID)
}

func (s *PathstoreStore) SaveTree(ctx context.Context, t Tree) error {
	if err := t.Validate(); err != nil {
		return err
	}
	t = t.Normalize()

	known := make(map[string]bool, len(t.Persons))
	for _, p := range t.Persons {
		err := s.client.PutNode(ctx, s.personKey(p.ID), pathstore.NodeRequest{
			Value:      p,
			MemoryType: "semantic",
			Source:     pathstoreSource,
		})
		if err != nil {
			return s.wrap("save person "+p.ID, err)
		}
		known[p.ID] = true
	}

	for _, r := range t.Relationships {
		ok, err := s.exists(ctx, known, r.StartID, r.EndID)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		err = s.client.PutNode(ctx, s.relationshipKey(r), pathstore.NodeRequest{
			Value:      r,
			MemoryType: "semantic",
			Source:     pathstoreSource,
		})
		if err != nil {
			return s.wrap("save relationship", err)
		}
		err = s.client.PutLink(ctx, pathstore.LinkRequest{
			From:    s.personKey(r.StartID),
			To:      s.personKey(r.EndID),
			Weight:  1,
			Summary: r.Type,
		})
		if err != nil {
			return s.wrap("link "+r.StartID+" to "+r.EndID, err)
		}
	}
	return nil
}

// exists reports whether both person nodes are present, consulting the
// service for ids not saved in this call.
func (s *PathstoreStore) exists(ctx context.Context, known map[string]bool, ids ...string) (bool, error) {
	for _, id := range ids {
		if known[id] {
			continue
		}
		node, err := s.client.GetNode(ctx, s.personKey(id))
		if err != nil {
			return false, s.wrap("look up person "+id, err)
		}
		if node == nil {
			return false, nil
		}
		known[id] = true
	}
	return true, nil
}

func (s *PathstoreStore) LoadTree(ctx context.Context) (Tree, error) {
	t := Tree{Persons: []Person{}, Relationships: []Relationship{}}

	nodes, err := s.list(ctx, "persons")
	if err != nil {
		return Tree{}, err
	}
	for _, n := range nodes {
		var p Person
		if err := decodeValue(n.Value, &p); err != nil {
			return Tree{}, fmt.Errorf("pathstore person %s: %w", n.Key, err)
		}
		t.Persons = append(t.Persons, p)
	}

	nodes, err = s.list(ctx, "relationships")
	if err != nil {
		return Tree{}, err
	}
	for _, n := range nodes {
		var r Relationship
		if err := decodeValue(n.Value, &r); err != nil {
			return Tree{}, fmt.Errorf("pathstore relationship %s: %w", n.Key, err)
		}
		t.Relationships = append(t.Relationships, r)
	}
	return t, nil
}

// list scans <prefix>/<kind>. It asks for one node more than the limit so
// a tree that does not fit is an error instead of a silently short result.
func (s *PathstoreStore) list(ctx context.Context, kind string) ([]pathstore.ListChildrenResponse, error) {
	nodes, err := s.client.ListChildren(ctx, s.prefix+"/"+kind, s.listLimit+1)
	if err != nil {
		return nil, s.wrap("list "+kind, err)
	}
	if len(nodes) > s.listLimit {
		return nil, fmt.Errorf("pathstore list %s: more than %d nodes under %s/%s", kind, s.listLimit, s.prefix, kind)
	}
	return nodes, nil
}

func (s *PathstoreStore) Close(context.Context) error {
	s.client.Close()
	return nil
}

func (s *PathstoreStore) wrap(op string, err error) error {
	var se *pathstore.StatusError
	var ue *url.Error
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
	case errors.Is(err, pathstore.ErrUnavailable), errors.As(err, &se) && se.Temporary(), errors.As(err, &ue):
		return &RetryableError{Backend: "pathstore", Err: fmt.Errorf("%s: %w", op, err)}
	}
	return fmt.Errorf("pathstore %s: %w", op, err)
}

// decodeValue converts a generic JSON value into dst.
func decodeValue(v any, dst any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}

// BreakerState reports the pathstore client's circuit breaker state.
func (s *PathstoreStore) BreakerState() string {
	return s.client.BreakerState()
}
