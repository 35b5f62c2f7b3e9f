package tx

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/roach88/vcq/internal/codec"
	"github.com/roach88/vcq/internal/graph"
	"github.com/roach88/vcq/internal/query"
	"github.com/roach88/vcq/internal/schema"
	"github.com/roach88/vcq/internal/store"
)

// metaKey is the row holding id allocation counters. Vertex rows have
// 8-byte keys, so the two never collide.
var metaKey = []byte("~meta")

const (
	vertexCounterColumn   = "vertex"
	relationCounterColumn = "relation"
)

// Options configures a Graph.
type Options struct {
	// Representatives is the number of rows a partitioned vertex spans.
	Representatives int
	// LocalPartitions restricts which representatives are read unless a
	// query lifts the restriction. Empty means all.
	LocalPartitions []int
	// Workers bounds concurrent reads in Prefetch.
	Workers int

	Limits               query.Limits
	IgnoreUndefinedTypes bool
}

// DefaultOptions returns the built-in options.
func DefaultOptions() Options {
	return Options{
		Representatives:      4,
		Workers:              8,
		Limits:               query.DefaultLimits(),
		IgnoreUndefinedTypes: true,
	}
}

// Validate checks option ranges.
func (o Options) Validate() error {
	if o.Representatives < 1 || o.Representatives > graph.MaxRepresentatives {
		return fmt.Errorf("representatives must be in [1,%d], got %d", graph.MaxRepresentatives, o.Representatives)
	}
	for _, p := range o.LocalPartitions {
		if p < 0 || p >= o.Representatives {
			return fmt.Errorf("local partition %d out of range [0,%d)", p, o.Representatives)
		}
	}
	if o.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", o.Workers)
	}
	return nil
}

// Graph is shared by all transactions over one store.
type Graph struct {
	store  store.KeyColumnValueStore
	schema schema.Inspector
	codec  *codec.Codec
	opts   Options

	mu           sync.Mutex
	nextVertex   int64
	nextRelation int64
}

// Open binds s and sch, resuming id allocation where the last commit left
// off.
func Open(ctx context.Context, s store.KeyColumnValueStore, sch schema.Inspector, opts Options) (*Graph, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid graph options: %w", err)
	}
	if _, ok := sch.RelationType(schema.ExistsKey); !ok {
		return nil, fmt.Errorf("schema has no %s key", schema.ExistsKey)
	}
	g := &Graph{
		store:        s,
		schema:       sch,
		codec:        codec.New(sch),
		opts:         opts,
		nextVertex:   1,
		nextRelation: 1,
	}
	entries, err := s.GetSlice(ctx, store.KeySliceQuery{Key: metaKey, SliceQuery: store.SliceQuery{Limit: store.NoLimit}})
	if err != nil {
		return nil, fmt.Errorf("read id counters: %w", err)
	}
	for _, e := range entries {
		if len(e.Value) != 8 {
			return nil, fmt.Errorf("id counter %q has %d bytes", e.Column, len(e.Value))
		}
		n := int64(binary.BigEndian.Uint64(e.Value))
		switch string(e.Column) {
		case vertexCounterColumn:
			g.nextVertex = n
		case relationCounterColumn:
			g.nextRelation = n
		}
	}
	return g, nil
}

func (g *Graph) Store() store.KeyColumnValueStore { return g.store }
func (g *Graph) Schema() schema.Inspector         { return g.schema }
func (g *Graph) Codec() *codec.Codec              { return g.codec }
func (g *Graph) Options() Options                 { return g.opts }

// NewTx starts a transaction.
func (g *Graph) NewTx() *Tx {
	return newTx(g)
}

func (g *Graph) allocVertex() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := g.nextVertex
	g.nextVertex++
	return n
}

func (g *Graph) allocRelation() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := g.nextRelation
	g.nextRelation++
	return n
}

func (g *Graph) counterMutation() store.Mutation {
	g.mu.Lock()
	defer g.mu.Unlock()
	return store.Mutation{
		Key: metaKey,
		Additions: []store.Entry{
			{Column: []byte(relationCounterColumn), Value: binary.BigEndian.AppendUint64(nil, uint64(g.nextRelation))},
			{Column: []byte(vertexCounterColumn), Value: binary.BigEndian.AppendUint64(nil, uint64(g.nextVertex))},
		},
	}
}
