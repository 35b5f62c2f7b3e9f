package engine

import (
	"github.com/roach88/vcq/internal/graph"
	"github.com/roach88/vcq/internal/profile"
	"github.com/roach88/vcq/internal/query"
)

// surface forwards the query builder methods and returns the adapter S so
// that calls chain into its terminal operations.
type surface[S any] struct {
	b    *query.Builder
	self S
}

func (s *surface[S]) Has(key string, value any) S {
	s.b.Has(key, value)
	return s.self
}

func (s *surface[S]) HasNot(key string, value any) S {
	s.b.HasNot(key, value)
	return s.self
}

func (s *surface[S]) HasKey(key string) S {
	s.b.HasKey(key)
	return s.self
}

func (s *surface[S]) HasNoKey(key string) S {
	s.b.HasNoKey(key)
	return s.self
}

func (s *surface[S]) HasPredicate(key string, pred graph.Predicate, value any) S {
	s.b.HasPredicate(key, pred, value)
	return s.self
}

func (s *surface[S]) Interval(key string, start, end any) S {
	s.b.Interval(key, start, end)
	return s.self
}

func (s *surface[S]) Types(names ...string) S {
	s.b.Types(names...)
	return s.self
}

func (s *surface[S]) Labels(names ...string) S {
	s.b.Labels(names...)
	return s.self
}

func (s *surface[S]) Keys(names ...string) S {
	s.b.Keys(names...)
	return s.self
}

func (s *surface[S]) Direction(d graph.Direction) S {
	s.b.Direction(d)
	return s.self
}

func (s *surface[S]) Limit(n int) S {
	s.b.Limit(n)
	return s.self
}

func (s *surface[S]) OrderBy(key string, order graph.Order) S {
	s.b.OrderBy(key, order)
	return s.self
}

func (s *surface[S]) Adjacent(v graph.Vertex) S {
	s.b.Adjacent(v)
	return s.self
}

func (s *surface[S]) System() S {
	s.b.System()
	return s.self
}

func (s *surface[S]) QueryOnlyLoaded() S {
	s.b.QueryOnlyLoaded()
	return s.self
}

func (s *surface[S]) QueryOnlyGivenVertex() S {
	s.b.QueryOnlyGivenVertex()
	return s.self
}

func (s *surface[S]) NoPartitionRestriction() S {
	s.b.NoPartitionRestriction()
	return s.self
}

func (s *surface[S]) Profiler(p profile.Profiler) S {
	s.b.Profiler(p)
	return s.self
}

// Spec returns the accumulated query or the first builder error.
func (s *surface[S]) Spec() (query.Spec, error) {
	return s.b.Build()
}
