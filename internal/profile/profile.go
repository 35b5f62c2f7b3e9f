// Package profile records how a query was planned and executed.
//
// A Profiler is a tree: the engine opens a nested group per phase
// (optimization, each subquery, each backend read) and annotates it.
// NoOp discards everything; Recorder keeps the tree for inspection and
// plan output; Metrics exports timings to Prometheus.
package profile

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Annotation keys.
const (
	ConditionAnnotation   = "condition"
	OrdersAnnotation      = "orders"
	LimitAnnotation       = "limit"
	NumVerticesAnnotation = "numVertices"
	FittedAnnotation      = "isFitted"
	OrderedAnnotation     = "isOrdered"
	QueryAnnotation       = "query"
	MultiQueryAnnotation  = "multi"
	PartitionsAnnotation  = "partitions"
)

// Group names.
const (
	GroupOptimization = "optimization"
	GroupBackendQuery = "backend-query"
	GroupSubquery     = "subquery"
	GroupPrefetch     = "prefetch"
)

// Profiler receives planning and execution events.
type Profiler interface {
	// AddNested opens a child group.
	AddNested(group string) Profiler
	SetAnnotation(key string, value any)
	StartTimer()
	StopTimer()
}

// NoOp is a Profiler that records nothing.
var NoOp Profiler = noop{}

type noop struct{}

func (noop) AddNested(string) Profiler  { return noop{} }
func (noop) SetAnnotation(string, any) {}
func (noop) StartTimer()               {}
func (noop) StopTimer()                {}

// Recorder is a Profiler that keeps the full tree in memory.
// Safe for concurrent use; prefetch workers annotate sibling groups.
type Recorder struct {
	mu          sync.Mutex
	group       string
	annotations map[string]any
	children    []*Recorder
	started     time.Time
	elapsed     time.Duration
	running     bool
}

// NewRecorder returns an empty recorder rooted at group.
func NewRecorder(group string) *Recorder {
	return &Recorder{group: group, annotations: make(map[string]any)}
}

func (r *Recorder) AddNested(group string) Profiler {
	child := NewRecorder(group)
	r.mu.Lock()
	r.children = append(r.children, child)
	r.mu.Unlock()
	return child
}

func (r *Recorder) SetAnnotation(key string, value any) {
	r.mu.Lock()
	r.annotations[key] = value
	r.mu.Unlock()
}

func (r *Recorder) StartTimer() {
	r.mu.Lock()
	r.started = time.Now()
	r.running = true
	r.mu.Unlock()
}

func (r *Recorder) StopTimer() {
	r.mu.Lock()
	if r.running {
		r.elapsed += time.Since(r.started)
		r.running = false
	}
	r.mu.Unlock()
}

// Group returns the group name.
func (r *Recorder) Group() string { return r.group }

// Annotation returns the value recorded under key.
func (r *Recorder) Annotation(key string) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.annotations[key]
	return v, ok
}

// Children returns the nested groups in the order they were opened.
func (r *Recorder) Children() []*Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Recorder(nil), r.children...)
}

// Find returns the nested groups named group, depth first.
func (r *Recorder) Find(group string) []*Recorder {
	var out []*Recorder
	for _, c := range r.Children() {
		if c.group == group {
			out = append(out, c)
		}
		out = append(out, c.Find(group)...)
	}
	return out
}

// Elapsed returns the accumulated timer duration.
func (r *Recorder) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.elapsed
}

// String renders the tree without timings, one group per line with its
// annotations sorted by key.
func (r *Recorder) String() string {
	var b strings.Builder
	r.render(&b, 0)
	return b.String()
}

func (r *Recorder) render(b *strings.Builder, depth int) {
	r.mu.Lock()
	keys := make([]string, 0, len(r.annotations))
	for k := range r.annotations {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(b, "%s%s", strings.Repeat("  ", depth), r.group)
	for _, k := range keys {
		fmt.Fprintf(b, " %s=%v", k, r.annotations[k])
	}
	b.WriteByte('\n')
	children := append([]*Recorder(nil), r.children...)
	r.mu.Unlock()

	for _, c := range children {
		c.render(b, depth+1)
	}
}

// Tee forwards every event to each of ps.
func Tee(ps ...Profiler) Profiler {
	return tee(ps)
}

type tee []Profiler

func (t tee) AddNested(group string) Profiler {
	out := make(tee, len(t))
	for i, p := range t {
		out[i] = p.AddNested(group)
	}
	return out
}

func (t tee) SetAnnotation(key string, value any) {
	for _, p := range t {
		p.SetAnnotation(key, value)
	}
}

func (t tee) StartTimer() {
	for _, p := range t {
		p.StartTimer()
	}
}

func (t tee) StopTimer() {
	for _, p := range t {
		p.StopTimer()
	}
}
