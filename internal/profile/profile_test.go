package profile

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoOpIsInert(t *testing.T) {
	p := NoOp.AddNested(GroupSubquery)
	p.SetAnnotation(FittedAnnotation, true)
	p.StartTimer()
	p.StopTimer()
	assert.Equal(t, NoOp, p)
}

func TestRecorderTree(t *testing.T) {
	root := NewRecorder("query")
	root.SetAnnotation(LimitAnnotation, 10)

	opt := root.AddNested(GroupOptimization)
	opt.StartTimer()
	opt.StopTimer()

	sub := root.AddNested(GroupSubquery)
	sub.SetAnnotation(FittedAnnotation, true)
	sub.SetAnnotation(OrderedAnnotation, false)
	sub.AddNested(GroupBackendQuery).SetAnnotation(QueryAnnotation, "[10,11)")

	v, ok := root.Annotation(LimitAnnotation)
	require.True(t, ok)
	assert.Equal(t, 10, v)

	require.Len(t, root.Children(), 2)
	assert.Equal(t, GroupOptimization, root.Children()[0].Group())
	assert.Len(t, root.Find(GroupBackendQuery), 1)

	want := "query limit=10\n" +
		"  optimization\n" +
		"  subquery isFitted=true isOrdered=false\n" +
		"    backend-query query=[10,11)\n"
	assert.Equal(t, want, root.String())
}

func TestRecorderStopWithoutStart(t *testing.T) {
	r := NewRecorder("q")
	r.StopTimer()
	assert.Zero(t, r.Elapsed())
}

func TestRecorderConcurrentChildren(t *testing.T) {
	root := NewRecorder("multi")
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := root.AddNested(GroupPrefetch)
			c.SetAnnotation(NumVerticesAnnotation, i)
		}(i)
	}
	wg.Wait()
	assert.Len(t, root.Find(GroupPrefetch), 16)
}

func TestMetricsProfiler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	root := m.Profiler("query")
	sub := root.AddNested(GroupSubquery)
	sub.SetAnnotation(FittedAnnotation, true)
	sub.StartTimer()
	sub.StopTimer()
	root.AddNested(GroupSubquery).SetAnnotation(FittedAnnotation, false)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.groups.WithLabelValues("query")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.groups.WithLabelValues(GroupSubquery)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.fitted.WithLabelValues("true")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.fitted.WithLabelValues("false")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration, "vcq_query_phase_duration_seconds"))
}

func TestTeeForwardsToAll(t *testing.T) {
	a, b := NewRecorder("a"), NewRecorder("b")
	p := Tee(a, b)
	p.AddNested(GroupSubquery).SetAnnotation(FittedAnnotation, true)

	for _, r := range []*Recorder{a, b} {
		subs := r.Find(GroupSubquery)
		require.Len(t, subs, 1)
		v, _ := subs[0].Annotation(FittedAnnotation)
		assert.Equal(t, true, v)
	}
}
