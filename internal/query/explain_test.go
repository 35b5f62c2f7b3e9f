package query

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vcq/internal/graph"
)

func TestExplain(t *testing.T) {
	reg := newSchema(t)

	q := mustCompile(t, reg, NewBuilder(reg).Labels("knows").Direction(graph.Out).Limit(10), graph.CategoryEdge)
	assert.Equal(t, "query direction=OUT limit=10 orders=[] simple=true\n"+
		"  condition type=knows\n"+
		"  slice 0 knows OUT {} fitted=true sorted=true limit=10\n", Explain(q))

	q = mustCompile(t, reg, NewBuilder(reg).
		Labels("visits").
		Direction(graph.Out).
		Interval("age", 20, 30).
		OrderBy("age", graph.Asc), graph.CategoryEdge)
	assert.Equal(t, "query direction=OUT limit=none orders=[age ASC] simple=true\n"+
		"  condition (age GREATER_THAN_EQUAL 20 AND age LESS_THAN 30 AND type=visits)\n"+
		"  slice 0 visits OUT {age=[20,30)} fitted=true sorted=true limit=none\n", Explain(q))
}

func TestFingerprintFollowsPlan(t *testing.T) {
	reg := newSchema(t)
	a := mustCompile(t, reg, NewBuilder(reg).Labels("knows").Direction(graph.Out), graph.CategoryEdge)
	b := mustCompile(t, reg, NewBuilder(reg).Labels("knows").Direction(graph.Out), graph.CategoryEdge)
	c := mustCompile(t, reg, NewBuilder(reg).Labels("knows").Direction(graph.In), graph.CategoryEdge)

	assert.Len(t, Fingerprint(a), 64)
	assert.Equal(t, Fingerprint(a), Fingerprint(b))
	assert.NotEqual(t, Fingerprint(a), Fingerprint(c))
}

// Random constraint sets over the sort keys of speaks and visits.
func TestCompileRandomConstraints(t *testing.T) {
	reg := newSchema(t)
	r := rand.New(rand.NewPCG(7, 11))
	preds := []graph.Predicate{graph.Equal, graph.NotEqual, graph.LessThan, graph.LessEqual, graph.GreaterThan, graph.GreaterEqual}
	dirs := []graph.Direction{graph.Out, graph.In, graph.Both}

	for i := range 500 {
		label := "speaks"
		if r.IntN(2) == 0 {
			label = "visits"
		}
		b := NewBuilder(reg).Labels(label).Direction(dirs[r.IntN(len(dirs))])
		notEqual := false
		for range r.IntN(4) {
			key := []string{"lang", "weight", "age"}[r.IntN(3)]
			pred := preds[r.IntN(len(preds))]
			if key == "lang" {
				b.HasPredicate(key, pred, []string{"de", "en", "fr"}[r.IntN(3)])
			} else {
				b.HasPredicate(key, pred, r.IntN(10))
			}
			notEqual = notEqual || pred == graph.NotEqual
		}
		limit := 1 + r.IntN(50)
		b.Limit(limit)
		if r.IntN(3) == 0 {
			b.OrderBy("weight", graph.Asc)
		}

		spec := mustBuild(t, b)
		q, err := Compile(spec, graph.CategoryEdge, testEnv(reg))
		require.NoError(t, err, "case %d", i)

		if q.IsEmpty() {
			assert.Empty(t, q.Subqueries, "case %d", i)
			continue
		}
		require.NotEmpty(t, q.Subqueries, "case %d", i)
		assert.Equal(t, len(q.Subqueries) == 1 && q.Subqueries[0].Fitted && q.Subqueries[0].Sorted, q.IsSimple(), "case %d", i)
		for _, sub := range q.Subqueries {
			assert.GreaterOrEqual(t, sub.Slice.Limit, limit, "case %d", i)
			if notEqual {
				assert.False(t, sub.Fitted, "case %d: not-equal is never encoded", i)
			}
			if spec.Orders.IsEmpty() {
				assert.True(t, sub.Sorted, "case %d", i)
			}
		}
	}
}
