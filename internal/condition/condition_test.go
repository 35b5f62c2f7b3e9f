package condition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vcq/internal/graph"
	"github.com/roach88/vcq/internal/ir"
	"github.com/roach88/vcq/internal/schema"
)

type fixture struct {
	weight, lang, age *schema.RelationType
	knows             *schema.RelationType
	edge, prop        *graph.Relation
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	r := schema.NewRegistry()
	weight, err := r.DefinePropertyKey("weight", ir.KindInt, graph.Many2One)
	require.NoError(t, err)
	lang, err := r.DefinePropertyKey("lang", ir.KindString, graph.Many2One)
	require.NoError(t, err)
	age, err := r.DefinePropertyKey("age", ir.KindInt, graph.Many2One)
	require.NoError(t, err)
	knows, err := r.DefineEdgeLabel("knows", schema.EdgeLabelOptions{})
	require.NoError(t, err)

	return fixture{
		weight: weight, lang: lang, age: age, knows: knows,
		edge: &graph.Relation{
			ID: 7, TypeID: knows.ID, TypeName: "knows", Category: graph.CategoryEdge,
			Out: 100, In: 200,
			Properties: map[int64]ir.IRValue{weight.ID: ir.IRInt(6), lang.ID: ir.IRString("en")},
		},
		prop: &graph.Relation{
			ID: 8, TypeID: age.ID, TypeName: "age", Category: graph.CategoryProperty,
			Out: 100, Value: ir.IRInt(31),
		},
	}
}

func TestEvaluate(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		cond Condition
		rel  *graph.Relation
		want bool
	}{
		{"predicate on edge property", Predicate{Key: f.weight, Op: graph.GreaterThan, Value: ir.IRInt(5)}, f.edge, true},
		{"predicate fails", Predicate{Key: f.weight, Op: graph.GreaterThan, Value: ir.IRInt(6)}, f.edge, false},
		{"predicate on property value", Predicate{Key: f.age, Op: graph.GreaterThan, Value: ir.IRInt(30)}, f.prop, true},
		{"hasNot absent key", Predicate{Key: f.age, Op: graph.Equal, Value: ir.IRNull{}}, f.edge, true},
		{"relation id", Predicate{Key: schema.RelationIDType, Op: graph.Equal, Value: ir.IRInt(7)}, f.edge, true},
		{"direction out", Direction{Vertex: 100, Dir: graph.Out}, f.edge, true},
		{"direction in", Direction{Vertex: 100, Dir: graph.In}, f.edge, false},
		{"direction both", Direction{Vertex: 200, Dir: graph.Both}, f.edge, true},
		{"incidence", Incidence{Vertex: 100, Other: graph.VertexRef(200)}, f.edge, true},
		{"incidence other", Incidence{Vertex: 100, Other: graph.VertexRef(300)}, f.edge, false},
		{"incidence without id", Incidence{Vertex: 100, Other: graph.VertexRef(0)}, f.edge, false},
		{"incidence on property", Incidence{Vertex: 100, Other: graph.VertexRef(200)}, f.prop, false},
		{"type", RelationType{Type: f.knows}, f.edge, true},
		{"type mismatch", RelationType{Type: f.knows}, f.prop, false},
		{"visibility normal", Visibility{System: false}, f.edge, true},
		{"category", Category{Category: graph.CategoryProperty}, f.prop, true},
		{"category relation", Category{Category: graph.CategoryRelation}, f.edge, true},
		{"fixed", Fixed{Value: false}, f.edge, false},
		{"empty and", And{}, f.edge, true},
		{"empty or", Or{}, f.edge, false},
		{"not", Not{Child: Fixed{Value: false}}, f.edge, true},
		{
			"or of equals",
			Or{Children: []Condition{
				Predicate{Key: f.lang, Op: graph.Equal, Value: ir.IRString("fr")},
				Predicate{Key: f.lang, Op: graph.Equal, Value: ir.IRString("en")},
			}},
			f.edge, true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.cond, tt.rel))
		})
	}
}

func TestEvaluateTypeMatchesIndexBase(t *testing.T) {
	r := schema.NewRegistry()
	_, err := r.DefinePropertyKey("time", ir.KindInt, graph.Many2One)
	require.NoError(t, err)
	knows, err := r.DefineEdgeLabel("knows", schema.EdgeLabelOptions{})
	require.NoError(t, err)
	idx, err := r.DefineRelationIndex("knows", "byTime", schema.IndexOptions{SortKey: []string{"time"}})
	require.NoError(t, err)

	edge := &graph.Relation{TypeID: knows.ID, Category: graph.CategoryEdge}
	assert.True(t, Evaluate(RelationType{Type: idx}, edge))
}

func TestAndWithDoesNotMutate(t *testing.T) {
	a := And{Children: []Condition{Fixed{Value: true}}}
	b := a.With(Fixed{Value: false})
	assert.Equal(t, 1, a.Size())
	assert.Equal(t, 2, b.Size())
	assert.True(t, b.HasChildren())
}

func TestSimplifyAnd(t *testing.T) {
	single := And{Children: []Condition{Fixed{Value: true}}}
	assert.Equal(t, Fixed{Value: true}, SimplifyAnd(single))

	double := And{Children: []Condition{Fixed{Value: true}, Fixed{Value: false}}}
	assert.Equal(t, double, SimplifyAnd(double))
}

func TestIsQNF(t *testing.T) {
	f := newFixture(t)
	p := Predicate{Key: f.weight, Op: graph.Equal, Value: ir.IRInt(1)}

	assert.True(t, IsQNF(And{Children: []Condition{p, Or{Children: []Condition{p, Not{Child: p}}}}}))
	assert.False(t, IsQNF(p))
	assert.False(t, IsQNF(And{Children: []Condition{Or{Children: []Condition{And{}}}}}))
	assert.False(t, IsQNF(And{Children: []Condition{Not{Child: Not{Child: p}}}}))
}

func TestFormat(t *testing.T) {
	f := newFixture(t)
	c := And{Children: []Condition{
		Predicate{Key: f.lang, Op: graph.Equal, Value: ir.IRString("en")},
		Direction{Vertex: 100, Dir: graph.Out},
		RelationType{Type: f.knows},
	}}
	assert.Equal(t, `(lang EQUAL "en" AND dir(100,OUT) AND type=knows)`, Format(c))
	assert.Equal(t, "adj(1,?)", Format(Incidence{Vertex: 1}))
}
