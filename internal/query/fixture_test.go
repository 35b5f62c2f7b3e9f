package query

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/vcq/internal/codec"
	"github.com/roach88/vcq/internal/graph"
	"github.com/roach88/vcq/internal/ir"
	"github.com/roach88/vcq/internal/schema"
)

// newSchema defines:
//
//	keys:   age, weight, time (int), lang, name (string), note (any), tags (string set)
//	knows   multi, no sort key
//	visits  multi, sort key [age]
//	speaks  multi, sort key [lang, weight]
//	follows multi, indexes byTime [time], byTime2 [time], byWeightDesc [weight] desc
//	parent  many2one
//	likes   multi, unidirected
func newSchema(t *testing.T) *schema.Registry {
	t.Helper()
	reg := schema.NewRegistry()
	for _, k := range []struct {
		name string
		kind ir.Kind
		card graph.Multiplicity
	}{
		{"age", ir.KindInt, graph.Many2One},
		{"weight", ir.KindInt, graph.Many2One},
		{"time", ir.KindInt, graph.Many2One},
		{"lang", ir.KindString, graph.Many2One},
		{"name", ir.KindString, graph.Many2One},
		{"note", ir.KindAny, graph.Many2One},
		{"tags", ir.KindString, graph.Simple},
	} {
		_, err := reg.DefinePropertyKey(k.name, k.kind, k.card)
		require.NoError(t, err)
	}
	labels := []struct {
		name string
		opts schema.EdgeLabelOptions
	}{
		{"knows", schema.EdgeLabelOptions{Multiplicity: graph.Multi}},
		{"visits", schema.EdgeLabelOptions{Multiplicity: graph.Multi, SortKey: []string{"age"}}},
		{"speaks", schema.EdgeLabelOptions{Multiplicity: graph.Multi, SortKey: []string{"lang", "weight"}}},
		{"follows", schema.EdgeLabelOptions{Multiplicity: graph.Multi}},
		{"parent", schema.EdgeLabelOptions{Multiplicity: graph.Many2One}},
		{"likes", schema.EdgeLabelOptions{Multiplicity: graph.Multi, Unidirected: true}},
	}
	for _, l := range labels {
		_, err := reg.DefineEdgeLabel(l.name, l.opts)
		require.NoError(t, err)
	}
	for _, idx := range []struct {
		name string
		opts schema.IndexOptions
	}{
		{"byTime", schema.IndexOptions{Direction: graph.Both, SortKey: []string{"time"}}},
		{"byTime2", schema.IndexOptions{Direction: graph.Both, SortKey: []string{"time"}}},
		{"byWeightDesc", schema.IndexOptions{Direction: graph.Out, SortKey: []string{"weight"}, SortOrder: graph.Desc}},
	} {
		_, err := reg.DefineRelationIndex("follows", idx.name, idx.opts)
		require.NoError(t, err)
	}
	return reg
}

func testEnv(reg *schema.Registry) Env {
	return Env{
		Schema:               reg,
		Codec:                codec.New(reg),
		Limits:               DefaultLimits(),
		IgnoreUndefinedTypes: true,
	}
}

func mustBuild(t *testing.T, b *Builder) Spec {
	t.Helper()
	spec, err := b.Build()
	require.NoError(t, err)
	return spec
}

func mustCompile(t *testing.T, reg *schema.Registry, b *Builder, cat graph.Category) *BaseQuery {
	t.Helper()
	q, err := Compile(mustBuild(t, b), cat, testEnv(reg))
	require.NoError(t, err)
	return q
}

func typeOf(t *testing.T, reg *schema.Registry, name string) *schema.RelationType {
	t.Helper()
	rt, ok := reg.RelationType(name)
	require.True(t, ok, name)
	return rt
}
