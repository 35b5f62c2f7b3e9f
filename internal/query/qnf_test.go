package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vcq/internal/condition"
	"github.com/roach88/vcq/internal/graph"
	"github.com/roach88/vcq/internal/interval"
	"github.com/roach88/vcq/internal/ir"
)

func TestNormalize(t *testing.T) {
	reg := newSchema(t)
	tests := []struct {
		name        string
		constraints []Constraint
		want        string
		empty       bool
	}{
		{
			name:        "in becomes or of equalities",
			constraints: []Constraint{{"lang", graph.Within, ir.IRArray{ir.IRString("en"), ir.IRString("fr")}}},
			want:        `((lang EQUAL "en" OR lang EQUAL "fr"))`,
		},
		{
			name:        "single in becomes equality",
			constraints: []Constraint{{"lang", graph.Within, ir.IRArray{ir.IRString("en")}}},
			want:        `(lang EQUAL "en")`,
		},
		{
			name:        "empty in matches nothing",
			constraints: []Constraint{{"lang", graph.Within, ir.IRArray{}}},
			empty:       true,
		},
		{
			name:        "not in becomes not equals",
			constraints: []Constraint{{"age", graph.Without, ir.IRArray{ir.IRInt(1), ir.IRInt(2)}}},
			want:        `(age NOT_EQUAL 1 AND age NOT_EQUAL 2)`,
		},
		{
			name:        "empty not in is dropped",
			constraints: []Constraint{{"age", graph.Without, ir.IRArray{}}},
			want:        `AND()`,
		},
		{
			name: "duplicates collapse",
			constraints: []Constraint{
				{"age", graph.GreaterThan, ir.IRInt(3)},
				{"age", graph.GreaterThan, ir.IRInt(3)},
				{"age", graph.NotEqual, ir.IRNull{}},
				{"age", graph.NotEqual, nil},
			},
			want: `(age GREATER_THAN 3 AND age NOT_EQUAL null)`,
		},
		{
			name:        "strings are normalized",
			constraints: []Constraint{{"name", graph.Equal, ir.IRString("e\u0301")}},
			want:        "(name EQUAL \"\u00e9\")",
		},
		{
			name: "undefined key tautologies dropped",
			constraints: []Constraint{
				{"missing", graph.Equal, ir.IRNull{}},
				{"missing", graph.NotEqual, ir.IRInt(1)},
			},
			want: `AND()`,
		},
		{
			name:        "undefined key with value",
			constraints: []Constraint{{"missing", graph.Equal, ir.IRInt(1)}},
			empty:       true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			and, empty, err := normalize(tt.constraints, reg, true)
			require.NoError(t, err)
			assert.Equal(t, tt.empty, empty)
			if !tt.empty {
				assert.Equal(t, tt.want, condition.Format(and))
				assert.True(t, condition.IsQNF(and))
			}
		})
	}
}

func TestCompileConstraints(t *testing.T) {
	reg := newSchema(t)
	age := typeOf(t, reg, "age")
	lang := typeOf(t, reg, "lang")

	and, _, err := normalize([]Constraint{
		{"age", graph.GreaterEqual, ir.IRInt(10)},
		{"age", graph.LessEqual, ir.IRInt(20)},
		{"age", graph.GreaterThan, ir.IRInt(12)},
		{"lang", graph.Within, ir.IRArray{ir.IRString("en"), ir.IRString("fr")}},
	}, reg, true)
	require.NoError(t, err)

	intervals, fitted := compileConstraints(and, nil)
	assert.True(t, fitted)
	require.Len(t, intervals, 2)
	assert.Equal(t, "(12,20]", intervals[age].String())
	assert.Equal(t, `{"en","fr"}`, intervals[lang].String())
}

func TestCompileConstraintsUnfitted(t *testing.T) {
	reg := newSchema(t)
	tests := []struct {
		name        string
		constraints []Constraint
		adjacent    graph.Vertex
		keys        int
	}{
		{"not equal", []Constraint{{"age", graph.NotEqual, ir.IRInt(3)}}, nil, 0},
		{"has no key", []Constraint{{"age", graph.Equal, ir.IRNull{}}}, nil, 0},
		{"adjacent without id", nil, graph.VertexRef(0), 0},
		{"mixed", []Constraint{{"age", graph.NotEqual, ir.IRInt(3)}, {"age", graph.LessThan, ir.IRInt(9)}}, nil, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			and, _, err := normalize(tt.constraints, reg, true)
			require.NoError(t, err)
			intervals, fitted := compileConstraints(and, tt.adjacent)
			assert.False(t, fitted)
			assert.Len(t, intervals, tt.keys)
		})
	}
}

func TestExtractOrConditionRejectsMixedKeys(t *testing.T) {
	reg := newSchema(t)
	or := condition.Or{Children: []condition.Condition{
		condition.Predicate{Key: typeOf(t, reg, "age"), Op: graph.Equal, Value: ir.IRInt(1)},
		condition.Predicate{Key: typeOf(t, reg, "weight"), Op: graph.Equal, Value: ir.IRInt(1)},
	}}
	_, _, ok := extractOrCondition(or)
	assert.False(t, ok)

	or = condition.Or{Children: []condition.Condition{
		condition.Predicate{Key: typeOf(t, reg, "age"), Op: graph.Equal, Value: ir.IRInt(2)},
		condition.Predicate{Key: typeOf(t, reg, "age"), Op: graph.Equal, Value: ir.IRInt(1)},
	}}
	key, iv, ok := extractOrCondition(or)
	require.True(t, ok)
	assert.Equal(t, "age", key.Name)
	assert.Equal(t, interval.Points(ir.IRInt(1), ir.IRInt(2)).String(), iv.String())
}
