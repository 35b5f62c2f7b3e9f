package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vcq/internal/graph"
	"github.com/roach88/vcq/internal/ir"
)

const socialSchema = `
propertyKeys: {
	age: {dataType: "int"}
	name: {dataType: "string"}
	lang: {dataType: "string"}
	weight: {dataType: "int"}
	time: {dataType: "int"}
	nick: {dataType: "string", cardinality: "set"}
}
edgeLabels: {
	knows: {multiplicity: "multi", sortKey: ["weight"]}
	follows: {unidirected: true}
	spouse: {multiplicity: "one2one"}
}
relationIndexes: {
	knowsByTime: {type: "knows", direction: "out", sortKey: ["time"], sortOrder: "desc"}
	knowsByLang: {type: "knows", sortKey: ["lang", "weight"], status: "registered"}
}
`

func TestLoadCUE(t *testing.T) {
	reg, err := LoadCUE("social.cue", socialSchema)
	require.NoError(t, err)

	age, ok := reg.RelationType("age")
	require.True(t, ok)
	assert.Equal(t, ir.KindInt, age.DataType)
	assert.Equal(t, graph.Many2One, age.Multiplicity)

	nick, _ := reg.RelationType("nick")
	assert.Equal(t, graph.Simple, nick.Multiplicity)

	knows, ok := reg.RelationType("knows")
	require.True(t, ok)
	assert.True(t, knows.IsEdgeLabel())
	idx := knows.RelationIndexes()
	require.Len(t, idx, 3)
	assert.Equal(t, "knows#knowsByTime", idx[1].Name)
	assert.Equal(t, graph.Desc, idx[1].SortOrder)
	assert.Equal(t, graph.Out, idx[1].Storage)
	assert.Equal(t, Registered, idx[2].Status)
	assert.Len(t, idx[2].SortKey, 2)

	follows, _ := reg.RelationType("follows")
	assert.True(t, follows.IsUnidirected())

	// Declaration order fixes ids.
	name, _ := reg.RelationType("name")
	assert.Equal(t, age.ID+1, name.ID)
}

func TestLoadCUERejectsUnknownFields(t *testing.T) {
	_, err := LoadCUE("bad.cue", `propertyKeys: age: {datatype: "int"}`)
	require.Error(t, err)
	var le *LoadError
	assert.ErrorAs(t, err, &le)
}

func TestLoadCUERejectsBadReference(t *testing.T) {
	_, err := LoadCUE("bad.cue", `edgeLabels: knows: {sortKey: ["missing"]}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestLoadCUERequiresIndexSortKey(t *testing.T) {
	_, err := LoadCUE("bad.cue", `
propertyKeys: time: {dataType: "int"}
edgeLabels: knows: {}
relationIndexes: byTime: {type: "knows"}
`)
	assert.Error(t, err)
}

func TestLoadCUEFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.cue")
	require.NoError(t, os.WriteFile(path, []byte(socialSchema), 0o644))

	reg, err := LoadCUEFile(path)
	require.NoError(t, err)
	_, ok := reg.RelationType("spouse")
	assert.True(t, ok)

	_, err = LoadCUEFile(filepath.Join(t.TempDir(), "missing.cue"))
	assert.Error(t, err)
}
