package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIRValueSealed(t *testing.T) {
	var _ IRValue = IRNull{}
	var _ IRValue = IRString("test")
	var _ IRValue = IRInt(42)
	var _ IRValue = IRBool(true)
	var _ IRValue = IRArray{IRString("a"), IRInt(1)}
	var _ IRValue = IRObject{"key": IRString("value")}
}

func TestIRObjectSortedKeysRFC8785Order(t *testing.T) {
	obj := IRObject{"a": IRInt(1), "A": IRInt(2), "aa": IRInt(3), "Aa": IRInt(5), "AA": IRInt(6)}
	assert.Equal(t, []string{"A", "AA", "Aa", "a", "aa"}, obj.SortedKeys())
}

func TestKindAccepts(t *testing.T) {
	tests := []struct {
		kind Kind
		val  IRValue
		want bool
	}{
		{KindInt, IRInt(3), true},
		{KindInt, IRString("3"), false},
		{KindString, IRString("x"), true},
		{KindAny, IRBool(true), true},
		{KindAny, IRNull{}, false},
		{KindBool, nil, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.Accepts(tt.val))
		})
	}
}

func TestKindComparable(t *testing.T) {
	assert.True(t, KindInt.Comparable())
	assert.True(t, KindString.Comparable())
	assert.False(t, KindArray.Comparable())
	assert.False(t, KindAny.Comparable())
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("int")
	require.NoError(t, err)
	assert.Equal(t, KindInt, k)

	k, err = ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, KindAny, k)

	_, err = ParseKind("float")
	assert.Error(t, err)
}

func TestFromNative(t *testing.T) {
	v, err := FromNative(map[string]any{"n": 3, "s": "x", "f": 2.0, "b": true, "z": nil})
	require.NoError(t, err)
	assert.Equal(t, IRObject{"n": IRInt(3), "s": IRString("x"), "f": IRInt(2), "b": IRBool(true), "z": IRNull{}}, v)

	_, err = FromNative(2.5)
	assert.Error(t, err)
}

func TestUnmarshalIRValue(t *testing.T) {
	v, err := UnmarshalIRValue([]byte(`{"a":[1,"x",null],"b":false}`))
	require.NoError(t, err)
	assert.Equal(t, IRObject{"a": IRArray{IRInt(1), IRString("x"), IRNull{}}, "b": IRBool(false)}, v)

	_, err = UnmarshalIRValue([]byte(`1.5`))
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, `"en"`, Format(IRString("en")))
	assert.Equal(t, "30", Format(IRInt(30)))
	assert.Equal(t, "null", Format(nil))
	assert.Equal(t, `[1,2]`, Format(IRArray{IRInt(1), IRInt(2)}))
}
