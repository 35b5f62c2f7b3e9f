package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func sampleResult() *Result {
	r := NewResult()
	r.Outputs = append(r.Outputs,
		&QueryOutput{
			Name:       "friends",
			Rows:       []string{"knows->bob", "knows->carol"},
			Count:      2,
			Plan:       "query direction=OUT limit=none orders=[] simple=true\n",
			Simple:     true,
			Subqueries: 1,
		},
		&QueryOutput{
			Name:      "broken",
			Rows:      []string{},
			ErrorCode: "INVALID_ARGUMENT",
			Err:       "INVALID_ARGUMENT: property key name in edge query",
		},
	)
	return r
}

func TestEvaluateAssertions(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		failure   string
	}{
		{"rows in order", Assertion{Type: AssertRows, Query: "friends", Rows: []string{"knows->bob", "knows->carol"}}, ""},
		{"rows out of order", Assertion{Type: AssertRows, Query: "friends", Rows: []string{"knows->carol", "knows->bob"}}, "Expected: [knows->carol, knows->bob]"},
		{"rows unordered", Assertion{Type: AssertRows, Query: "friends", Unordered: true, Rows: []string{"knows->carol", "knows->bob"}}, ""},
		{"rows missing", Assertion{Type: AssertRows, Query: "friends", Rows: []string{"knows->bob"}}, "Actual: [knows->bob, knows->carol]"},
		{"count", Assertion{Type: AssertCount, Query: "friends", Count: ptr(2)}, ""},
		{"count mismatch", Assertion{Type: AssertCount, Query: "friends", Count: ptr(3)}, "Expected: 3 results"},
		{"plan", Assertion{Type: AssertPlan, Query: "friends", Simple: ptr(true), Subqueries: ptr(1)}, ""},
		{"plan mismatch", Assertion{Type: AssertPlan, Query: "friends", Subqueries: ptr(2)}, "subqueries=1"},
		{"error", Assertion{Type: AssertError, Query: "broken", Code: "INVALID_ARGUMENT"}, ""},
		{"error wrong code", Assertion{Type: AssertError, Query: "broken", Code: "UNSUPPORTED_QUERY"}, "Expected: error UNSUPPORTED_QUERY"},
		{"error expected but none", Assertion{Type: AssertError, Query: "friends", Code: "INVALID_ARGUMENT"}, "Actual: no error"},
		{"failed query", Assertion{Type: AssertRows, Query: "broken", Rows: []string{}}, "Expected: no error"},
		{"unknown query", Assertion{Type: AssertCount, Query: "nosuch", Count: ptr(0)}, "query did not run"},
		{"unknown type", Assertion{Type: "trace", Query: "friends"}, "unknown assertion type: trace"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failures := EvaluateAssertions(sampleResult(), []Assertion{tt.assertion})
			if tt.failure == "" {
				assert.Empty(t, failures)
				return
			}
			require.Len(t, failures, 1)
			assert.Contains(t, failures[0], tt.failure)
		})
	}
}

func TestEvaluateAssertionsCollectsAllFailures(t *testing.T) {
	failures := EvaluateAssertions(sampleResult(), []Assertion{
		{Type: AssertCount, Query: "friends", Count: ptr(1)},
		{Type: AssertCount, Query: "friends", Count: ptr(2)},
		{Type: AssertError, Query: "friends", Code: "QUERY_TOO_LARGE"},
	})
	assert.Len(t, failures, 2)
}

func TestAssertionErrorListsRows(t *testing.T) {
	err := &AssertionError{
		Type:     AssertRows,
		Query:    "friends",
		Expected: "[]",
		Actual:   "[knows->bob]",
		Rows:     []string{"knows->bob"},
	}
	assert.Equal(t,
		"Assertion failed: rows on query friends\n  Expected: []\n  Actual: [knows->bob]\n\nRows:\n  [1] knows->bob\n",
		err.Error())
}

func TestResultAddError(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Pass)
	r.AddError("boom")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"boom"}, r.Errors)

	_, ok := r.Output("missing")
	assert.False(t, ok)
}
