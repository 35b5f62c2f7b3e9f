package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vcq/internal/profile"
	"github.com/roach88/vcq/internal/store"
	"github.com/roach88/vcq/internal/store/badgerkv"
	"github.com/roach88/vcq/internal/store/memkv"
	"github.com/roach88/vcq/internal/tx"
)

func scenarioFiles(t *testing.T) []string {
	t.Helper()
	files, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)
	return files
}

func newMemStore(t *testing.T) store.KeyColumnValueStore {
	t.Helper()
	kv := memkv.New()
	t.Cleanup(func() { kv.Close() })
	return kv
}

func loadScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return s
}

func TestScenarios(t *testing.T) {
	for _, file := range scenarioFiles(t) {
		t.Run(filepath.Base(file), func(t *testing.T) {
			s, err := LoadScenario(file)
			require.NoError(t, err)

			result, err := Run(context.Background(), s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "assertion failures:\n%v", result.Errors)
			assert.Len(t, result.Outputs, len(s.Queries))
		})
	}
}

type rowsT interface {
	Helper()
	Errorf(format string, args ...any)
}

// failures records assertion failures instead of failing the test.
type failures struct{ n int }

func (f *failures) Helper()               {}
func (f *failures) Errorf(string, ...any) { f.n++ }

// compareRows checks rows of ordered queries in order. Ids, and with them
// representative placement, differ between stores, so rows of unordered
// queries only have to match as a multiset.
func compareRows(t rowsT, q QueryStep, want, got []string, scenario string) {
	t.Helper()
	if q.Order == nil {
		assert.ElementsMatch(t, want, got, "%s/%s", scenario, q.Name)
		return
	}
	assert.Equal(t, want, got, "%s/%s", scenario, q.Name)
}

// Every backend must produce the same rows as the in-memory store.
func TestScenariosAcrossBackends(t *testing.T) {
	backends := []struct {
		name string
		open func(t *testing.T) store.KeyColumnValueStore
	}{
		{"sqlite", func(t *testing.T) store.KeyColumnValueStore {
			s, err := store.Open(":memory:")
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		}},
		{"badger", func(t *testing.T) store.KeyColumnValueStore {
			s, err := badgerkv.Open("")
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		}},
	}

	ctx := context.Background()
	for _, backend := range backends {
		t.Run(backend.name, func(t *testing.T) {
			// One store for every scenario.
			kv := backend.open(t)
			for _, file := range scenarioFiles(t) {
				s, err := LoadScenario(file)
				require.NoError(t, err)

				want, err := Run(ctx, s)
				require.NoError(t, err)
				got, err := RunWith(ctx, s, kv, DefaultOptions())
				require.NoError(t, err, s.Name)

				assert.True(t, got.Pass, "%s: %v", s.Name, got.Errors)
				require.Len(t, got.Outputs, len(want.Outputs))
				for i, q := range s.Queries {
					compareRows(t, q, want.Outputs[i].Rows, got.Outputs[i].Rows, s.Name)
				}
			}
		})
	}
}

func TestCompareRowsOrderSensitivity(t *testing.T) {
	unordered := QueryStep{Name: "all"}
	compareRows(t, unordered, []string{"knows->l3", "knows->l1"}, []string{"knows->l1", "knows->l3"}, "partitioned")

	ordered := QueryStep{Name: "youngest", Order: &OrderSpec{Key: "age"}}
	var f failures
	compareRows(&f, ordered, []string{"knows->l4", "knows->l6"}, []string{"knows->l6", "knows->l4"}, "partitioned")
	assert.Equal(t, 1, f.n)
}

func TestRunRecordsPlans(t *testing.T) {
	result, err := Run(context.Background(), loadScenario(t, "social_basics"))
	require.NoError(t, err)

	out, ok := result.Output("knows_out")
	require.True(t, ok)
	assert.True(t, out.Simple)
	assert.Equal(t, 1, out.Subqueries)
	assert.Contains(t, out.Plan, "slice 0 knows OUT")
	assert.Equal(t, 2, out.Count)
}

func TestRunRecordsQueryErrors(t *testing.T) {
	result, err := Run(context.Background(), loadScenario(t, "edge_cases"))
	require.NoError(t, err)

	out, ok := result.Output("key_in_edge_query")
	require.True(t, ok)
	assert.Equal(t, "INVALID_ARGUMENT", out.ErrorCode)
	assert.NotEmpty(t, out.Err)
	assert.Empty(t, out.Rows)
}

func TestRunReportsFailedAssertions(t *testing.T) {
	s := loadScenario(t, "social_basics")
	s.Assertions[0].Rows = []string{"knows->carol", "knows->bob"}

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Assertion failed: rows on query knows_out")
}

func TestRunWithProfiler(t *testing.T) {
	recorders := make(map[string]*profile.Recorder)
	opts := DefaultOptions()
	opts.Profiler = func(name string) profile.Profiler {
		r := profile.NewRecorder(name)
		recorders[name] = r
		return r
	}

	result, err := RunWith(context.Background(), loadScenario(t, "fallback"), newMemStore(t), opts)
	require.NoError(t, err)
	require.True(t, result.Pass, "%v", result.Errors)

	r, ok := recorders["older"]
	require.True(t, ok)
	subs := r.Find(profile.GroupSubquery)
	require.NotEmpty(t, subs)
	fitted, ok := subs[0].Annotation(profile.FittedAnnotation)
	require.True(t, ok)
	assert.Equal(t, false, fitted)
	assert.NotEmpty(t, r.Find(profile.GroupBackendQuery))
}

func TestRunWithSingleRepresentative(t *testing.T) {
	opts := DefaultOptions()
	opts.Graph = tx.DefaultOptions()
	opts.Graph.Representatives = 1

	result, err := RunWith(context.Background(), loadScenario(t, "partitioned"), newMemStore(t), opts)
	require.NoError(t, err)
	assert.True(t, result.Pass, "%v", result.Errors)
}

func TestRunMissingSchema(t *testing.T) {
	s := loadScenario(t, "social_basics")
	s.Schema = filepath.Join(t.TempDir(), "missing.cue")

	_, err := Run(context.Background(), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load schema")
}
