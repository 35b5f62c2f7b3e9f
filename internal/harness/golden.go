package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/vcq/internal/ir"
)

// Snapshot renders a result as canonical JSON for golden comparison.
// Relation and vertex ids never appear, so snapshots survive changes to
// id allocation.
func Snapshot(name string, result *Result) ([]byte, error) {
	queries := make(ir.IRArray, len(result.Outputs))
	for i, out := range result.Outputs {
		rows := make(ir.IRArray, len(out.Rows))
		for j, r := range out.Rows {
			rows[j] = ir.IRString(r)
		}
		q := ir.IRObject{
			"name":       ir.IRString(out.Name),
			"rows":       rows,
			"count":      ir.IRInt(out.Count),
			"plan":       ir.IRString(out.Plan),
			"simple":     ir.IRBool(out.Simple),
			"subqueries": ir.IRInt(out.Subqueries),
		}
		if out.ErrorCode != "" {
			q["error"] = ir.IRString(out.ErrorCode)
		}
		queries[i] = q
	}
	return ir.MarshalCanonical(ir.IRObject{
		"scenario": ir.IRString(name),
		"queries":  queries,
	})
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	snapshot, err := Snapshot(name, result)
	if err != nil {
		return err
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, snapshot)
	return nil
}
