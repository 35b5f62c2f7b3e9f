package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails. It carries the
// query's rows to help debug the failure.
type AssertionError struct {
	Type     string
	Query    string
	Expected string
	Actual   string
	Rows     []string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s on query %s\n", e.Type, e.Query)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if len(e.Rows) > 0 {
		fmt.Fprintf(&buf, "\nRows:\n")
		for i, r := range e.Rows {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, r)
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion against result and returns
// the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for _, a := range assertions {
		if err := evaluate(result, a); err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}

func evaluate(result *Result, a Assertion) error {
	out, ok := result.Output(a.Query)
	if !ok {
		return &AssertionError{Type: a.Type, Query: a.Query, Expected: "query output", Actual: "query did not run"}
	}
	// Only error assertions look at failed queries.
	if a.Type != AssertError && out.Err != "" {
		return &AssertionError{Type: a.Type, Query: a.Query, Expected: "no error", Actual: out.Err}
	}

	switch a.Type {
	case AssertRows:
		return assertRows(out, a)
	case AssertCount:
		return assertCount(out, a)
	case AssertPlan:
		return assertPlan(out, a)
	case AssertError:
		return assertError(out, a)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

// assertRows compares rendered rows, in order unless a.Unordered.
func assertRows(out *QueryOutput, a Assertion) error {
	actual, expected := out.Rows, a.Rows
	if a.Unordered {
		actual, expected = slices.Sorted(slices.Values(actual)), slices.Sorted(slices.Values(expected))
	}
	if slices.Equal(actual, expected) {
		return nil
	}
	return &AssertionError{
		Type:     AssertRows,
		Query:    a.Query,
		Expected: formatRows(a.Rows),
		Actual:   formatRows(out.Rows),
		Rows:     out.Rows,
	}
}

func assertCount(out *QueryOutput, a Assertion) error {
	if out.Count == *a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertCount,
		Query:    a.Query,
		Expected: fmt.Sprintf("%d results", *a.Count),
		Actual:   fmt.Sprintf("%d results", out.Count),
		Rows:     out.Rows,
	}
}

func assertPlan(out *QueryOutput, a Assertion) error {
	var mismatches []string
	if a.Simple != nil && out.Simple != *a.Simple {
		mismatches = append(mismatches, fmt.Sprintf("simple=%t", out.Simple))
	}
	if a.Subqueries != nil && out.Subqueries != *a.Subqueries {
		mismatches = append(mismatches, fmt.Sprintf("subqueries=%d", out.Subqueries))
	}
	if len(mismatches) == 0 {
		return nil
	}
	var expected []string
	if a.Simple != nil {
		expected = append(expected, fmt.Sprintf("simple=%t", *a.Simple))
	}
	if a.Subqueries != nil {
		expected = append(expected, fmt.Sprintf("subqueries=%d", *a.Subqueries))
	}
	return &AssertionError{
		Type:     AssertPlan,
		Query:    a.Query,
		Expected: strings.Join(expected, " "),
		Actual:   strings.Join(mismatches, " ") + "\n" + out.Plan,
	}
}

func assertError(out *QueryOutput, a Assertion) error {
	if out.ErrorCode == a.Code {
		return nil
	}
	actual := "no error"
	if out.Err != "" {
		actual = out.Err
	}
	return &AssertionError{
		Type:     AssertError,
		Query:    a.Query,
		Expected: "error " + a.Code,
		Actual:   actual,
	}
}

func formatRows(rows []string) string {
	if len(rows) == 0 {
		return "[]"
	}
	return "[" + strings.Join(rows, ", ") + "]"
}
