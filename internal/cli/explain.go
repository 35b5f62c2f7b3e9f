package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/vcq/internal/codec"
	"github.com/roach88/vcq/internal/graph"
	"github.com/roach88/vcq/internal/query"
	"github.com/roach88/vcq/internal/schema"
)

// ExplainOptions holds flags for the explain command.
type ExplainOptions struct {
	*RootOptions
	Types     []string
	Direction string
	Has       []string
	Order     string
	Limit     int
	Returns   string
	System    bool
}

// ExplainResult is the explain command's payload.
type ExplainResult struct {
	Plan        string `json:"plan"`
	Fingerprint string `json:"fingerprint"`
	Simple      bool   `json:"simple"`
	Subqueries  int    `json:"subqueries"`
	// Implicit names the computed key answering the query, if any.
	Implicit string `json:"implicit,omitempty"`
}

func (r ExplainResult) String() string {
	if r.Implicit != "" {
		return fmt.Sprintf("implicit %s (computed, no storage read)", r.Implicit)
	}
	return strings.TrimSuffix(r.Plan, "\n")
}

// comparison operators accepted in --has, longest first.
var hasOperators = []struct {
	op   string
	pred graph.Predicate
}{
	{">=", graph.GreaterEqual},
	{"<=", graph.LessEqual},
	{"!=", graph.NotEqual},
	{"=", graph.Equal},
	{">", graph.GreaterThan},
	{"<", graph.LessThan},
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExplainOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "explain <schema.cue>",
		Short: "Show the slices a query compiles to",
		Long: `Compile a vertex-centric query against a schema and print its plan:
the combined condition, then one line per slice with its bounds, whether
the slice alone answers the query (fitted) and whether it returns rows
in the requested order (sorted).

Constraints are given with --has:
  age            key present
  !age           key absent
  age>=20        comparison (=, !=, <, <=, >, >=)
  lang:in:[en,fr] any predicate by name; values are YAML

Examples:
  vcq explain schema.cue --type knows --direction out --limit 10
  vcq explain schema.cue --type visits --has 'age>=20' --has 'age<30' --order age
  vcq explain schema.cue --type speaks --has 'lang:in:[en,fr]' --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Types, "type", "t", nil, "relation types (repeatable)")
	cmd.Flags().StringVarP(&opts.Direction, "direction", "d", "both", "direction (out|in|both)")
	cmd.Flags().StringArrayVar(&opts.Has, "has", nil, "property constraint (repeatable)")
	cmd.Flags().StringVar(&opts.Order, "order", "", "order by key, optionally key:desc")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "l", -1, "result limit (-1 for none)")
	cmd.Flags().StringVar(&opts.Returns, "returns", "edges", "result category (edges|properties|relations)")
	cmd.Flags().BoolVar(&opts.System, "system", false, "query system relations")

	return cmd
}

func runExplain(opts *ExplainOptions, schemaPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	reg, err := schema.LoadCUEFile(schemaPath)
	if err != nil {
		_ = formatter.Error(ErrCodeSchema, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load schema", err)
	}

	category, err := parseCategory(opts.Returns)
	if err != nil {
		_ = formatter.Error(ErrCodeQuery, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid query", err)
	}
	spec, err := buildSpec(reg, opts)
	if err != nil {
		return reportQueryError(formatter, err)
	}

	if key, ok := query.ImplicitKey(spec, category, reg); ok {
		return formatter.Success(ExplainResult{Plan: query.Explain(query.Empty()), Implicit: key.Name})
	}
	q, err := query.Compile(spec, category, query.Env{
		Schema:               reg,
		Codec:                codec.New(reg),
		Limits:               opts.Config.Limits(),
		IgnoreUndefinedTypes: opts.Config.Query.IgnoreUndefinedTypes,
	})
	if err != nil {
		return reportQueryError(formatter, err)
	}
	return formatter.Success(ExplainResult{
		Plan:        query.Explain(q),
		Fingerprint: query.Fingerprint(q),
		Simple:      q.IsSimple(),
		Subqueries:  len(q.Subqueries),
	})
}

// buildSpec turns the command flags into a query spec.
func buildSpec(reg schema.Inspector, opts *ExplainOptions) (query.Spec, error) {
	b := query.NewBuilder(reg)
	if len(opts.Types) > 0 {
		b = b.Types(opts.Types...)
	}
	dir, err := graph.ParseDirection(opts.Direction)
	if err != nil {
		return query.Spec{}, err
	}
	b = b.Direction(dir)
	for _, expr := range opts.Has {
		if b, err = applyHas(b, expr); err != nil {
			return query.Spec{}, err
		}
	}
	if opts.Order != "" {
		key, order, _ := strings.Cut(opts.Order, ":")
		o, err := graph.ParseOrder(order)
		if err != nil {
			return query.Spec{}, err
		}
		b = b.OrderBy(key, o)
	}
	if opts.Limit >= 0 {
		b = b.Limit(opts.Limit)
	}
	if opts.System {
		b = b.System()
	}
	return b.Build()
}

// applyHas adds one --has expression to b.
func applyHas(b *query.Builder, expr string) (*query.Builder, error) {
	expr = strings.TrimSpace(expr)
	if key, rest, ok := strings.Cut(expr, ":"); ok {
		return applyNamedPredicate(b, key, rest)
	}
	if key, ok := strings.CutPrefix(expr, "!"); ok {
		return b.HasNoKey(strings.TrimSpace(key)), nil
	}
	for _, o := range hasOperators {
		if key, raw, ok := strings.Cut(expr, o.op); ok {
			value, err := parseValue(raw)
			if err != nil {
				return nil, fmt.Errorf("--has %q: %w", expr, err)
			}
			return b.HasPredicate(strings.TrimSpace(key), o.pred, value), nil
		}
	}
	if expr == "" {
		return nil, errors.New("--has must not be empty")
	}
	return b.HasKey(expr), nil
}

func applyNamedPredicate(b *query.Builder, key, rest string) (*query.Builder, error) {
	name, raw, ok := strings.Cut(rest, ":")
	if !ok {
		return nil, fmt.Errorf("--has %q: expected key:predicate:value", key+":"+rest)
	}
	pred, err := graph.ParsePredicate(name)
	if err != nil {
		return nil, err
	}
	value, err := parseValue(raw)
	if err != nil {
		return nil, fmt.Errorf("--has %s: %w", key, err)
	}
	return b.HasPredicate(key, pred, value), nil
}

// parseValue decodes a flag value as YAML so 20 is an int and [a,b] a list.
func parseValue(raw string) (any, error) {
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
		return nil, err
	}
	return v, nil
}

func parseCategory(s string) (graph.Category, error) {
	switch s {
	case "edges", "":
		return graph.CategoryEdge, nil
	case "properties":
		return graph.CategoryProperty, nil
	case "relations":
		return graph.CategoryRelation, nil
	default:
		return 0, fmt.Errorf("unknown result category %q", s)
	}
}

// reportQueryError prints a query error with its code. Query errors exit
// with ExitFailure; anything else is a command error.
func reportQueryError(formatter *OutputFormatter, err error) error {
	var qerr *query.Error
	if errors.As(err, &qerr) {
		_ = formatter.Error(ErrCodeQuery, err.Error(), map[string]string{"code": string(qerr.Code)})
		return WrapExitError(ExitFailure, "query rejected", err)
	}
	_ = formatter.Error(ErrCodeQuery, err.Error(), nil)
	return WrapExitError(ExitCommandError, "invalid query", err)
}
