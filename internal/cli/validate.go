package cli

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/vcq/internal/schema"
)

// TypeSummary describes one relation type of a validated schema.
type TypeSummary struct {
	Name         string   `json:"name"`
	Kind         string   `json:"kind"`
	DataType     string   `json:"data_type,omitempty"`
	Multiplicity string   `json:"multiplicity"`
	SortKey      []string `json:"sort_key,omitempty"`
	SortOrder    string   `json:"sort_order,omitempty"`
	Storage      string   `json:"storage"`
	Indexes      []string `json:"indexes,omitempty"`
}

// ValidationResult is the validate command's payload.
type ValidationResult struct {
	Valid bool          `json:"valid"`
	Types []TypeSummary `json:"types"`
}

// String renders the result as one line per type.
func (r ValidationResult) String() string {
	var b strings.Builder
	for _, t := range r.Types {
		fmt.Fprintf(&b, "%-16s %-12s %-8s", t.Name, t.Kind, t.Multiplicity)
		if len(t.SortKey) > 0 {
			fmt.Fprintf(&b, " sort=[%s] %s", strings.Join(t.SortKey, ","), t.SortOrder)
		}
		if len(t.Indexes) > 0 {
			fmt.Fprintf(&b, " indexes=[%s]", strings.Join(t.Indexes, ","))
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "✓ schema valid (%d types)", len(r.Types))
	return b.String()
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <schema.cue>",
		Short: "Validate a schema file",
		Long: `Load a CUE schema file and list the relation types it defines.

Reports the first definition error with its source position: unknown
fields, sort keys naming undefined or non-comparable property keys, and
relation indexes over unknown types.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	if _, err := os.Stat(path); err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("schema file not found: %s", path), nil)
		return NewExitError(ExitCommandError, "schema file not found")
	}
	reg, err := schema.LoadCUEFile(path)
	if err != nil {
		var details any
		var loadErr *schema.LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			details = map[string]any{
				"field": loadErr.Field,
				"line":  loadErr.Pos.Line(),
			}
		}
		_ = formatter.Error(ErrCodeSchema, err.Error(), details)
		return WrapExitError(ExitFailure, "invalid schema", err)
	}

	formatter.VerboseLog("loaded schema %s", path)
	return formatter.Success(summarize(reg))
}

// summarize lists the user-visible types in definition order.
func summarize(reg *schema.Registry) ValidationResult {
	types := reg.Types()
	slices.SortFunc(types, func(a, b *schema.RelationType) int { return cmp.Compare(a.ID, b.ID) })

	result := ValidationResult{Valid: true, Types: make([]TypeSummary, 0, len(types))}
	for _, t := range types {
		if t.System {
			continue
		}
		s := TypeSummary{
			Name:         t.Name,
			Kind:         t.Kind.String(),
			Multiplicity: t.Multiplicity.String(),
			Storage:      t.Storage.String(),
		}
		if t.IsPropertyKey() {
			s.DataType = string(t.DataType)
		}
		for _, k := range t.SortKey {
			s.SortKey = append(s.SortKey, k.Name)
		}
		if len(s.SortKey) > 0 {
			s.SortOrder = t.SortOrder.String()
		}
		// Index names are qualified by their type in the registry.
		for _, idx := range t.RelationIndexes()[1:] {
			s.Indexes = append(s.Indexes, strings.TrimPrefix(idx.Name, t.Name+"#"))
		}
		result.Types = append(result.Types, s)
	}
	return result
}
