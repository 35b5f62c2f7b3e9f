package schema

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/vcq/internal/graph"
	"github.com/roach88/vcq/internal/ir"
)

// schemaDefinition constrains schema files. Definitions are closed, so a
// misspelled field is reported instead of silently ignored.
const schemaDefinition = `
#PropertyKey: {
	dataType?:    "string" | "int" | "bool" | "any"
	cardinality?: "single" | "set" | "list"
}
#EdgeLabel: {
	multiplicity?: "multi" | "simple" | "many2one" | "one2many" | "one2one"
	unidirected?:  bool
	sortKey?: [...string]
	sortOrder?: "asc" | "desc"
	system?:    bool
}
#RelationIndex: {
	type:       string
	direction?: "out" | "in" | "both"
	sortKey: [string, ...string]
	sortOrder?: "asc" | "desc"
	status?:    "enabled" | "registered" | "installed" | "disabled"
}
propertyKeys?: [string]: #PropertyKey
edgeLabels?: [string]: #EdgeLabel
relationIndexes?: [string]: #RelationIndex
`

// LoadError is a schema file error with its CUE source position.
type LoadError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadCUEFile reads and loads a schema file.
func LoadCUEFile(path string) (*Registry, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return LoadCUE(path, string(src))
}

// LoadCUE compiles a CUE schema document into a Registry:
//
//	propertyKeys: age: {dataType: "int", cardinality: "single"}
//	edgeLabels: knows: {multiplicity: "multi", sortKey: ["weight"]}
//	relationIndexes: knowsByTime: {type: "knows", sortKey: ["time"], sortOrder: "desc"}
//
// Property keys are defined first, then edge labels, then relation indexes,
// each in declaration order, so type ids are deterministic.
func LoadCUE(filename, src string) (*Registry, error) {
	ctx := cuecontext.New()
	def := ctx.CompileString(schemaDefinition)
	if err := def.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	v := ctx.CompileString(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	v = def.Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	reg := NewRegistry()
	if err := loadPropertyKeys(reg, v); err != nil {
		return nil, err
	}
	if err := loadEdgeLabels(reg, v); err != nil {
		return nil, err
	}
	if err := loadRelationIndexes(reg, v); err != nil {
		return nil, err
	}
	return reg, nil
}

func loadPropertyKeys(reg *Registry, v cue.Value) error {
	iter, err := v.LookupPath(cue.ParsePath("propertyKeys")).Fields()
	if err != nil {
		// Absent section
		return nil
	}
	for iter.Next() {
		name := iter.Label()
		kv := iter.Value()

		dataType, err := ir.ParseKind(optionalString(kv, "dataType"))
		if err != nil {
			return &LoadError{Field: "propertyKeys." + name, Message: err.Error(), Pos: kv.Pos()}
		}
		card, err := graph.ParseMultiplicity(defaultString(optionalString(kv, "cardinality"), "single"))
		if err != nil {
			return &LoadError{Field: "propertyKeys." + name, Message: err.Error(), Pos: kv.Pos()}
		}
		if _, err := reg.DefinePropertyKey(name, dataType, card); err != nil {
			return withPos(err, kv.Pos())
		}
	}
	return nil
}

func loadEdgeLabels(reg *Registry, v cue.Value) error {
	iter, err := v.LookupPath(cue.ParsePath("edgeLabels")).Fields()
	if err != nil {
		return nil
	}
	for iter.Next() {
		name := iter.Label()
		lv := iter.Value()

		mult, err := graph.ParseMultiplicity(optionalString(lv, "multiplicity"))
		if err != nil {
			return &LoadError{Field: "edgeLabels." + name, Message: err.Error(), Pos: lv.Pos()}
		}
		order, err := graph.ParseOrder(optionalString(lv, "sortOrder"))
		if err != nil {
			return &LoadError{Field: "edgeLabels." + name, Message: err.Error(), Pos: lv.Pos()}
		}
		sortKey, err := stringList(lv, "sortKey")
		if err != nil {
			return err
		}
		opts := EdgeLabelOptions{
			Multiplicity: mult,
			Unidirected:  optionalBool(lv, "unidirected"),
			SortKey:      sortKey,
			SortOrder:    order,
			System:       optionalBool(lv, "system"),
		}
		if _, err := reg.DefineEdgeLabel(name, opts); err != nil {
			return withPos(err, lv.Pos())
		}
	}
	return nil
}

func loadRelationIndexes(reg *Registry, v cue.Value) error {
	iter, err := v.LookupPath(cue.ParsePath("relationIndexes")).Fields()
	if err != nil {
		return nil
	}
	for iter.Next() {
		name := iter.Label()
		iv := iter.Value()

		dir, err := graph.ParseDirection(optionalString(iv, "direction"))
		if err != nil {
			return &LoadError{Field: "relationIndexes." + name, Message: err.Error(), Pos: iv.Pos()}
		}
		order, err := graph.ParseOrder(optionalString(iv, "sortOrder"))
		if err != nil {
			return &LoadError{Field: "relationIndexes." + name, Message: err.Error(), Pos: iv.Pos()}
		}
		status, err := ParseStatus(optionalString(iv, "status"))
		if err != nil {
			return &LoadError{Field: "relationIndexes." + name, Message: err.Error(), Pos: iv.Pos()}
		}
		sortKey, err := stringList(iv, "sortKey")
		if err != nil {
			return err
		}
		opts := IndexOptions{Direction: dir, SortKey: sortKey, SortOrder: order, Status: status}
		if _, err := reg.DefineRelationIndex(optionalString(iv, "type"), name, opts); err != nil {
			return withPos(err, iv.Pos())
		}
	}
	return nil
}

func optionalString(v cue.Value, field string) string {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() {
		return ""
	}
	s, err := f.String()
	if err != nil {
		return ""
	}
	return s
}

func optionalBool(v cue.Value, field string) bool {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() {
		return false
	}
	b, err := f.Bool()
	if err != nil {
		return false
	}
	return b
}

func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func stringList(v cue.Value, field string) ([]string, error) {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() {
		return nil, nil
	}
	iter, err := f.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

func withPos(err error, pos token.Pos) error {
	if de, ok := err.(*DefinitionError); ok {
		return &LoadError{Field: de.Field, Message: de.Message, Pos: pos}
	}
	return err
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &LoadError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
