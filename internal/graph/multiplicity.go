package graph

import "fmt"

// Multiplicity constrains how many relations of a type a vertex may have.
type Multiplicity int

const (
	// Multi allows parallel relations between the same pair of vertices.
	Multi Multiplicity = iota
	// Simple allows at most one relation per vertex pair (or value).
	Simple
	// Many2One allows one outgoing relation per vertex.
	Many2One
	// One2Many allows one incoming relation per vertex.
	One2Many
	// One2One allows one relation per vertex in each direction.
	One2One
)

var multiplicityNames = map[Multiplicity]string{
	Multi:    "multi",
	Simple:   "simple",
	Many2One: "many2one",
	One2Many: "one2many",
	One2One:  "one2one",
}

func (m Multiplicity) String() string {
	if s, ok := multiplicityNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Multiplicity(%d)", int(m))
}

// ParseMultiplicity accepts edge multiplicities and the property
// cardinalities single (many2one), set (simple) and list (multi).
func ParseMultiplicity(s string) (Multiplicity, error) {
	switch s {
	case "multi", "MULTI", "list", "LIST", "":
		return Multi, nil
	case "simple", "SIMPLE", "set", "SET":
		return Simple, nil
	case "many2one", "MANY2ONE", "single", "SINGLE":
		return Many2One, nil
	case "one2many", "ONE2MANY":
		return One2Many, nil
	case "one2one", "ONE2ONE":
		return One2One, nil
	default:
		return 0, fmt.Errorf("unknown multiplicity %q", s)
	}
}

// IsConstrained is false only for Multi.
func (m Multiplicity) IsConstrained() bool {
	return m != Multi
}

// IsUnique reports whether a vertex has at most one relation of this
// multiplicity in direction d.
func (m Multiplicity) IsUnique(d Direction) bool {
	switch d {
	case In:
		return m == One2Many || m == One2One
	case Out:
		return m == Many2One || m == One2One
	default:
		return m == One2One
	}
}
