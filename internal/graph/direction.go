package graph

import "fmt"

// Direction is the side of a relation seen from the queried vertex.
type Direction int

const (
	Out Direction = iota
	In
	Both
)

func (d Direction) String() string {
	switch d {
	case Out:
		return "OUT"
	case In:
		return "IN"
	case Both:
		return "BOTH"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// ParseDirection accepts OUT, IN and BOTH in any case.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "OUT", "out", "Out":
		return Out, nil
	case "IN", "in", "In":
		return In, nil
	case "BOTH", "both", "Both", "":
		return Both, nil
	default:
		return 0, fmt.Errorf("unknown direction %q", s)
	}
}

// Covers reports whether d includes the concrete direction other.
func (d Direction) Covers(other Direction) bool {
	return d == Both || d == other
}

// Opposite returns IN for OUT and vice versa. BOTH is its own opposite.
func (d Direction) Opposite() Direction {
	switch d {
	case Out:
		return In
	case In:
		return Out
	default:
		return Both
	}
}

// Proper returns the concrete directions d stands for.
func (d Direction) Proper() []Direction {
	if d == Both {
		return []Direction{Out, In}
	}
	return []Direction{d}
}

// Category is the kind of relation a query returns.
type Category int

const (
	CategoryEdge Category = iota
	CategoryProperty
	CategoryRelation
)

func (c Category) String() string {
	switch c {
	case CategoryEdge:
		return "EDGE"
	case CategoryProperty:
		return "PROPERTY"
	case CategoryRelation:
		return "RELATION"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// Includes reports whether a relation of category r belongs to c.
func (c Category) Includes(r Category) bool {
	return c == CategoryRelation || c == r
}

// Order is a sort direction on a property key.
type Order int

const (
	Asc Order = iota
	Desc
)

func (o Order) String() string {
	if o == Desc {
		return "DESC"
	}
	return "ASC"
}

// ParseOrder accepts asc/desc in any case.
func ParseOrder(s string) (Order, error) {
	switch s {
	case "ASC", "asc", "":
		return Asc, nil
	case "DESC", "desc":
		return Desc, nil
	default:
		return 0, fmt.Errorf("unknown order %q", s)
	}
}

// Apply flips a comparison result for descending order.
func (o Order) Apply(c int) int {
	if o == Desc {
		return -c
	}
	return c
}
