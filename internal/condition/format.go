package condition

import (
	"fmt"
	"strings"

	"github.com/roach88/vcq/internal/ir"
)

// Format renders c in a compact, deterministic form for plans.
func Format(c Condition) string {
	switch cond := c.(type) {
	case And:
		return join("AND", cond.Children)
	case Or:
		return join("OR", cond.Children)
	case Not:
		return "NOT " + Format(cond.Child)
	case Predicate:
		return fmt.Sprintf("%s %s %s", cond.Key.Name, cond.Op, ir.Format(cond.Value))
	case Direction:
		return fmt.Sprintf("dir(%d,%s)", cond.Vertex, cond.Dir)
	case Incidence:
		if cond.Other == nil || !cond.Other.HasID() {
			return fmt.Sprintf("adj(%d,?)", cond.Vertex)
		}
		return fmt.Sprintf("adj(%d,%d)", cond.Vertex, cond.Other.ID())
	case RelationType:
		return "type=" + cond.Type.Name
	case Visibility:
		if cond.System {
			return "visibility=system"
		}
		return "visibility=normal"
	case Category:
		return "category=" + cond.Category.String()
	case Fixed:
		if cond.Value {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%T", c)
	}
}

func join(op string, children []Condition) string {
	if len(children) == 0 {
		return op + "()"
	}
	parts := make([]string, len(children))
	for i, child := range children {
		parts[i] = Format(child)
	}
	return "(" + strings.Join(parts, " "+op+" ") + ")"
}
