package condition

// SimplifyAnd returns the single child of a one-child And, and a otherwise.
func SimplifyAnd(a And) Condition {
	if len(a.Children) == 1 {
		return a.Children[0]
	}
	return a
}

// IsQNF reports whether c is in query normal form: an And whose children
// are literals or Ors of literals. A literal is any non-combinator
// condition or the negation of one.
func IsQNF(c Condition) bool {
	and, ok := c.(And)
	if !ok {
		return false
	}
	for _, child := range and.Children {
		switch cc := child.(type) {
		case Or:
			for _, lit := range cc.Children {
				if !isLiteral(lit) {
					return false
				}
			}
		default:
			if !isLiteral(cc) {
				return false
			}
		}
	}
	return true
}

func isLiteral(c Condition) bool {
	switch cc := c.(type) {
	case And, Or:
		return false
	case Not:
		return isLiteral(cc.Child) && !isNot(cc.Child)
	default:
		return true
	}
}

func isNot(c Condition) bool {
	_, ok := c.(Not)
	return ok
}
