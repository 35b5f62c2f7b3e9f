package query

import (
	"fmt"
	"strings"

	"github.com/roach88/vcq/internal/condition"
	"github.com/roach88/vcq/internal/ir"
)

// Explain renders a compiled query as a deterministic plan, one subquery
// per line. Slice bytes are omitted; Bounds shows what they encode.
func Explain(q *BaseQuery) string {
	var b strings.Builder
	if q.IsEmpty() {
		b.WriteString("empty\n")
		return b.String()
	}
	limit := "none"
	if q.HasLimit() {
		limit = fmt.Sprint(q.Limit)
	}
	fmt.Fprintf(&b, "query direction=%s limit=%s orders=%s simple=%t\n", q.Direction, limit, q.Orders, q.IsSimple())
	fmt.Fprintf(&b, "  condition %s\n", condition.Format(q.Condition))
	for i, s := range q.Subqueries {
		sliceLimit := "none"
		if s.Slice.HasLimit() {
			sliceLimit = fmt.Sprint(s.Slice.Limit)
		}
		fmt.Fprintf(&b, "  slice %d %s %s %s fitted=%t sorted=%t limit=%s\n",
			i, s.Target(), s.Dir, s.Bounds, s.Fitted, s.Sorted, sliceLimit)
	}
	return b.String()
}

// Fingerprint identifies a plan by its rendering.
func Fingerprint(q *BaseQuery) string {
	return planFingerprint(Explain(q))
}

func planFingerprint(plan string) string {
	return ir.MustFingerprint(ir.DomainPlan, ir.IRObject{"plan": ir.IRString(plan)})
}
