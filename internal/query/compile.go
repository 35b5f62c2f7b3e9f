package query

import (
	"log/slog"
	"math"

	"github.com/roach88/vcq/internal/codec"
	"github.com/roach88/vcq/internal/condition"
	"github.com/roach88/vcq/internal/graph"
	"github.com/roach88/vcq/internal/interval"
	"github.com/roach88/vcq/internal/profile"
	"github.com/roach88/vcq/internal/schema"
)

// Env is what compilation needs besides the spec.
type Env struct {
	Schema schema.Inspector
	Codec  *codec.Codec
	Limits Limits
	// HasModifications reports whether the transaction has changes.
	HasModifications bool
	// IgnoreUndefinedTypes skips unknown type names instead of failing.
	IgnoreUndefinedTypes bool
}

// Compile turns spec into a BaseQuery returning relations of category.
// The spec's order list is locked.
func Compile(spec Spec, category graph.Category, env Env) (*BaseQuery, error) {
	p := spec.profiler()
	opt := p.AddNested(profile.GroupOptimization)
	opt.StartTimer()
	q, err := compile(spec, category, env)
	opt.StopTimer()
	if err != nil {
		return nil, err
	}
	if spec.QueryOnlyLoaded && !q.IsEmpty() && !q.IsSimple() {
		return nil, invalidf("query-only-loaded requires a simple query")
	}
	q.observeWith(p)
	slog.Debug("compiled vertex query",
		"category", category,
		"types", spec.Types,
		"subqueries", len(q.Subqueries),
		"simple", q.IsSimple(),
		"empty", q.IsEmpty())
	return q, nil
}

func compile(spec Spec, category graph.Category, env Env) (*BaseQuery, error) {
	if spec.Adjacent != nil && category != graph.CategoryEdge {
		return nil, invalidf("vertex constraints only apply to edges")
	}
	if spec.Limit <= 0 {
		return Empty(), nil
	}

	dir := spec.Direction
	if category == graph.CategoryProperty {
		if dir == graph.In {
			return Empty(), nil
		}
		dir = graph.Out
	}

	orders := spec.Orders
	if orders == nil {
		orders = &OrderList{}
	}
	orders.Lock()
	commonOrder, ok := orders.CommonOrder()
	if !ok {
		return nil, invalidf("orders %s do not share a direction", orders)
	}

	conditions, empty, err := normalize(spec.Constraints, env.Schema, env.IgnoreUndefinedTypes)
	if err != nil {
		return nil, err
	}
	if empty {
		return Empty(), nil
	}

	c := &compiler{
		spec:        spec,
		env:         env,
		category:    category,
		dir:         dir,
		orders:      orders,
		commonOrder: commonOrder,
		sliceLimit:  spec.Limit,
	}

	if !spec.HasTypes() {
		return c.categoryQuery(conditions), nil
	}
	return c.typedQuery(conditions)
}

type compiler struct {
	spec        Spec
	env         Env
	category    graph.Category
	dir         graph.Direction
	orders      *OrderList
	commonOrder graph.Order
	sliceLimit  int

	subqueries []Subquery
}

func (c *compiler) computeLimit(remaining, base int) int {
	return c.env.Limits.ComputeLimit(remaining, base, c.env.HasModifications)
}

// categoryQuery scans every relation of the category.
func (c *compiler) categoryQuery(conditions condition.And) *BaseQuery {
	fitted := (c.spec.Adjacent == nil && c.dir == graph.Both ||
		c.category == graph.CategoryProperty && c.dir == graph.Out) &&
		!conditions.HasChildren()

	sliceLimit := c.sliceLimit
	if sliceLimit != NoLimit && sliceLimit < math.MaxInt32/3 {
		// One direction of two: about half the rows are filtered out.
		if c.dir != graph.Both && (c.category == graph.CategoryEdge || c.category == graph.CategoryRelation) {
			sliceLimit *= c.env.Limits.DirectionMultiplier
		}
	}
	slice := c.env.Codec.CategorySlice(c.category, c.spec.System)
	sub := Subquery{
		Slice:  slice.WithLimit(c.computeLimit(conditions.Size(), sliceLimit)),
		Fitted: fitted,
		Sorted: c.orders.IsEmpty(),
		Dir:    graph.Both,
		Bounds: "category=" + c.category.String(),
	}

	conditions = conditions.With(
		condition.Category{Category: c.category},
		condition.Visibility{System: c.spec.System},
	)
	return &BaseQuery{
		Condition:  condition.SimplifyAnd(conditions),
		Direction:  c.dir,
		Subqueries: []Subquery{sub},
		Orders:     c.orders,
		Limit:      c.spec.Limit,
		Adjacent:   c.spec.Adjacent,
	}
}

// typedQuery picks the best index per requested type and direction.
func (c *compiler) typedQuery(conditions condition.And) (*BaseQuery, error) {
	intervals, fittedIntervals := compileConstraints(conditions, c.spec.Adjacent)
	for _, iv := range intervals {
		if iv.IsEmpty() {
			return Empty(), nil
		}
	}

	var types []*schema.RelationType
	seen := make(map[*schema.RelationType]bool, len(c.spec.Types))
	for _, name := range c.spec.Types {
		t, ok := c.env.Schema.RelationType(name)
		if !ok {
			if c.env.IgnoreUndefinedTypes {
				continue
			}
			return nil, &Error{Code: ErrCodeInvalidArgument, Message: "undefined type used in query", Type: name}
		}
		switch {
		case c.spec.System && !t.System:
			return nil, &Error{Code: ErrCodeInvalidArgument, Message: "can only query for system types", Type: name}
		case t.IsImplicit():
			return nil, &Error{Code: ErrCodeInvalidArgument, Message: "implicit types are not supported in complex queries", Type: name}
		case t.IsIndex():
			return nil, &Error{Code: ErrCodeInvalidArgument, Message: "relation indexes cannot be queried directly", Type: name}
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		types = append(types, t)

		typeDir := c.dir
		if t.IsPropertyKey() {
			if c.category == graph.CategoryEdge {
				return nil, &Error{Code: ErrCodeInvalidArgument, Message: "querying for edges but including a property key", Type: name}
			}
			typeDir = graph.Out
		} else {
			if c.category == graph.CategoryProperty {
				return nil, &Error{Code: ErrCodeInvalidArgument, Message: "querying for properties but including an edge label", Type: name}
			}
			if t.IsUnidirected() {
				if typeDir == graph.Both {
					typeDir = t.Storage
				} else if !t.IsStoredIn(typeDir) {
					continue
				}
			}
		}

		// Deliberately narrow: intervals or orders a sort key could serve
		// still go through per-direction scoring below.
		if t.IsEdgeLabel() && typeDir == graph.Both && len(intervals) == 0 && c.orders.IsEmpty() {
			slice, err := c.env.Codec.TypeSlice(t, graph.Both, nil)
			if err != nil {
				return nil, err
			}
			c.subqueries = append(c.subqueries, Subquery{
				Slice:  slice.WithLimit(c.sliceLimit),
				Fitted: fittedIntervals,
				Sorted: true,
				Type:   t,
				Dir:    graph.Both,
				Bounds: "{}",
			})
			continue
		}

		dirs := []graph.Direction{typeDir}
		if typeDir == graph.Both {
			dirs = []graph.Direction{graph.Out, graph.In}
		}
		for _, d := range dirs {
			best, key, supportsOrder := c.bestCandidate(t, d, intervals)
			if best == nil {
				return nil, NewUnsupportedError(t.Name)
			}
			constraints := make([]*interval.Interval, len(key))
			if err := c.constructSlices(key, constraints, 0, best, d, intervals, fittedIntervals, supportsOrder); err != nil {
				return nil, err
			}
		}
	}
	if len(c.subqueries) == 0 {
		return Empty(), nil
	}

	conditions = conditions.With(typeCondition(types))
	return &BaseQuery{
		Condition:  condition.SimplifyAnd(conditions),
		Direction:  c.dir,
		Subqueries: c.subqueries,
		Orders:     c.orders,
		Limit:      c.spec.Limit,
		Adjacent:   c.spec.Adjacent,
		Types:      types,
	}, nil
}

// bestCandidate scores t and its enabled relation indexes stored in d and
// returns the highest scoring one. Ties keep the earlier candidate.
func (c *compiler) bestCandidate(t *schema.RelationType, d graph.Direction, intervals intervalMap) (*schema.RelationType, []*schema.RelationType, bool) {
	var (
		best          *schema.RelationType
		bestKey       []*schema.RelationType
		bestScore     = math.Inf(-1)
		bestSupported bool
	)
	for _, cand := range t.RelationIndexes() {
		if !cand.IsStoredIn(d) {
			continue
		}
		if cand != t && cand.Status != schema.Enabled {
			continue
		}
		key := schema.ExtendedSortKey(cand, d)
		score, supported := c.score(cand, key, intervals)
		if score > bestScore {
			best, bestKey, bestScore, bestSupported = cand, key, score, supported
		}
	}
	return best, bestKey, bestSupported
}

// score rewards point constraints on a prefix of key by selectivity,
// a range on the next component, and a key whose prefix yields the
// requested order.
func (c *compiler) score(cand *schema.RelationType, key []*schema.RelationType, intervals intervalMap) (float64, bool) {
	supportsOrder := c.orders.IsEmpty() || c.commonOrder == cand.SortOrder
	currentOrder := 0
	score := 0.0
	for _, k := range key {
		if currentOrder < c.orders.Len() && c.orders.Entry(currentOrder).Key == k {
			currentOrder++
		}
		iv, ok := intervals[k]
		if !ok || !iv.IsPoints() {
			if ok {
				score++
			}
			break
		}
		score += 5.0 / float64(len(iv.PointValues()))
	}
	supported := supportsOrder && currentOrder == c.orders.Len()
	if supported {
		score += 3
	}
	return score, supported
}
