package harness

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion holds.
	Pass bool `json:"pass"`

	// Outputs holds each query's output in scenario order.
	Outputs []*QueryOutput `json:"outputs"`

	// Errors contains assertion failure messages.
	Errors []string `json:"errors,omitempty"`
}

// QueryOutput is what one query produced.
type QueryOutput struct {
	Name string `json:"name"`

	// Rows are the rendered results. Multi-vertex rows are prefixed with
	// the queried vertex name.
	Rows []string `json:"rows"`

	// Count is the number of results (for count queries, the count).
	Count int `json:"count"`

	// Plan is the rendered compiled query, empty for implicit keys.
	Plan       string `json:"plan,omitempty"`
	Simple     bool   `json:"simple"`
	Subqueries int    `json:"subqueries"`

	// ErrorCode is set when the query failed with a query error.
	ErrorCode string `json:"error_code,omitempty"`
	// Err is the error message of a failed query.
	Err string `json:"error,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Outputs: []*QueryOutput{},
		Errors:  []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Output returns the output of the named query.
func (r *Result) Output(name string) (*QueryOutput, bool) {
	for _, o := range r.Outputs {
		if o.Name == name {
			return o, true
		}
	}
	return nil, false
}
