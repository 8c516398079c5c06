package defra

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// IDPattern matches DefraDB document IDs (bae-<uuid>) and simple identifiers.
var IDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateID checks that id is safe to interpolate into a GraphQL document.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("empty ID")
	}
	if len(id) > 500 {
		return fmt.Errorf("ID too long: %d characters", len(id))
	}
	if !IDPattern.MatchString(id) {
		return fmt.Errorf("invalid ID format: contains unsafe characters")
	}
	return nil
}

// Order directions.
const (
	ASC  = "ASC"
	DESC = "DESC"
)

// QueryBuilder constructs parameterized GraphQL reads. Filter values are
// always passed as variables, never interpolated.
type QueryBuilder struct {
	collection string
	filters    []filterDef
	fields     []string
	order      []string
	limit      int
	offset     int
}

type filterDef struct {
	field   string
	op      string
	varType string
	value   any
}

// NewQuery starts a query over collection. Only _docID is selected until
// Fields is called.
func NewQuery(collection string) *QueryBuilder {
	return &QueryBuilder{collection: collection, fields: []string{"_docID"}}
}

func (q *QueryBuilder) add(field, op string, value any) *QueryBuilder {
	q.filters = append(q.filters, filterDef{
		field:   field,
		op:      op,
		varType: inferGraphQLType(value),
		value:   value,
	})
	return q
}

// Filter adds an equality filter.
func (q *QueryBuilder) Filter(field string, value any) *QueryBuilder {
	return q.add(field, "_eq", value)
}

// FilterLike adds a case-insensitive pattern filter (% wildcards).
func (q *QueryBuilder) FilterLike(field, pattern string) *QueryBuilder {
	return q.add(field, "_ilike", pattern)
}

// FilterIn matches any of values.
func (q *QueryBuilder) FilterIn(field string, values []string) *QueryBuilder {
	q.filters = append(q.filters, filterDef{field: field, op: "_in", varType: "[String!]", value: values})
	return q
}

// FilterGT adds a greater-than filter.
func (q *QueryBuilder) FilterGT(field string, value any) *QueryBuilder {
	return q.add(field, "_gt", value)
}

// FilterLT adds a less-than filter.
func (q *QueryBuilder) FilterLT(field string, value any) *QueryBuilder {
	return q.add(field, "_lt", value)
}

// FilterGTE adds a greater-than-or-equal filter.
func (q *QueryBuilder) FilterGTE(field string, value any) *QueryBuilder {
	return q.add(field, "_geq", value)
}

// FilterLTE adds a less-than-or-equal filter.
func (q *QueryBuilder) FilterLTE(field string, value any) *QueryBuilder {
	return q.add(field, "_leq", value)
}

// Fields replaces the selection set.
func (q *QueryBuilder) Fields(fields ...string) *QueryBuilder {
	q.fields = fields
	return q
}

// OrderBy appends an ordering term. Terms apply in call order.
func (q *QueryBuilder) OrderBy(field, direction string) *QueryBuilder {
	q.order = append(q.order, fmt.Sprintf("{%s: %s}", field, direction))
	return q
}

// Limit caps the number of results. Zero means no limit.
func (q *QueryBuilder) Limit(n int) *QueryBuilder {
	q.limit = n
	return q
}

// Offset skips the first n results.
func (q *QueryBuilder) Offset(n int) *QueryBuilder {
	q.offset = n
	return q
}

// Build returns the query document and its variables.
func (q *QueryBuilder) Build() (string, map[string]any) {
	var varDefs, filterParts []string
	vars := make(map[string]any, len(q.filters))

	for i, f := range q.filters {
		name := fmt.Sprintf("v%d", i)
		varDefs = append(varDefs, fmt.Sprintf("$%s: %s", name, f.varType))
		filterParts = append(filterParts, fmt.Sprintf("%s: {%s: $%s}", f.field, f.op, name))
		if t, ok := f.value.(time.Time); ok {
			vars[name] = t.UTC().Format(time.RFC3339Nano)
		} else {
			vars[name] = f.value
		}
	}

	var b strings.Builder
	if len(varDefs) > 0 {
		fmt.Fprintf(&b, "query(%s) ", strings.Join(varDefs, ", "))
	}
	b.WriteString("{ ")
	b.WriteString(q.collection)

	var args []string
	if len(filterParts) > 0 {
		args = append(args, fmt.Sprintf("filter: {%s}", strings.Join(filterParts, ", ")))
	}
	switch len(q.order) {
	case 0:
	case 1:
		args = append(args, "order: "+q.order[0])
	default:
		args = append(args, "order: ["+strings.Join(q.order, ", ")+"]")
	}
	if q.limit > 0 {
		args = append(args, fmt.Sprintf("limit: %d", q.limit))
	}
	if q.offset > 0 {
		args = append(args, fmt.Sprintf("offset: %d", q.offset))
	}
	if len(args) > 0 {
		fmt.Fprintf(&b, "(%s)", strings.Join(args, ", "))
	}

	b.WriteString(" { ")
	b.WriteString(strings.Join(q.fields, " "))
	b.WriteString(" } }")

	return b.String(), vars
}

// Docs runs the query and returns the matching documents.
func (q *QueryBuilder) Docs(ctx context.Context, client *Client) ([]map[string]any, error) {
	query, vars := q.Build()
	resp, err := client.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return resp.Docs(q.collection)
}

func inferGraphQLType(v any) string {
	switch v.(type) {
	case int, int32, int64:
		return "Int"
	case float32, float64:
		return "Float"
	case bool:
		return "Boolean"
	case time.Time:
		return "DateTime"
	default:
		return "String"
	}
}
