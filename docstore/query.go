package docstore

import (
	"cmp"
	"fmt"
	"slices"
)

type Op uint8

const (
	OpEq Op = iota
	OpIn
	OpContains
)

type Filter struct {
	Field string
	Op    Op
	Value any
}

func Eq(field string, value any) Filter {
	return Filter{Field: field, Op: OpEq, Value: normalize(value)}
}

func In(field string, values ...any) Filter {
	return Filter{Field: field, Op: OpIn, Value: normalize(values)}
}

// Contains matches documents whose array field holds value.
func Contains(field string, value any) Filter {
	return Filter{Field: field, Op: OpContains, Value: normalize(value)}
}

func (f Filter) Match(data map[string]any) bool {
	v, ok := data[f.Field]
	if !ok {
		return false
	}
	switch f.Op {
	case OpEq:
		return equal(v, f.Value)
	case OpIn:
		candidates, _ := f.Value.([]any)
		return slices.ContainsFunc(candidates, func(c any) bool { return equal(v, c) })
	case OpContains:
		arr, ok := v.([]any)
		return ok && slices.ContainsFunc(arr, func(e any) bool { return equal(e, f.Value) })
	default:
		return false
	}
}

type Query struct {
	Collection string
	Filters    []Filter
	OrderBy    string
	Desc       bool
}

func Collection(name string) Query {
	return Query{Collection: name}
}

func (q Query) Where(filters ...Filter) Query {
	q.Filters = append(slices.Clone(q.Filters), filters...)
	return q
}

func (q Query) Order(field string, desc bool) Query {
	q.OrderBy, q.Desc = field, desc
	return q
}

func (q Query) Match(doc Document) bool {
	for _, f := range q.Filters {
		if !f.Match(doc.Data) {
			return false
		}
	}
	return true
}

// Sort orders docs by q.OrderBy with the document id as tie breaker.
func (q Query) Sort(docs []Document) {
	slices.SortStableFunc(docs, func(a, b Document) int {
		c := 0
		if q.OrderBy != "" {
			c = compareValues(a.Data[q.OrderBy], b.Data[q.OrderBy])
		}
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if q.Desc {
			c = -c
		}
		return c
	})
}

func equal(a, b any) bool {
	switch av := a.(type) {
	case string, float64, bool, nil:
		return a == b
	case []any:
		bv, ok := b.([]any)
		return ok && slices.EqualFunc(av, bv, equal)
	default:
		return fmt.Sprint(a) == fmt.Sprint(b)
	}
}

func compareValues(a, b any) int {
	switch av := a.(type) {
	case float64:
		if bv, ok := b.(float64); ok {
			return cmp.Compare(av, bv)
		}
	case string:
		if bv, ok := b.(string); ok {
			return cmp.Compare(av, bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			default:
				return 1
			}
		}
	}
	// missing or mixed types sort first
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
