package repo

import (
	"fmt"
	"strings"
)

// Filter is a small AND-combination of equality predicates over chunk
// columns. A multi-value condition compiles to IN, which gives the
// OR-over-document-ids shape the search layer needs. All downstream code
// builds filters through this type so the WHERE construction lives in one
// place.
type Filter struct {
	conds []filterCond
}

type filterCond struct {
	field  string
	values []interface{}
}

func NewFilter() *Filter {
	return &Filter{}
}

func (f *Filter) Equals(field string, value interface{}) *Filter {
	f.conds = append(f.conds, filterCond{field: field, values: []interface{}{value}})
	return f
}

// AnyOf matches rows whose field equals one of values. A single value
// degenerates to Equals; an empty value set is ignored.
func (f *Filter) AnyOf(field string, values ...string) *Filter {
	if len(values) == 0 {
		return f
	}
	vs := make([]interface{}, 0, len(values))
	for _, v := range values {
		vs = append(vs, v)
	}
	f.conds = append(f.conds, filterCond{field: field, values: vs})
	return f
}

// Compile renders the filter as a WHERE body with $n placeholders starting
// at startArg, plus the bound arguments in order. An empty filter compiles
// to "TRUE".
func (f *Filter) Compile(startArg int) (string, []interface{}) {
	if f == nil || len(f.conds) == 0 {
		return "TRUE", nil
	}
	var parts []string
	var args []interface{}
	n := startArg
	for _, cond := range f.conds {
		if len(cond.values) == 1 {
			parts = append(parts, fmt.Sprintf("%s = $%d", cond.field, n))
			args = append(args, cond.values[0])
			n++
			continue
		}
		holders := make([]string, 0, len(cond.values))
		for _, v := range cond.values {
			holders = append(holders, fmt.Sprintf("$%d", n))
			args = append(args, v)
			n++
		}
		parts = append(parts, fmt.Sprintf("%s IN (%s)", cond.field, strings.Join(holders, ", ")))
	}
	return strings.Join(parts, " AND "), args
}
