package blog

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
)

/*
Posts can be searched with a small boolean query language:

Query       := Expr
Expr        := OrExpr ( "OR" OrExpr )*
OrExpr      := AndExpr ( "AND" AndExpr )*
AndExpr     := Condition | "NOT" Condition
Condition   := Filter | "(" Expr ")"
Filter      := Field Op <string>
Field       := "title" | "author" | "body" | "category"
Op          := "CONTAINS" | "<" | ">" | "="

Example: title CONTAINS "iron" AND NOT category = "films"
*/

var (
	parser = participle.MustBuild[QueryExpr](
		participle.Unquote("String"),
	)

	searchColumns = map[string]string{
		"title":    "posts.title",
		"author":   "posts.author",
		"body":     "posts.body",
		"category": "categories.name",
	}
)

// Filter is a compiled search condition. Where returns a SQL condition with
// positional placeholders and the values bound to them.
type Filter interface {
	Where() (string, []any)
}

func ParseQuery(query string) (Filter, error) {
	q, err := parser.ParseString("", query)
	if err != nil {
		return nil, fmt.Errorf("error parsing query '%s': %w", query, err)
	}

	filter, err := q.ToFilter()
	if err != nil {
		return nil, fmt.Errorf("error converting query '%s' to filter: %w", query, err)
	}

	return filter, nil
}

type QueryExpr struct {
	Expr *Expr `@@`
}

func (q *QueryExpr) ToFilter() (Filter, error) {
	return q.Expr.ToFilter()
}

func (q *QueryExpr) String() string {
	return q.Expr.String()
}

type Expr struct {
	Ors []*OrExpr `@@ ( "OR" @@ )*`
}

func (e *Expr) ToFilter() (Filter, error) {
	if len(e.Ors) == 0 {
		return nil, fmt.Errorf("empty OR expression")
	}

	if len(e.Ors) == 1 {
		return e.Ors[0].ToFilter()
	}

	filters := make([]Filter, 0, len(e.Ors))
	for _, cond := range e.Ors {
		f, err := cond.ToFilter()
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}

	return &OrFilter{filters: filters}, nil
}

func (e *Expr) String() string {
	parts := make([]string, len(e.Ors))
	for i, o := range e.Ors {
		parts[i] = o.String()
	}
	return strings.Join(parts, " OR ")
}

type OrExpr struct {
	Ands []*Condition `@@ ( "AND" @@ )*`
}

func (o *OrExpr) ToFilter() (Filter, error) {
	if len(o.Ands) == 0 {
		return nil, fmt.Errorf("empty AND expression")
	}

	if len(o.Ands) == 1 {
		return o.Ands[0].ToFilter()
	}

	filters := make([]Filter, 0, len(o.Ands))
	for _, cond := range o.Ands {
		f, err := cond.ToFilter()
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}

	return &AndFilter{filters: filters}, nil
}

func (o *OrExpr) String() string {
	parts := make([]string, len(o.Ands))
	for i, a := range o.Ands {
		parts[i] = a.String()
	}
	return strings.Join(parts, " AND ")
}

type Condition struct {
	Not     bool        `@"NOT"?`
	Filter  *FilterExpr `( @@`
	SubExpr *Expr       `| "(" @@ ")" )`
}

func (c *Condition) ToFilter() (Filter, error) {
	var filter Filter
	var err error
	if c.Filter != nil {
		filter, err = c.Filter.ToFilter()
	} else if c.SubExpr != nil {
		filter, err = c.SubExpr.ToFilter()
	} else {
		err = fmt.Errorf("empty condition")
	}

	if err != nil {
		return nil, err
	}

	if c.Not {
		filter = &NotFilter{filter: filter}
	}

	return filter, nil
}

func (c *Condition) String() string {
	var out string
	if c.SubExpr != nil {
		out = fmt.Sprintf("(%s)", c.SubExpr.String())
	} else {
		out = c.Filter.String()
	}
	if c.Not {
		return "NOT " + out
	}
	return out
}

type FilterExpr struct {
	Field string `@Ident`
	Op    string `@("CONTAINS" | "<" | ">" | "=")`
	Value string `@String`
}

func (f *FilterExpr) ToFilter() (Filter, error) {
	column, ok := searchColumns[strings.ToLower(f.Field)]
	if !ok {
		return nil, fmt.Errorf("unknown field '%s', expected one of title, author, body, category", f.Field)
	}

	switch f.Op {
	case "CONTAINS":
		return &SubstringFilter{column: column, substr: f.Value}, nil
	case "<":
		return &StringLtFilter{column: column, value: f.Value}, nil
	case ">":
		return &StringGtFilter{column: column, value: f.Value}, nil
	case "=":
		return &StringEqFilter{column: column, value: f.Value}, nil
	default:
		return nil, fmt.Errorf("invalid operator %s", f.Op)
	}
}

func (f *FilterExpr) String() string {
	return fmt.Sprintf("%s %s %q", f.Field, f.Op, f.Value)
}

type AndFilter struct {
	filters []Filter
}

func (f *AndFilter) Where() (string, []any) {
	return join(f.filters, " AND ")
}

type OrFilter struct {
	filters []Filter
}

func (f *OrFilter) Where() (string, []any) {
	return join(f.filters, " OR ")
}

func join(filters []Filter, sep string) (string, []any) {
	clauses := make([]string, 0, len(filters))
	var args []any
	for _, filter := range filters {
		clause, fargs := filter.Where()
		clauses = append(clauses, "("+clause+")")
		args = append(args, fargs...)
	}
	return strings.Join(clauses, sep), args
}

type NotFilter struct {
	filter Filter
}

func (f *NotFilter) Where() (string, []any) {
	clause, args := f.filter.Where()
	return "NOT (" + clause + ")", args
}

type SubstringFilter struct {
	column string
	substr string
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (f *SubstringFilter) Where() (string, []any) {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(f.substr)) + "%"
	return fmt.Sprintf(`LOWER(%s) LIKE ? ESCAPE '\'`, f.column), []any{pattern}
}

type StringEqFilter struct {
	column string
	value  string
}

func (f *StringEqFilter) Where() (string, []any) {
	return fmt.Sprintf("LOWER(%s) = LOWER(?)", f.column), []any{f.value}
}

type StringLtFilter struct {
	column string
	value  string
}

func (f *StringLtFilter) Where() (string, []any) {
	return fmt.Sprintf("%s < ?", f.column), []any{f.value}
}

type StringGtFilter struct {
	column string
	value  string
}

func (f *StringGtFilter) Where() (string, []any) {
	return fmt.Sprintf("%s > ?", f.column), []any{f.value}
}
