package store

import (
	"strings"

	"github.com/jmoiron/sqlx"
)

// Query composes a base statement with an ordered list of optional WHERE
// clauses. Clauses use "?" for parameters and Build rebinds them to $n in
// the order they were added, so the SQL text and the argument list never
// drift. Clauses must not contain a literal question mark.
type Query struct {
	base    string
	clauses []string
	args    []any
	suffix  string
	tail    []any
}

// NewQuery starts a query from its SELECT ... FROM ... part.
func NewQuery(base string, args ...any) *Query {
	return &Query{base: base, args: append([]any(nil), args...)}
}

// Where appends a clause joined with AND.
func (q *Query) Where(clause string, args ...any) *Query {
	q.clauses = append(q.clauses, clause)
	q.args = append(q.args, args...)
	return q
}

// Suffix sets trailing SQL such as ORDER BY.
func (q *Query) Suffix(s string, args ...any) *Query {
	q.suffix = s
	q.tail = append([]any(nil), args...)
	return q
}

// Build returns the Postgres SQL text and its positional arguments.
func (q *Query) Build() (string, []any) {
	var b strings.Builder
	b.WriteString(q.base)
	if len(q.clauses) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(q.clauses, " AND "))
	}
	if q.suffix != "" {
		b.WriteString(" ")
		b.WriteString(q.suffix)
	}
	args := append(append([]any(nil), q.args...), q.tail...)
	return sqlx.Rebind(sqlx.DOLLAR, b.String()), args
}
