package db

import "fmt"

// Query accumulates a filtered, paginated SELECT with positional arguments.
type Query struct {
	table   string
	cols    string
	where   string
	args    []interface{}
	orderBy string
}

// NewQuery creates a Query selecting cols from table.
func NewQuery(table, cols string) *Query {
	return &Query{table: table, cols: cols}
}

// Idx returns the next positional parameter index.
func (q *Query) Idx() int { return len(q.args) + 1 }

// Add appends a raw WHERE fragment (without leading "AND") whose
// placeholders start at Idx().
func (q *Query) Add(clause string, args ...interface{}) {
	q.where += " AND " + clause
	q.args = append(q.args, args...)
}

// Eq adds "column = value".
func (q *Query) Eq(column string, value interface{}) {
	q.Cmp(column, "=", value)
}

// Cmp adds "column op value" for a fixed comparison operator.
func (q *Query) Cmp(column, op string, value interface{}) {
	switch op {
	case "=", "<>", "<", "<=", ">", ">=":
	default:
		panic(fmt.Sprintf("db: unsupported operator %q", op))
	}
	q.Add(fmt.Sprintf("%s %s $%d", column, op, q.Idx()), value)
}

func (q *Query) OrderBy(orderBy string) {
	q.orderBy = orderBy
}

// CountSQL returns the count query SQL.
func (q *Query) CountSQL() string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE 1=1%s", q.table, q.where)
}

// Args returns the filter arguments.
func (q *Query) Args() []interface{} {
	return q.args
}

// SelectSQL returns the unpaginated data query.
func (q *Query) SelectSQL() string {
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE 1=1%s", q.cols, q.table, q.where)
	if q.orderBy != "" {
		sql += " ORDER BY " + q.orderBy
	}
	return sql
}

// DataSQL returns the data query with LIMIT and OFFSET placeholders.
func (q *Query) DataSQL() string {
	return q.SelectSQL() + fmt.Sprintf(" LIMIT $%d OFFSET $%d", q.Idx(), q.Idx()+1)
}

// DataArgs returns the filter arguments followed by limit and offset.
func (q *Query) DataArgs(limit, offset int) []interface{} {
	result := make([]interface{}, len(q.args)+2)
	copy(result, q.args)
	result[len(q.args)] = limit
	result[len(q.args)+1] = offset
	return result
}
