package builder

import (
	"fmt"
	"strings"
)

// SQLBuilder helps construct Postgres queries dynamically. Conditions are
// written with "?" placeholders and numbered ($1, $2, ...) on Build.
type SQLBuilder struct {
	table   string
	columns []string
	rows    [][]interface{}
	where   []string
	args    []interface{}
	orderBy []string
	limit   int
	offset  int

	conflictTarget []string
	conflictUpdate []string

	isInsert bool
	isSelect bool
}

// NewSQLBuilder creates a new instance of SQLBuilder.
func NewSQLBuilder() *SQLBuilder {
	return &SQLBuilder{}
}

// Select specifies the columns to retrieve.
func (b *SQLBuilder) Select(cols ...string) *SQLBuilder {
	b.isSelect = true
	b.columns = cols
	return b
}

// From specifies the table to select from.
func (b *SQLBuilder) From(table string) *SQLBuilder {
	b.table = table
	return b
}

// Insert specifies the table and columns for insertion.
func (b *SQLBuilder) Insert(table string, cols ...string) *SQLBuilder {
	b.isInsert = true
	b.table = table
	b.columns = cols
	return b
}

// Values adds one row of values. Call it repeatedly for a multi-row insert.
func (b *SQLBuilder) Values(vals ...interface{}) *SQLBuilder {
	b.rows = append(b.rows, vals)
	return b
}

// OnConflict sets the conflict target of an insert.
func (b *SQLBuilder) OnConflict(cols ...string) *SQLBuilder {
	b.conflictTarget = cols
	return b
}

// DoUpdate overwrites cols with the incoming row on conflict.
func (b *SQLBuilder) DoUpdate(cols ...string) *SQLBuilder {
	b.conflictUpdate = cols
	return b
}

// Where adds a condition; conditions are joined with AND.
func (b *SQLBuilder) Where(condition string, args ...interface{}) *SQLBuilder {
	b.where = append(b.where, condition)
	b.args = append(b.args, args...)
	return b
}

// WhereIf adds the condition only when ok is true.
func (b *SQLBuilder) WhereIf(ok bool, condition string, args ...interface{}) *SQLBuilder {
	if !ok {
		return b
	}
	return b.Where(condition, args...)
}

// OrderBy adds an ORDER BY clause.
func (b *SQLBuilder) OrderBy(order string) *SQLBuilder {
	b.orderBy = append(b.orderBy, order)
	return b
}

// Limit adds a LIMIT clause.
func (b *SQLBuilder) Limit(limit int) *SQLBuilder {
	b.limit = limit
	return b
}

// Offset adds an OFFSET clause.
func (b *SQLBuilder) Offset(offset int) *SQLBuilder {
	b.offset = offset
	return b
}

// BuildSafe is Build plus a check that every row of an insert has one value
// per column and that placeholders and arguments line up.
func (b *SQLBuilder) BuildSafe() (string, []interface{}, error) {
	if b.isInsert {
		if len(b.rows) == 0 {
			return "", nil, fmt.Errorf("insert into %s has no rows", b.table)
		}
		for i, row := range b.rows {
			if len(row) != len(b.columns) {
				return "", nil, fmt.Errorf("row %d has %d values for %d columns", i+1, len(row), len(b.columns))
			}
		}
	}

	sql, args := b.Build()
	if n := strings.Count(sql, "$"); n != len(args) {
		return "", nil, fmt.Errorf("placeholder count (%d) does not match argument count (%d)", n, len(args))
	}
	return sql, args, nil
}

// Build constructs the final SQL string and arguments.
func (b *SQLBuilder) Build() (string, []interface{}) {
	if b.isInsert {
		return b.buildInsert()
	}

	var sb strings.Builder
	if b.isSelect {
		sb.WriteString("SELECT ")
		sb.WriteString(strings.Join(b.columns, ", "))
		sb.WriteString(" FROM ")
		sb.WriteString(b.table)
	}

	if len(b.where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(rebind(strings.Join(b.where, " AND "), 1))
	}

	if len(b.orderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(b.orderBy, ", "))
	}

	if b.limit > 0 {
		sb.WriteString(fmt.Sprintf(" LIMIT %d", b.limit))
	}

	if b.offset > 0 {
		sb.WriteString(fmt.Sprintf(" OFFSET %d", b.offset))
	}

	return sb.String(), b.args
}

func (b *SQLBuilder) buildInsert() (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(b.table)
	sb.WriteString(" (")
	sb.WriteString(strings.Join(b.columns, ", "))
	sb.WriteString(") VALUES ")

	var args []interface{}
	tuples := make([]string, len(b.rows))
	for i, row := range b.rows {
		placeholders := make([]string, len(row))
		for j := range row {
			placeholders[j] = fmt.Sprintf("$%d", len(args)+j+1)
		}
		args = append(args, row...)
		tuples[i] = "(" + strings.Join(placeholders, ", ") + ")"
	}
	sb.WriteString(strings.Join(tuples, ", "))

	if len(b.conflictTarget) > 0 {
		sb.WriteString(" ON CONFLICT (")
		sb.WriteString(strings.Join(b.conflictTarget, ", "))
		sb.WriteString(")")
		if len(b.conflictUpdate) == 0 {
			sb.WriteString(" DO NOTHING")
			return sb.String(), args
		}
		sets := make([]string, len(b.conflictUpdate))
		for i, col := range b.conflictUpdate {
			sets[i] = fmt.Sprintf("%s = EXCLUDED.%s", col, col)
		}
		sb.WriteString(" DO UPDATE SET ")
		sb.WriteString(strings.Join(sets, ", "))
	}
	return sb.String(), args
}

// rebind numbers each "?" in clause starting at first.
func rebind(clause string, first int) string {
	var sb strings.Builder
	parts := strings.Split(clause, "?")
	for i, part := range parts {
		sb.WriteString(part)
		if i < len(parts)-1 {
			sb.WriteString(fmt.Sprintf("$%d", first+i))
		}
	}
	return sb.String()
}
