package sql

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/nickyhof/StructDB/core"
)

// StatementKind identifies a generated CRUD statement.
type StatementKind int

const (
	InsertStatement StatementKind = iota
	UpdateStatement
	DeleteStatement
	SelectMatching
	SelectByKey
)

// Filter is one equality predicate. Predicates combine with conjunction
// only, in column declaration order.
type Filter struct {
	Column string
	Value  any
}

// Statement is a transient description of one CRUD operation. Structural
// backends (memory, proxy) interpret it directly; SQL backends render it
// with a Dialect. Statements are produced fresh per call and carry no
// persistent identity.
type Statement struct {
	Kind    StatementKind
	Table   *core.Table
	Columns []string // bound value columns, declaration order
	Values  []any    // one value per column
	Filters []Filter
}

// Builder turns record instances into statements using the descriptors of
// an injected registry.
type Builder struct {
	reg *core.Registry
}

// NewBuilder returns a builder over the given registry.
func NewBuilder(reg *core.Registry) *Builder {
	return &Builder{reg: reg}
}

// Registry exposes the descriptor registry the builder consults.
func (b *Builder) Registry() *core.Registry { return b.reg }

// Insert binds every non-identity field of the record. The identity column
// is omitted; the backend assigns and returns it. An unset reference binds
// NULL when its column is nullable and is a validation error otherwise.
func (b *Builder) Insert(rec any) (*Statement, error) {
	table, v, err := b.reg.DescribeValue(rec)
	if err != nil {
		return nil, err
	}

	stmt := &Statement{Kind: InsertStatement, Table: table}
	for _, col := range table.Columns {
		if col.PrimaryKey {
			continue
		}
		val, err := bindValue(table, col, v)
		if err != nil {
			return nil, err
		}
		stmt.Columns = append(stmt.Columns, col.Name)
		stmt.Values = append(stmt.Values, val)
	}
	return stmt, nil
}

// Update binds all non-identity fields unconditionally (full overwrite) with
// the identity as the sole predicate. The identity must be set.
func (b *Builder) Update(rec any) (*Statement, error) {
	table, v, err := b.reg.DescribeValue(rec)
	if err != nil {
		return nil, err
	}
	key, err := identityValue(table, v, "update")
	if err != nil {
		return nil, err
	}

	stmt := &Statement{Kind: UpdateStatement, Table: table}
	for _, col := range table.Columns {
		if col.PrimaryKey {
			continue
		}
		val, err := bindValue(table, col, v)
		if err != nil {
			return nil, err
		}
		stmt.Columns = append(stmt.Columns, col.Name)
		stmt.Values = append(stmt.Values, val)
	}
	stmt.Filters = []Filter{{Column: table.Identity().Name, Value: key}}
	return stmt, nil
}

// Delete matches solely on the identity, which must be set.
func (b *Builder) Delete(rec any) (*Statement, error) {
	table, v, err := b.reg.DescribeValue(rec)
	if err != nil {
		return nil, err
	}
	key, err := identityValue(table, v, "delete")
	if err != nil {
		return nil, err
	}
	return &Statement{
		Kind:    DeleteStatement,
		Table:   table,
		Filters: []Filter{{Column: table.Identity().Name, Value: key}},
	}, nil
}

// Match builds a query-by-example select: every field that is not at its
// type's default contributes one equality predicate, in declaration order.
// Fields at their default do not constrain the search at all. An instance
// with every field at default selects all rows; that is the intended way to
// express "select all", not an error.
func (b *Builder) Match(rec any) (*Statement, error) {
	table, v, err := b.reg.DescribeValue(rec)
	if err != nil {
		return nil, err
	}

	stmt := &Statement{Kind: SelectMatching, Table: table}
	for _, col := range table.Columns {
		field := v.Field(col.Field)
		if isDefault(col, field) {
			continue
		}
		val, err := bindValue(table, col, v)
		if err != nil {
			return nil, err
		}
		stmt.Filters = append(stmt.Filters, Filter{Column: col.Name, Value: val})
	}
	return stmt, nil
}

// ByKey builds a select with a single predicate on the identity column.
func (b *Builder) ByKey(t reflect.Type, key int64) (*Statement, error) {
	table, err := b.reg.Describe(t)
	if err != nil {
		return nil, err
	}
	return &Statement{
		Kind:    SelectByKey,
		Table:   table,
		Filters: []Filter{{Column: table.Identity().Name, Value: key}},
	}, nil
}

// identityValue reads the identity field and rejects the unset sentinel.
func identityValue(table *core.Table, v reflect.Value, op string) (int64, error) {
	id := table.Identity()
	field := v.Field(id.Field)
	var key int64
	if field.CanUint() {
		key = int64(field.Uint())
	} else {
		key = field.Int()
	}
	if key == 0 {
		return 0, &core.ValidationError{Table: table.Name, Reason: op + " requires a set identity field"}
	}
	return key, nil
}

// bindValue extracts a column's bound value from the record. Reference
// columns bind the raw key; an unset reference binds NULL when nullable.
func bindValue(table *core.Table, col core.Column, v reflect.Value) (any, error) {
	field := v.Field(col.Field)

	if col.Kind == core.RefKind {
		ref := field.Addr().Interface().(core.RefValue)
		if !ref.IsSet() {
			if col.Nullable {
				return nil, nil
			}
			return nil, &core.ValidationError{
				Table:  table.Name,
				Reason: "required reference " + col.Name + " is unset",
			}
		}
		return ref.Key(), nil
	}

	switch col.Kind {
	case core.IntKind:
		if field.CanUint() {
			return int64(field.Uint()), nil
		}
		return field.Int(), nil
	case core.FloatKind:
		return field.Float(), nil
	case core.TextKind:
		return field.String(), nil
	case core.BoolKind:
		return field.Bool(), nil
	case core.TimeKind:
		return field.Interface().(time.Time), nil
	case core.BytesKind:
		return field.Bytes(), nil
	default:
		return nil, &core.DefinitionError{Type: table.Name, Reason: "column " + col.Name + " has unknown kind"}
	}
}

// isDefault reports whether a field holds its kind's default value: 0 for
// numbers, empty for text and bytes, false for booleans, the zero time, and
// the unset reference. A field explicitly set to this value is
// indistinguishable from one that was never set; callers rely on defaults
// broadening the match.
func isDefault(col core.Column, field reflect.Value) bool {
	switch col.Kind {
	case core.RefKind:
		return !field.Addr().Interface().(core.RefValue).IsSet()
	case core.TimeKind:
		return field.Interface().(time.Time).IsZero()
	case core.BytesKind:
		return field.Len() == 0
	default:
		return field.IsZero()
	}
}

// SQL renders the statement as parameterized text plus positional arguments
// for the given dialect.
func (s *Statement) SQL(d Dialect) (string, []any, error) {
	switch s.Kind {
	case InsertStatement:
		return s.renderInsert(d)
	case UpdateStatement:
		return s.renderUpdate(d)
	case DeleteStatement:
		return s.renderDelete(d)
	case SelectMatching, SelectByKey:
		return s.renderSelect(d)
	default:
		return "", nil, fmt.Errorf("unsupported statement kind: %v", s.Kind)
	}
}

func (s *Statement) renderInsert(d Dialect) (string, []any, error) {
	cols := make([]string, len(s.Columns))
	marks := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		cols[i] = d.Quote(c)
		marks[i] = d.Placeholder(i + 1)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.Quote(s.Table.Name), strings.Join(cols, ", "), strings.Join(marks, ", "))
	if d.ReturningInsert() {
		query += " RETURNING " + d.Quote(s.Table.Identity().Name)
	}
	return query, append([]any(nil), s.Values...), nil
}

func (s *Statement) renderUpdate(d Dialect) (string, []any, error) {
	sets := make([]string, len(s.Columns))
	args := make([]any, 0, len(s.Values)+len(s.Filters))
	n := 0
	for i, c := range s.Columns {
		n++
		sets[i] = d.Quote(c) + " = " + d.Placeholder(n)
		args = append(args, s.Values[i])
	}

	where, args, _ := s.renderWhere(d, args, n)
	query := fmt.Sprintf("UPDATE %s SET %s%s", d.Quote(s.Table.Name), strings.Join(sets, ", "), where)
	return query, args, nil
}

func (s *Statement) renderDelete(d Dialect) (string, []any, error) {
	where, args, _ := s.renderWhere(d, nil, 0)
	return "DELETE FROM " + d.Quote(s.Table.Name) + where, args, nil
}

func (s *Statement) renderSelect(d Dialect) (string, []any, error) {
	cols := make([]string, len(s.Table.Columns))
	for i, c := range s.Table.Columns {
		cols[i] = d.Quote(c.Name)
	}

	where, args, _ := s.renderWhere(d, nil, 0)
	query := fmt.Sprintf("SELECT %s FROM %s%s", strings.Join(cols, ", "), d.Quote(s.Table.Name), where)
	return query, args, nil
}

func (s *Statement) renderWhere(d Dialect, args []any, n int) (string, []any, int) {
	if len(s.Filters) == 0 {
		return "", args, n
	}

	preds := make([]string, len(s.Filters))
	for i, f := range s.Filters {
		n++
		if f.Value == nil {
			preds[i] = d.Quote(f.Column) + " IS NULL"
			n--
			continue
		}
		preds[i] = d.Quote(f.Column) + " = " + d.Placeholder(n)
		args = append(args, f.Value)
	}
	return " WHERE " + strings.Join(preds, " AND "), args, n
}
