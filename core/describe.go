package core

import (
	"reflect"
	"strings"
	"sync"
	"time"
)

// TableNamer overrides the table name derived from a record type's name.
type TableNamer interface {
	TableName() string
}

var (
	refValueType   = reflect.TypeFor[RefValue]()
	tableNamerType = reflect.TypeFor[TableNamer]()
	timeType       = reflect.TypeFor[time.Time]()
	bytesType      = reflect.TypeFor[[]byte]()
)

// Registry derives and caches table descriptors. Descriptors are immutable
// once published; concurrent first use of the same type may compute the
// descriptor more than once, but every caller observes a complete,
// identical result.
type Registry struct {
	mu     sync.RWMutex
	tables map[reflect.Type]*Table
}

// NewRegistry returns an empty descriptor registry.
func NewRegistry() *Registry {
	return &Registry{tables: make(map[reflect.Type]*Table)}
}

// Describe returns the descriptor for a record type, deriving it on first
// use. Pointer types are dereferenced. Repeated calls for the same type
// return descriptors with identical field order, identity field and
// reference set.
func (r *Registry) Describe(t reflect.Type) (*Table, error) {
	t = deref(t)

	r.mu.RLock()
	table, ok := r.tables[t]
	r.mu.RUnlock()
	if ok {
		return table, nil
	}

	table, err := describe(t)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, ok := r.tables[t]; ok {
		return cached, nil
	}
	r.tables[t] = table
	return table, nil
}

// DescribeValue resolves the descriptor for a record instance and returns
// the addressable struct value alongside it.
func (r *Registry) DescribeValue(rec any) (*Table, reflect.Value, error) {
	v := reflect.ValueOf(rec)
	for v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, reflect.Value{}, &DefinitionError{Type: typeName(v.Type()), Reason: "record must be a struct"}
	}
	// Records passed by value are copied into an addressable location so
	// reference fields can be read through their pointer-receiver methods.
	if !v.CanAddr() {
		p := reflect.New(v.Type())
		p.Elem().Set(v)
		v = p.Elem()
	}
	table, err := r.Describe(v.Type())
	if err != nil {
		return nil, reflect.Value{}, err
	}
	return table, v, nil
}

func deref(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func typeName(t reflect.Type) string {
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

// tableName derives the table name for a record type: the TableName method
// when implemented, otherwise the lowercased type name.
func tableName(t reflect.Type) (string, error) {
	t = deref(t)
	if t.Kind() != reflect.Struct {
		return "", &DefinitionError{Type: typeName(t), Reason: "record must be a struct"}
	}
	if t.Implements(tableNamerType) {
		return reflect.New(t).Elem().Interface().(TableNamer).TableName(), nil
	}
	if reflect.PointerTo(t).Implements(tableNamerType) {
		return reflect.New(t).Interface().(TableNamer).TableName(), nil
	}
	return strings.ToLower(t.Name()), nil
}

// describe derives a full descriptor. Reference fields are typed by the
// target's identity column only; the target's own descriptor is never
// computed here, so self-referencing and mutually-referencing types cannot
// recurse.
func describe(t reflect.Type) (*Table, error) {
	if t.Kind() != reflect.Struct {
		return nil, &DefinitionError{Type: typeName(t), Reason: "record must be a struct"}
	}

	name, err := tableName(t)
	if err != nil {
		return nil, err
	}

	table := &Table{Name: name}
	identity, err := identityField(t)
	if err != nil {
		return nil, err
	}

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		colName, opts, skip := parseTag(f)
		if skip || !f.IsExported() {
			continue
		}

		col := Column{Name: colName, Nullable: opts.nullable, Field: i}

		switch {
		case i == identity:
			col.Kind = IntKind
			col.PrimaryKey = true
		case isRefField(f.Type):
			target := refTargetOf(f.Type)
			targetTable, err := tableName(target)
			if err != nil {
				return nil, err
			}
			targetID, err := identityField(deref(target))
			if err != nil {
				return nil, err
			}
			idName, _, _ := parseTag(deref(target).Field(targetID))
			col.Kind = RefKind
			col.RefTable = targetTable
			col.RefColumn = idName
		default:
			kind, ok := scalarKind(f.Type)
			if !ok {
				return nil, &DefinitionError{
					Type:   typeName(t),
					Reason: "field " + f.Name + " has unsupported type " + f.Type.String(),
				}
			}
			col.Kind = kind
		}

		table.Columns = append(table.Columns, col)
	}

	return table, nil
}

type tagOpts struct {
	pk       bool
	nullable bool
}

// parseTag reads the `db` struct tag: `db:"name"`, `db:",pk"`,
// `db:"author,nullable"`, `db:"-"`. An empty name falls back to the
// lowercased field name.
func parseTag(f reflect.StructField) (name string, opts tagOpts, skip bool) {
	tag := f.Tag.Get("db")
	if tag == "-" {
		return "", tagOpts{}, true
	}

	parts := strings.Split(tag, ",")
	name = parts[0]
	if name == "" {
		name = strings.ToLower(f.Name)
	}
	for _, opt := range parts[1:] {
		switch opt {
		case "pk":
			opts.pk = true
		case "nullable":
			opts.nullable = true
		}
	}
	return name, opts, false
}

// identityField locates the single identity field: a field tagged `pk`, or
// failing that an integer field named ID. Zero and multiple candidates are
// distinct definition errors.
func identityField(t reflect.Type) (int, error) {
	tagged := -1
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		_, opts, skip := parseTag(f)
		if skip || !opts.pk {
			continue
		}
		if !isIntType(f.Type) {
			return -1, &DefinitionError{Type: typeName(t), Reason: "identity field " + f.Name + " must be an integer"}
		}
		if tagged >= 0 {
			return -1, &DefinitionError{Type: typeName(t), Reason: "multiple identity fields"}
		}
		tagged = i
	}
	if tagged >= 0 {
		return tagged, nil
	}

	if f, ok := t.FieldByName("ID"); ok && len(f.Index) == 1 && isIntType(f.Type) {
		return f.Index[0], nil
	}
	return -1, &DefinitionError{Type: typeName(t), Reason: "no identity field"}
}

func isIntType(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return true
	}
	return false
}

func isRefField(t reflect.Type) bool {
	return reflect.PointerTo(t).Implements(refValueType)
}

func refTargetOf(t reflect.Type) reflect.Type {
	return reflect.New(t).Interface().(RefValue).refTarget()
}

func scalarKind(t reflect.Type) (Kind, bool) {
	if t == timeType {
		return TimeKind, true
	}
	if t == bytesType {
		return BytesKind, true
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return IntKind, true
	case reflect.Float32, reflect.Float64:
		return FloatKind, true
	case reflect.String:
		return TextKind, true
	case reflect.Bool:
		return BoolKind, true
	}
	return 0, false
}
