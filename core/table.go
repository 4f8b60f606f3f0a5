package core

// Kind identifies the storage type of a column.
type Kind int

const (
	IntKind Kind = iota
	FloatKind
	TextKind
	BoolKind
	TimeKind
	BytesKind
	RefKind
)

func (k Kind) String() string {
	switch k {
	case IntKind:
		return "INT"
	case FloatKind:
		return "FLOAT"
	case TextKind:
		return "TEXT"
	case BoolKind:
		return "BOOL"
	case TimeKind:
		return "TIME"
	case BytesKind:
		return "BYTES"
	case RefKind:
		return "REF"
	default:
		return "UNKNOWN"
	}
}

// Column describes one column of a mapped table. Field is the index of the
// Go struct field backing the column.
type Column struct {
	Name       string `json:"name"`
	Kind       Kind   `json:"kind"`
	Nullable   bool   `json:"nullable"`
	PrimaryKey bool   `json:"primaryKey"`
	RefTable   string `json:"refTable,omitempty"`  // RefKind only: target table
	RefColumn  string `json:"refColumn,omitempty"` // RefKind only: target identity column
	Field      int    `json:"-"`
}

// Table is the canonical descriptor derived from a record type. Columns keep
// struct declaration order; that order is preserved in generated DDL and in
// positional parameter binding.
type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// Identity returns the primary key column. Descriptors produced by a Registry
// always have exactly one.
func (t *Table) Identity() *Column {
	for i := range t.Columns {
		if t.Columns[i].PrimaryKey {
			return &t.Columns[i]
		}
	}
	return nil
}

// Column returns the named column, or nil.
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// Refs returns the reference columns in declaration order.
func (t *Table) Refs() []Column {
	var refs []Column
	for _, c := range t.Columns {
		if c.Kind == RefKind {
			refs = append(refs, c)
		}
	}
	return refs
}
