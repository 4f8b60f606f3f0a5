package mem

import (
	"bytes"
	"iter"
	"sort"
	"sync"
	"time"

	"github.com/nickyhof/StructDB/core"
	"github.com/nickyhof/StructDB/db"
	"github.com/nickyhof/StructDB/sql"
)

// Backend is the volatile in-memory engine. It needs no connection
// description and keeps no state beyond process lifetime. Mutations on a
// table are serialized by that table's lock: one writer at a time per
// table, readers sharing.
type Backend struct {
	mu     sync.RWMutex // guards the table map itself
	tables map[string]*table
}

type table struct {
	mu     sync.RWMutex
	desc   *core.Table
	rows   map[int64]db.Row
	nextID int64
}

// New returns an empty volatile backend.
func New() *Backend {
	return &Backend{tables: make(map[string]*table)}
}

func (b *Backend) CreateTable(desc *core.Table) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.tables[desc.Name]; ok {
		return &core.SchemaError{Table: desc.Name, Reason: "table already exists"}
	}
	b.tables[desc.Name] = &table{desc: desc, rows: make(map[int64]db.Row)}
	return nil
}

func (b *Backend) DropTable(desc *core.Table, ifExists bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.tables[desc.Name]; !ok {
		if ifExists {
			return nil
		}
		return &core.SchemaError{Table: desc.Name, Reason: "table does not exist"}
	}
	delete(b.tables, desc.Name)
	return nil
}

func (b *Backend) Insert(stmt *sql.Statement) (int64, error) {
	t, err := b.table(stmt.Table.Name)
	if err != nil {
		return 0, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	row := make(db.Row, len(stmt.Columns)+1)
	for i, col := range stmt.Columns {
		row[col] = stmt.Values[i]
	}

	// An explicit identity value (restores) is honored; otherwise the
	// backend assigns the next key.
	idCol := t.desc.Identity().Name
	key, ok := explicitKey(row, idCol)
	if !ok {
		t.nextID++
		key = t.nextID
	} else if key > t.nextID {
		t.nextID = key
	}
	row[idCol] = key

	t.rows[key] = row
	return key, nil
}

func (b *Backend) Update(stmt *sql.Statement) (int64, error) {
	t, err := b.table(stmt.Table.Name)
	if err != nil {
		return 0, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var affected int64
	for _, row := range t.rows {
		if !matches(row, stmt.Filters) {
			continue
		}
		for i, col := range stmt.Columns {
			row[col] = stmt.Values[i]
		}
		affected++
	}
	return affected, nil
}

func (b *Backend) Delete(stmt *sql.Statement) (int64, error) {
	t, err := b.table(stmt.Table.Name)
	if err != nil {
		return 0, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var affected int64
	for key, row := range t.rows {
		if matches(row, stmt.Filters) {
			delete(t.rows, key)
			affected++
		}
	}
	return affected, nil
}

func (b *Backend) Select(stmt *sql.Statement) iter.Seq2[db.Row, error] {
	t, err := b.table(stmt.Table.Name)
	if err != nil {
		return db.YieldError(err)
	}

	// Snapshot matching keys under the read lock, then stream copies so a
	// slow consumer never holds the table lock.
	t.mu.RLock()
	keys := make([]int64, 0, len(t.rows))
	for key, row := range t.rows {
		if matches(row, stmt.Filters) {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	matched := make([]db.Row, 0, len(keys))
	for _, key := range keys {
		matched = append(matched, copyRow(t.rows[key]))
	}
	t.mu.RUnlock()

	return func(yield func(db.Row, error) bool) {
		for _, row := range matched {
			if !yield(row, nil) {
				return
			}
		}
	}
}

func (b *Backend) Tables() ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.tables))
	for name := range b.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (b *Backend) table(name string) (*table, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	t, ok := b.tables[name]
	if !ok {
		return nil, &core.SchemaError{Table: name, Reason: "table does not exist"}
	}
	return t, nil
}

func explicitKey(row db.Row, idCol string) (int64, bool) {
	raw, ok := row[idCol]
	if !ok || raw == nil {
		return 0, false
	}
	key, err := db.Coerce(core.IntKind, raw)
	if err != nil {
		return 0, false
	}
	return key.(int64), true
}

func matches(row db.Row, filters []sql.Filter) bool {
	for _, f := range filters {
		if !sameValue(row[f.Column], f.Value) {
			return false
		}
	}
	return true
}

func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	case []byte:
		bv, ok := b.([]byte)
		return ok && bytes.Equal(av, bv)
	default:
		return a == b
	}
}

func copyRow(row db.Row) db.Row {
	out := make(db.Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}
