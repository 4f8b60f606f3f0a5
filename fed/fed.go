package fed

import (
	"fmt"
	"iter"
	"sort"
	"sync"

	"github.com/nickyhof/StructDB/core"
	"github.com/nickyhof/StructDB/db"
	"github.com/nickyhof/StructDB/sql"
)

// Backend federates several constituent backends into one: every table is
// owned by exactly one constituent and all operations route to the owner.
//
// No cross-backend transactions are attempted. An operation sequence that
// spans tables owned by different constituents is not atomic across them;
// a failure midway leaves the earlier constituent's writes in place.
type Backend struct {
	backends []db.Backend

	mu     sync.RWMutex
	routes map[string]db.Backend
}

// New composes the given backends. Each constituent is asked which tables it
// already holds; a table claimed by more than one constituent makes the
// composition ambiguous and construction fails with a ConfigurationError.
func New(backends ...db.Backend) (*Backend, error) {
	if len(backends) == 0 {
		return nil, &core.ConfigurationError{Reason: "federated backend needs at least one constituent"}
	}

	routes := make(map[string]db.Backend)
	for i, b := range backends {
		tables, err := b.Tables()
		if err != nil {
			return nil, &core.BackendError{Op: "tables", Table: "", Err: err}
		}
		for _, name := range tables {
			if _, ok := routes[name]; ok {
				return nil, &core.ConfigurationError{
					Reason: fmt.Sprintf("table %s is claimed by more than one constituent (constituent %d)", name, i),
				}
			}
			routes[name] = b
		}
	}

	return &Backend{backends: backends, routes: routes}, nil
}

// Owner returns the constituent that owns the named table.
func (b *Backend) Owner(table string) (db.Backend, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	owner, ok := b.routes[table]
	return owner, ok
}

// CreateTable routes to the existing owner, or assigns the table to the
// first constituent and records the new route.
func (b *Backend) CreateTable(desc *core.Table) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	owner, ok := b.routes[desc.Name]
	if !ok {
		owner = b.backends[0]
	}
	if err := owner.CreateTable(desc); err != nil {
		return err
	}
	b.routes[desc.Name] = owner
	return nil
}

func (b *Backend) DropTable(desc *core.Table, ifExists bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	owner, ok := b.routes[desc.Name]
	if !ok {
		if ifExists {
			return nil
		}
		return &core.SchemaError{Table: desc.Name, Reason: "table does not exist"}
	}
	if err := owner.DropTable(desc, ifExists); err != nil {
		return err
	}
	delete(b.routes, desc.Name)
	return nil
}

func (b *Backend) Insert(stmt *sql.Statement) (int64, error) {
	owner, err := b.route(stmt.Table.Name)
	if err != nil {
		return 0, err
	}
	return owner.Insert(stmt)
}

func (b *Backend) Update(stmt *sql.Statement) (int64, error) {
	owner, err := b.route(stmt.Table.Name)
	if err != nil {
		return 0, err
	}
	return owner.Update(stmt)
}

func (b *Backend) Delete(stmt *sql.Statement) (int64, error) {
	owner, err := b.route(stmt.Table.Name)
	if err != nil {
		return 0, err
	}
	return owner.Delete(stmt)
}

func (b *Backend) Select(stmt *sql.Statement) iter.Seq2[db.Row, error] {
	owner, err := b.route(stmt.Table.Name)
	if err != nil {
		return db.YieldError(err)
	}
	return owner.Select(stmt)
}

func (b *Backend) Tables() ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.routes))
	for name := range b.routes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (b *Backend) route(table string) (db.Backend, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	owner, ok := b.routes[table]
	if !ok {
		return nil, &core.SchemaError{Table: table, Reason: "no constituent owns this table"}
	}
	return owner, nil
}
