package StructDB

import (
	"iter"
	"reflect"
	"slices"

	"github.com/nickyhof/StructDB/core"
	"github.com/nickyhof/StructDB/db"
	"github.com/nickyhof/StructDB/sql"
)

// Store binds a storage backend to a descriptor registry and is the entry
// point for typed operations. A Store is safe for concurrent use; it also
// serves as the resolver behind every Ref it hands out.
type Store struct {
	backend db.Backend
	builder *sql.Builder
}

// Open wraps a backend in a store with a fresh registry.
func Open(backend db.Backend) *Store {
	return &Store{
		backend: backend,
		builder: sql.NewBuilder(core.NewRegistry()),
	}
}

// Backend returns the underlying storage backend.
func (s *Store) Backend() db.Backend { return s.backend }

// Registry returns the store's descriptor registry.
func (s *Store) Registry() *core.Registry { return s.builder.Registry() }

// ResolveKey implements core.Resolver: it loads the record with the given
// key from whichever backend the store wraps (for a federated backend,
// routing picks the owning constituent).
func (s *Store) ResolveKey(table string, key int64, dest any) (bool, error) {
	desc, _, err := s.Registry().DescribeValue(dest)
	if err != nil {
		return false, err
	}

	stmt := &sql.Statement{
		Kind:    sql.SelectByKey,
		Table:   desc,
		Filters: []sql.Filter{{Column: desc.Identity().Name, Value: key}},
	}
	for row, err := range s.backend.Select(stmt) {
		if err != nil {
			return false, err
		}
		return true, db.Scan(row, desc, dest, s)
	}
	return false, nil
}

// CreateTable materializes the table mapped from T in the store's backend.
func CreateTable[T any](s *Store) error {
	desc, err := s.Registry().Describe(reflect.TypeFor[T]())
	if err != nil {
		return err
	}
	return s.backend.CreateTable(desc)
}

// CreateTableIfMissing materializes T's table unless the backend already
// has a table with its name.
func CreateTableIfMissing[T any](s *Store) error {
	desc, err := s.Registry().Describe(reflect.TypeFor[T]())
	if err != nil {
		return err
	}
	existing, err := s.backend.Tables()
	if err != nil {
		return err
	}
	if slices.Contains(existing, desc.Name) {
		return nil
	}
	return s.backend.CreateTable(desc)
}

// DropTable removes T's table. Dropping a missing table is a SchemaError.
func DropTable[T any](s *Store) error {
	return dropTable[T](s, false)
}

// DropTableIfExists removes T's table, succeeding when it is already gone.
func DropTableIfExists[T any](s *Store) error {
	return dropTable[T](s, true)
}

func dropTable[T any](s *Store, ifExists bool) error {
	desc, err := s.Registry().Describe(reflect.TypeFor[T]())
	if err != nil {
		return err
	}
	return s.backend.DropTable(desc, ifExists)
}

// Insert writes a record and stores the assigned identity key back into it.
func Insert[T any](s *Store, rec *T) (int64, error) {
	stmt, err := s.builder.Insert(rec)
	if err != nil {
		return 0, err
	}
	key, err := s.backend.Insert(stmt)
	if err != nil {
		return 0, err
	}

	id := stmt.Table.Identity()
	field := reflect.ValueOf(rec).Elem().Field(id.Field)
	if field.CanUint() {
		field.SetUint(uint64(key))
	} else {
		field.SetInt(key)
	}
	return key, nil
}

// Update overwrites the stored record matching rec's identity with rec's
// full field set, returning the affected row count. An unset identity is a
// ValidationError raised before the backend is contacted.
func Update[T any](s *Store, rec *T) (int64, error) {
	stmt, err := s.builder.Update(rec)
	if err != nil {
		return 0, err
	}
	return s.backend.Update(stmt)
}

// Delete removes the record matching rec's identity.
func Delete[T any](s *Store, rec *T) (int64, error) {
	stmt, err := s.builder.Delete(rec)
	if err != nil {
		return 0, err
	}
	return s.backend.Delete(stmt)
}

// Match streams the records matching the example instance: one equality
// predicate per non-default field. An all-default example matches every
// row. Reference fields of returned records are bound to the store and
// resolve lazily.
func Match[T any](s *Store, example T) iter.Seq2[*T, error] {
	stmt, err := s.builder.Match(example)
	if err != nil {
		return func(yield func(*T, error) bool) {
			yield(nil, err)
		}
	}

	return func(yield func(*T, error) bool) {
		for row, err := range s.backend.Select(stmt) {
			if err != nil {
				yield(nil, err)
				return
			}
			rec := new(T)
			if err := db.Scan(row, stmt.Table, rec, s); err != nil {
				yield(nil, err)
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// MatchAll collects Match results into a slice.
func MatchAll[T any](s *Store, example T) ([]*T, error) {
	var out []*T
	for rec, err := range Match(s, example) {
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Get fetches a single record by identity key. The second return is false
// when no row matches.
func Get[T any](s *Store, key int64) (*T, bool, error) {
	rec := new(T)
	ok, err := s.ResolveKey("", key, rec)
	if err != nil || !ok {
		return nil, false, err
	}
	return rec, true, nil
}
