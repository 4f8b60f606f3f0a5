package db

import (
	"iter"

	"github.com/nickyhof/StructDB/core"
	"github.com/nickyhof/StructDB/sql"
)

// Row is one stored record keyed by column name. Values carry whatever types
// the backend produced; Scan coerces them back into record fields.
type Row map[string]any

// Backend is the uniform operation set every storage engine implements: the
// server-based MySQL engine, the embedded DuckDB file engine, the volatile
// memory engine, the change-notified proxy and the federated composite.
//
// Select returns a lazy sequence; backends may stream rows and callers may
// stop consuming early. Each backend owns its concurrency and persistence
// semantics; the contract itself defines no cancellation primitive.
type Backend interface {
	// CreateTable materializes the descriptor's schema. An existing table
	// of the same name is a SchemaError.
	CreateTable(table *core.Table) error

	// DropTable removes the table. Without ifExists, a missing table is a
	// SchemaError.
	DropTable(table *core.Table, ifExists bool) error

	// Insert executes an insert statement and returns the assigned
	// identity key.
	Insert(stmt *sql.Statement) (int64, error)

	// Update executes an update statement and returns the affected row
	// count. Matching several rows is reported, not failed.
	Update(stmt *sql.Statement) (int64, error)

	// Delete executes a delete statement and returns the affected row
	// count.
	Delete(stmt *sql.Statement) (int64, error)

	// Select streams the rows matching the statement's predicates. Errors
	// are yielded in-stream with a nil row.
	Select(stmt *sql.Statement) iter.Seq2[Row, error]

	// Tables lists the tables the backend currently holds. The federated
	// backend builds its routing table from this.
	Tables() ([]string, error)
}

// YieldError emits a single in-stream error, for Select implementations
// that fail before producing any row.
func YieldError(err error) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		yield(nil, err)
	}
}
