package sql

import (
	"fmt"

	"github.com/nickyhof/StructDB/core"
)

// Dialect captures the syntax differences between backend families: identifier
// quoting, type names, identity-column declaration and catalog queries. The
// DDL compiler and statement renderer are dialect-agnostic and only sequence.
type Dialect interface {
	Name() string

	// Quote returns the identifier wrapped in the dialect's quoting style.
	Quote(ident string) string

	// TypeName renders the column type for a scalar kind. RefKind renders
	// as the target identity's integer type.
	TypeName(k core.Kind) string

	// Placeholder returns the parameter marker for the n-th binding,
	// 1-based.
	Placeholder(n int) string

	// IdentityColumn renders the identity column definition and any setup
	// statements (sequences) that must run before CREATE TABLE.
	IdentityColumn(table, column string) (def string, setup []string)

	// TableExists is a catalog query with one parameter (the table name)
	// that returns a row when the table exists.
	TableExists() string

	// ListTables is a catalog query returning the names of all mapped
	// tables visible to the connection.
	ListTables() string

	// ReturningInsert reports whether inserts must fetch the assigned key
	// with a RETURNING clause instead of LastInsertId.
	ReturningInsert() bool
}

// MySQL is the dialect for the server-based relational engine.
type MySQL struct{}

func (MySQL) Name() string { return "mysql" }

func (MySQL) Quote(ident string) string { return "`" + ident + "`" }

func (MySQL) TypeName(k core.Kind) string {
	switch k {
	case core.IntKind, core.RefKind:
		return "BIGINT"
	case core.FloatKind:
		return "DOUBLE"
	case core.TextKind:
		return "TEXT"
	case core.BoolKind:
		return "BOOLEAN"
	case core.TimeKind:
		return "DATETIME"
	case core.BytesKind:
		return "BLOB"
	default:
		return "TEXT"
	}
}

func (MySQL) Placeholder(int) string { return "?" }

func (d MySQL) IdentityColumn(table, column string) (string, []string) {
	return d.Quote(column) + " BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY", nil
}

func (MySQL) TableExists() string {
	return "SELECT 1 FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?"
}

func (MySQL) ListTables() string {
	return "SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE()"
}

func (MySQL) ReturningInsert() bool { return false }

// DuckDB is the dialect for the embedded file engine. DuckDB has no
// auto-increment columns; identity values come from a per-table sequence.
type DuckDB struct{}

func (DuckDB) Name() string { return "duckdb" }

func (DuckDB) Quote(ident string) string { return `"` + ident + `"` }

func (DuckDB) TypeName(k core.Kind) string {
	switch k {
	case core.IntKind, core.RefKind:
		return "BIGINT"
	case core.FloatKind:
		return "DOUBLE"
	case core.TextKind:
		return "VARCHAR"
	case core.BoolKind:
		return "BOOLEAN"
	case core.TimeKind:
		return "TIMESTAMP"
	case core.BytesKind:
		return "BLOB"
	default:
		return "VARCHAR"
	}
}

func (DuckDB) Placeholder(int) string { return "?" }

func (d DuckDB) IdentityColumn(table, column string) (string, []string) {
	seq := table + "_" + column + "_seq"
	def := fmt.Sprintf("%s BIGINT PRIMARY KEY DEFAULT nextval('%s')", d.Quote(column), seq)
	setup := []string{fmt.Sprintf("CREATE SEQUENCE IF NOT EXISTS %s START 1", d.Quote(seq))}
	return def, setup
}

func (DuckDB) TableExists() string {
	return "SELECT 1 FROM information_schema.tables WHERE table_name = ?"
}

func (DuckDB) ListTables() string {
	return "SELECT table_name FROM information_schema.tables WHERE table_schema = 'main'"
}

func (DuckDB) ReturningInsert() bool { return true }
