package sqldb

import (
	"iter"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/nickyhof/StructDB/core"
	"github.com/nickyhof/StructDB/db"
	"github.com/nickyhof/StructDB/sql"
)

// Backend executes statements against a database/sql connection pool.
// Transactional guarantees are those of the underlying engine; the backend
// itself only renders statements through its dialect and maps failures into
// the engine's error taxonomy.
type Backend struct {
	pool    *sqlx.DB
	dialect sql.Dialect
}

// Open connects a backend over any registered database/sql driver.
func Open(driver, dsn string, dialect sql.Dialect) (*Backend, error) {
	pool, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, &core.BackendError{Op: "open", Table: "", Err: err}
	}
	if err := pool.Ping(); err != nil {
		pool.Close()
		return nil, &core.BackendError{Op: "open", Table: "", Err: err}
	}
	return &Backend{pool: pool, dialect: dialect}, nil
}

// OpenMySQL connects the server-based relational engine.
func OpenMySQL(dsn string) (*Backend, error) {
	return Open("mysql", dsn, sql.MySQL{})
}

// OpenDuckDB opens the embedded file engine. An empty path opens a
// transient in-memory database.
func OpenDuckDB(path string) (*Backend, error) {
	return Open("duckdb", path, sql.DuckDB{})
}

// Dialect returns the dialect the backend renders with.
func (b *Backend) Dialect() sql.Dialect { return b.dialect }

// Close releases the connection pool.
func (b *Backend) Close() error { return b.pool.Close() }

func (b *Backend) CreateTable(desc *core.Table) error {
	for _, stmt := range sql.CreateTable(desc, b.dialect) {
		if _, err := b.pool.Exec(stmt); err != nil {
			return &core.SchemaError{Table: desc.Name, Reason: err.Error()}
		}
	}
	return nil
}

func (b *Backend) DropTable(desc *core.Table, ifExists bool) error {
	if _, err := b.pool.Exec(sql.DropTable(desc, b.dialect, ifExists)); err != nil {
		return &core.SchemaError{Table: desc.Name, Reason: err.Error()}
	}
	return nil
}

func (b *Backend) Insert(stmt *sql.Statement) (int64, error) {
	query, args, err := stmt.SQL(b.dialect)
	if err != nil {
		return 0, err
	}

	if b.dialect.ReturningInsert() {
		var key int64
		if err := b.pool.QueryRow(query, args...).Scan(&key); err != nil {
			return 0, &core.BackendError{Op: "insert", Table: stmt.Table.Name, Err: err}
		}
		return key, nil
	}

	res, err := b.pool.Exec(query, args...)
	if err != nil {
		return 0, &core.BackendError{Op: "insert", Table: stmt.Table.Name, Err: err}
	}
	key, err := res.LastInsertId()
	if err != nil {
		return 0, &core.BackendError{Op: "insert", Table: stmt.Table.Name, Err: err}
	}
	return key, nil
}

func (b *Backend) Update(stmt *sql.Statement) (int64, error) {
	return b.exec("update", stmt)
}

func (b *Backend) Delete(stmt *sql.Statement) (int64, error) {
	return b.exec("delete", stmt)
}

func (b *Backend) exec(op string, stmt *sql.Statement) (int64, error) {
	query, args, err := stmt.SQL(b.dialect)
	if err != nil {
		return 0, err
	}
	res, err := b.pool.Exec(query, args...)
	if err != nil {
		return 0, &core.BackendError{Op: op, Table: stmt.Table.Name, Err: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, &core.BackendError{Op: op, Table: stmt.Table.Name, Err: err}
	}
	return affected, nil
}

func (b *Backend) Select(stmt *sql.Statement) iter.Seq2[db.Row, error] {
	query, args, err := stmt.SQL(b.dialect)
	if err != nil {
		return db.YieldError(err)
	}

	return func(yield func(db.Row, error) bool) {
		rows, err := b.pool.Queryx(query, args...)
		if err != nil {
			yield(nil, &core.BackendError{Op: "select", Table: stmt.Table.Name, Err: err})
			return
		}
		defer rows.Close()

		for rows.Next() {
			row := make(map[string]any)
			if err := rows.MapScan(row); err != nil {
				yield(nil, &core.BackendError{Op: "select", Table: stmt.Table.Name, Err: err})
				return
			}
			if !yield(db.Row(row), nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, &core.BackendError{Op: "select", Table: stmt.Table.Name, Err: err})
		}
	}
}

func (b *Backend) Tables() ([]string, error) {
	rows, err := b.pool.Query(b.dialect.ListTables())
	if err != nil {
		return nil, &core.BackendError{Op: "tables", Table: "", Err: err}
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, &core.BackendError{Op: "tables", Table: "", Err: err}
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.BackendError{Op: "tables", Table: "", Err: err}
	}
	return names, nil
}

// HasTable reports whether the connection can see the named table.
func (b *Backend) HasTable(name string) (bool, error) {
	rows, err := b.pool.Query(b.dialect.TableExists(), name)
	if err != nil {
		return false, &core.BackendError{Op: "tables", Table: name, Err: err}
	}
	defer rows.Close()
	return rows.Next(), nil
}
