// Package db defines the storage backend contract shared by every StructDB
// engine, plus row-to-record deserialization.
//
// A Backend executes statements produced by the sql package. Concrete
// engines live in their own packages:
//
//   - mem: volatile in-memory engine
//   - sqldb: MySQL server engine and DuckDB embedded file engine
//   - proxy: change-notified remote proxy engine
//   - fed: federated composite engine
//
// Select results stream lazily as iter.Seq2[Row, error]; callers may stop
// consuming at any point and backends must not require full
// materialization.
package db
