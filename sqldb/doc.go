// Package sqldb implements the SQL-backed storage engines over database/sql
// connection pools: the MySQL server engine and the DuckDB embedded file
// engine.
//
//	server, err := sqldb.OpenMySQL("app:secret@tcp(dbhost:3306)/app?parseTime=true")
//	local, err := sqldb.OpenDuckDB("app.duckdb")
//
// Both share one implementation; the dialect carries every syntax
// difference, including how inserts report the assigned key (LastInsertId
// on MySQL, RETURNING on DuckDB).
package sqldb
