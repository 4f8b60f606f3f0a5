// Package sql generates dialect-correct DDL and parameterized CRUD
// statements from table descriptors. StructDB goes the opposite way from a
// SQL parser: statements are compiled out of record instances, never parsed
// from text.
//
// # Statement Builder
//
//	builder := sql.NewBuilder(registry)
//	stmt, err := builder.Insert(&Item{Text: "buy milk"})
//
// Statements are structural: the memory and proxy backends interpret them
// directly, SQL backends render them with a Dialect:
//
//	query, args, err := stmt.SQL(sql.MySQL{})
//
// # Query By Example
//
// Match builds a select from a partially-populated instance. Only fields set
// to a non-default value constrain the query; an all-default instance
// selects every row:
//
//	stmt, _ := builder.Match(Comment{Author: "sam"})
//
// # Dialects
//
// MySQL serves the server-based engine, DuckDB the embedded file engine.
// Dialects capture quoting, type names, identity-column declaration and
// catalog queries; the compiler itself only sequences columns: identity
// first, scalars in declaration order, reference columns and their
// constraints last.
package sql
