// Package mem implements the volatile in-memory storage engine. It is the
// reference implementation of the backend contract: tables are plain maps,
// identity keys are assigned monotonically, and every mutation on a table
// holds that table's write lock.
//
//	backend := mem.New()
//	store := StructDB.Open(backend)
//
// All data is lost when the process exits.
package mem
