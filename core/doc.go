// Package core defines the type-to-schema mapping layer of StructDB.
//
// A Registry reflects over plain record structs and derives immutable Table
// descriptors: column names and kinds, the identity column, and typed
// foreign-key columns declared with Ref.
//
// # Record Types
//
// A record type is a struct with exactly one integer identity field (a field
// named ID, or any integer field tagged `db:",pk"`) and any number of scalar
// or reference fields:
//
//	type Item struct {
//	    ID   int64
//	    Text string
//	}
//
//	type Comment struct {
//	    ID     int64
//	    ItemId core.Ref[Item]
//	    Author string
//	    Text   string
//	}
//
// Supported scalar kinds: integers, floats, strings, booleans, time.Time and
// []byte. Struct tags rename columns (`db:"body"`) and mark reference
// columns nullable (`db:"item_id,nullable"`); `db:"-"` skips a field.
//
// # References
//
// Ref stores the raw key of the target row and resolves it lazily through
// the store that fetched the record. Resolution is cached and one level
// deep.
package core
