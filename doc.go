// Package StructDB maps plain Go struct types onto relational tables and
// generates the schema and CRUD statements for them, without the caller
// writing SQL.
//
// # Quick Start
//
// Define record types, open a store over any backend, and work with typed
// records:
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
//	store := StructDB.Open(mem.New())
//	StructDB.CreateTable[Item](store)
//	StructDB.CreateTable[Comment](store)
//
//	item := Item{Text: "buy milk"}
//	StructDB.Insert(store, &item)
//	StructDB.Insert(store, &Comment{ItemId: core.NewRef[Item](item.ID), Author: "sam", Text: "done"})
//
//	for c, err := range StructDB.Match(store, Comment{Author: "sam"}) {
//	    if err != nil {
//	        break
//	    }
//	    target, ok, _ := c.ItemId.Resolve()
//	    _ = ok
//	    fmt.Println(c.Text, "on", target.Text)
//	}
//
// # Query By Example
//
// Match builds its predicates from the non-default fields of the example
// instance. Fields left at their zero value do not constrain the search, so
// an empty example selects everything. A field explicitly set to its zero
// value is indistinguishable from an unset one; this is a documented
// limitation kept for callers that broaden matches by leaving fields at
// their defaults.
//
// # Backends
//
// Every backend implements the same contract (db.Backend):
//
//   - mem.New() — volatile in-memory engine
//   - sqldb.OpenMySQL(dsn) — server-based relational engine
//   - sqldb.OpenDuckDB(path) — embedded file engine
//   - proxy.New(upstream, feed) — remote change-notified engine
//   - fed.New(backends...) — federated composite engine
package StructDB
