package StructDB

import (
	"errors"
	"testing"
	"time"

	"github.com/nickyhof/StructDB/core"
	"github.com/nickyhof/StructDB/fed"
	"github.com/nickyhof/StructDB/mem"
)

type Item struct {
	ID    int64     `db:"id,pk"`
	Name  string    `db:"name"`
	Price float64   `db:"price"`
	Added time.Time `db:"added"`
}

type Comment struct {
	ID     int64          `db:"id,pk"`
	ItemId core.Ref[Item] `db:"item_id"`
	Author string         `db:"author"`
	Body   string         `db:"body"`
}

func setupStore(t *testing.T) *Store {
	t.Helper()
	store := Open(mem.New())
	if err := CreateTable[Item](store); err != nil {
		t.Fatalf("Failed to create item table: %v", err)
	}
	if err := CreateTable[Comment](store); err != nil {
		t.Fatalf("Failed to create comment table: %v", err)
	}
	return store
}

func TestInsertAssignsKey(t *testing.T) {
	store := setupStore(t)

	item := Item{Name: "widget", Price: 9.99}
	key, err := Insert(store, &item)
	if err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}
	if key != 1 {
		t.Errorf("Expected key 1, got %d", key)
	}
	if item.ID != 1 {
		t.Errorf("Expected the key to be written back, got %d", item.ID)
	}
}

func TestGet(t *testing.T) {
	store := setupStore(t)

	item := Item{Name: "widget", Price: 9.99}
	key, err := Insert(store, &item)
	if err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}

	loaded, ok, err := Get[Item](store, key)
	if err != nil {
		t.Fatalf("Failed to get: %v", err)
	}
	if !ok || loaded.Name != "widget" || loaded.Price != 9.99 {
		t.Errorf("Unexpected record: %+v", loaded)
	}

	_, ok, err = Get[Item](store, 99)
	if err != nil {
		t.Fatalf("Expected a miss to be an outcome, got error: %v", err)
	}
	if ok {
		t.Error("Expected no record for key 99")
	}
}

func TestMatchByExample(t *testing.T) {
	store := setupStore(t)

	for _, item := range []Item{
		{Name: "widget", Price: 9.99},
		{Name: "gadget", Price: 19.99},
		{Name: "widget", Price: 4.99},
	} {
		if _, err := Insert(store, &item); err != nil {
			t.Fatalf("Failed to insert: %v", err)
		}
	}

	widgets, err := MatchAll(store, Item{Name: "widget"})
	if err != nil {
		t.Fatalf("Failed to match: %v", err)
	}
	if len(widgets) != 2 {
		t.Errorf("Expected 2 widgets, got %d", len(widgets))
	}

	all, err := MatchAll(store, Item{})
	if err != nil {
		t.Fatalf("Failed to match all: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected an empty example to match all 3 rows, got %d", len(all))
	}
}

func TestMatchStopsEarly(t *testing.T) {
	store := setupStore(t)
	for i := 0; i < 5; i++ {
		if _, err := Insert(store, &Item{Name: "bulk"}); err != nil {
			t.Fatalf("Failed to insert: %v", err)
		}
	}

	seen := 0
	for _, err := range Match(store, Item{}) {
		if err != nil {
			t.Fatalf("Match yielded error: %v", err)
		}
		seen++
		if seen == 2 {
			break
		}
	}
	if seen != 2 {
		t.Errorf("Expected to stop after 2 records, saw %d", seen)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	store := setupStore(t)

	item := Item{Name: "widget", Price: 9.99}
	if _, err := Insert(store, &item); err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}

	item.Price = 7.50
	affected, err := Update(store, &item)
	if err != nil {
		t.Fatalf("Failed to update: %v", err)
	}
	if affected != 1 {
		t.Errorf("Expected 1 affected row, got %d", affected)
	}

	loaded, _, err := Get[Item](store, item.ID)
	if err != nil {
		t.Fatalf("Failed to get: %v", err)
	}
	if loaded.Price != 7.50 {
		t.Errorf("Expected updated price 7.50, got %v", loaded.Price)
	}

	if _, err := Delete(store, &item); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if _, ok, _ := Get[Item](store, item.ID); ok {
		t.Error("Expected the record to be gone after delete")
	}
}

func TestUpdateUnsetIdentity(t *testing.T) {
	store := setupStore(t)

	_, err := Update(store, &Item{Name: "nameless"})
	var verr *core.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("Expected ValidationError, got %v", err)
	}
}

func TestRefResolvesThroughStore(t *testing.T) {
	store := setupStore(t)

	item := Item{Name: "widget", Price: 9.99}
	if _, err := Insert(store, &item); err != nil {
		t.Fatalf("Failed to insert item: %v", err)
	}

	comment := Comment{ItemId: core.NewRef[Item](item.ID), Author: "ann", Body: "nice"}
	if _, err := Insert(store, &comment); err != nil {
		t.Fatalf("Failed to insert comment: %v", err)
	}

	loaded, err := MatchAll(store, Comment{Author: "ann"})
	if err != nil {
		t.Fatalf("Failed to match: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("Expected 1 comment, got %d", len(loaded))
	}

	target, ok, err := loaded[0].ItemId.Resolve()
	if err != nil {
		t.Fatalf("Failed to resolve: %v", err)
	}
	if !ok || target.Name != "widget" {
		t.Errorf("Expected the comment to resolve to widget, got %+v", target)
	}
}

func TestRefResolveDanglingKey(t *testing.T) {
	store := setupStore(t)

	comment := Comment{ItemId: core.NewRef[Item](42), Author: "ann", Body: "orphan"}
	if _, err := Insert(store, &comment); err != nil {
		t.Fatalf("Failed to insert comment: %v", err)
	}

	loaded, err := MatchAll(store, Comment{})
	if err != nil {
		t.Fatalf("Failed to match: %v", err)
	}

	target, ok, err := loaded[0].ItemId.Resolve()
	if err != nil {
		t.Fatalf("Expected a dangling key to be an outcome, got error: %v", err)
	}
	if ok || target != nil {
		t.Error("Expected no target for a dangling key")
	}
}

func TestCreateTableIfMissing(t *testing.T) {
	store := Open(mem.New())

	if err := CreateTableIfMissing[Item](store); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}
	if err := CreateTableIfMissing[Item](store); err != nil {
		t.Errorf("Expected a second call to be a no-op, got %v", err)
	}
	if err := CreateTable[Item](store); err == nil {
		t.Error("Expected plain CreateTable on an existing table to fail")
	}
}

func TestDropTable(t *testing.T) {
	store := setupStore(t)

	if err := DropTable[Comment](store); err != nil {
		t.Fatalf("Failed to drop table: %v", err)
	}
	if err := DropTable[Comment](store); err == nil {
		t.Error("Expected an error dropping a missing table")
	}
	if err := DropTableIfExists[Comment](store); err != nil {
		t.Errorf("Expected drop-if-exists to succeed, got %v", err)
	}
}

// A store over a federation: each record type lives in its own constituent
// and references resolve across the boundary.
func TestStoreOverFederation(t *testing.T) {
	items := mem.New()
	comments := mem.New()

	seed := Open(items)
	if err := CreateTable[Item](seed); err != nil {
		t.Fatalf("Failed to create item table: %v", err)
	}
	seedComments := Open(comments)
	if err := CreateTable[Comment](seedComments); err != nil {
		t.Fatalf("Failed to create comment table: %v", err)
	}

	backend, err := fed.New(items, comments)
	if err != nil {
		t.Fatalf("Failed to federate: %v", err)
	}
	store := Open(backend)

	item := Item{Name: "widget"}
	if _, err := Insert(store, &item); err != nil {
		t.Fatalf("Failed to insert item: %v", err)
	}
	comment := Comment{ItemId: core.NewRef[Item](item.ID), Author: "ann", Body: "hi"}
	if _, err := Insert(store, &comment); err != nil {
		t.Fatalf("Failed to insert comment: %v", err)
	}

	loaded, err := MatchAll(store, Comment{})
	if err != nil {
		t.Fatalf("Failed to match: %v", err)
	}
	target, ok, err := loaded[0].ItemId.Resolve()
	if err != nil || !ok {
		t.Fatalf("Failed to resolve across constituents: %v", err)
	}
	if target.Name != "widget" {
		t.Errorf("Expected widget, got %s", target.Name)
	}
}
