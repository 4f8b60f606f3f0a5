package core

import (
	"reflect"
	"testing"
	"time"
)

type Author struct {
	ID   int64  `db:"id,pk"`
	Name string `db:"name"`
}

type Book struct {
	ID        int64       `db:"id,pk"`
	Title     string      `db:"title"`
	Pages     int         `db:"pages"`
	Price     float64     `db:"price"`
	InPrint   bool        `db:"in_print"`
	Published time.Time   `db:"published"`
	Cover     []byte      `db:"cover,nullable"`
	AuthorId  Ref[Author] `db:"author_id"`
	scratch   string
	Ignored   string `db:"-"`
}

type Node struct {
	ID     int64     `db:"id,pk"`
	Parent Ref[Node] `db:"parent,nullable"`
}

func TestDescribeColumns(t *testing.T) {
	reg := NewRegistry()
	table, err := reg.Describe(reflect.TypeFor[Book]())
	if err != nil {
		t.Fatalf("Failed to describe Book: %v", err)
	}

	if table.Name != "book" {
		t.Errorf("Expected table name book, got %s", table.Name)
	}

	want := []struct {
		name string
		kind Kind
	}{
		{"id", IntKind},
		{"title", TextKind},
		{"pages", IntKind},
		{"price", FloatKind},
		{"in_print", BoolKind},
		{"published", TimeKind},
		{"cover", BytesKind},
		{"author_id", RefKind},
	}
	if len(table.Columns) != len(want) {
		t.Fatalf("Expected %d columns, got %d", len(want), len(table.Columns))
	}
	for i, w := range want {
		col := table.Columns[i]
		if col.Name != w.name || col.Kind != w.kind {
			t.Errorf("Column %d: expected %s/%v, got %s/%v", i, w.name, w.kind, col.Name, col.Kind)
		}
	}
}

func TestDescribeIdentity(t *testing.T) {
	reg := NewRegistry()
	table, err := reg.Describe(reflect.TypeFor[Book]())
	if err != nil {
		t.Fatalf("Failed to describe Book: %v", err)
	}

	id := table.Identity()
	if id == nil {
		t.Fatal("Expected an identity column")
	}
	if id.Name != "id" || id.Kind != IntKind || !id.PrimaryKey {
		t.Errorf("Unexpected identity column: %+v", id)
	}
}

func TestDescribeRefColumn(t *testing.T) {
	reg := NewRegistry()
	table, err := reg.Describe(reflect.TypeFor[Book]())
	if err != nil {
		t.Fatalf("Failed to describe Book: %v", err)
	}

	ref := table.Column("author_id")
	if ref == nil {
		t.Fatal("Expected author_id column")
	}
	if ref.RefTable != "author" || ref.RefColumn != "id" {
		t.Errorf("Expected reference to author(id), got %s(%s)", ref.RefTable, ref.RefColumn)
	}
}

func TestDescribeNullable(t *testing.T) {
	reg := NewRegistry()
	table, err := reg.Describe(reflect.TypeFor[Book]())
	if err != nil {
		t.Fatalf("Failed to describe Book: %v", err)
	}

	if !table.Column("cover").Nullable {
		t.Error("Expected cover to be nullable")
	}
	if table.Column("title").Nullable {
		t.Error("Expected title to be required")
	}
}

func TestDescribeSkipsUnexportedAndIgnored(t *testing.T) {
	reg := NewRegistry()
	table, err := reg.Describe(reflect.TypeFor[Book]())
	if err != nil {
		t.Fatalf("Failed to describe Book: %v", err)
	}

	if table.Column("scratch") != nil || table.Column("ignored") != nil {
		t.Error("Expected unexported and ignored fields to be skipped")
	}
}

func TestDescribeStable(t *testing.T) {
	reg := NewRegistry()
	first, err := reg.Describe(reflect.TypeFor[Book]())
	if err != nil {
		t.Fatalf("Failed to describe Book: %v", err)
	}
	second, err := reg.Describe(reflect.TypeFor[*Book]())
	if err != nil {
		t.Fatalf("Failed to describe *Book: %v", err)
	}

	if first != second {
		t.Error("Expected repeated descriptions to return the cached descriptor")
	}
}

// Records handed over by value must still expose their reference fields,
// which are read through pointer-receiver methods.
func TestDescribeValueByValue(t *testing.T) {
	reg := NewRegistry()

	table, v, err := reg.DescribeValue(Book{Title: "go", AuthorId: NewRef[Author](4)})
	if err != nil {
		t.Fatalf("Failed to describe by-value record: %v", err)
	}
	if !v.CanAddr() {
		t.Fatal("Expected DescribeValue to return an addressable value")
	}

	col := table.Column("author_id")
	ref := v.Field(col.Field).Addr().Interface().(RefValue)
	if ref.Key() != 4 {
		t.Errorf("Expected reference key 4, got %d", ref.Key())
	}
}

func TestDescribeSelfReference(t *testing.T) {
	reg := NewRegistry()
	table, err := reg.Describe(reflect.TypeFor[Node]())
	if err != nil {
		t.Fatalf("Failed to describe self-referencing type: %v", err)
	}

	ref := table.Column("parent")
	if ref.RefTable != "node" || ref.RefColumn != "id" {
		t.Errorf("Expected self reference to node(id), got %s(%s)", ref.RefTable, ref.RefColumn)
	}
}

type Left struct {
	ID    int64      `db:"id,pk"`
	Other Ref[Right] `db:"other,nullable"`
}

type Right struct {
	ID    int64     `db:"id,pk"`
	Other Ref[Left] `db:"other,nullable"`
}

func TestDescribeMutualReference(t *testing.T) {
	reg := NewRegistry()

	left, err := reg.Describe(reflect.TypeFor[Left]())
	if err != nil {
		t.Fatalf("Failed to describe Left: %v", err)
	}
	right, err := reg.Describe(reflect.TypeFor[Right]())
	if err != nil {
		t.Fatalf("Failed to describe Right: %v", err)
	}

	if left.Column("other").RefTable != "right" {
		t.Errorf("Expected Left.Other to reference right, got %s", left.Column("other").RefTable)
	}
	if right.Column("other").RefTable != "left" {
		t.Errorf("Expected Right.Other to reference left, got %s", right.Column("other").RefTable)
	}
}

func TestDescribeNoIdentity(t *testing.T) {
	type Unkeyed struct {
		Name string `db:"name"`
	}

	_, err := NewRegistry().Describe(reflect.TypeFor[Unkeyed]())
	if err == nil {
		t.Fatal("Expected an error for a type without an identity field")
	}
	if _, ok := err.(*DefinitionError); !ok {
		t.Errorf("Expected DefinitionError, got %T", err)
	}
}

func TestDescribeMultipleIdentities(t *testing.T) {
	type DoubleKeyed struct {
		A int64 `db:"a,pk"`
		B int64 `db:"b,pk"`
	}

	_, err := NewRegistry().Describe(reflect.TypeFor[DoubleKeyed]())
	if err == nil {
		t.Fatal("Expected an error for a type with two identity fields")
	}
}

func TestDescribeNonIntegerIdentity(t *testing.T) {
	type StringKeyed struct {
		Key string `db:"key,pk"`
	}

	_, err := NewRegistry().Describe(reflect.TypeFor[StringKeyed]())
	if err == nil {
		t.Fatal("Expected an error for a non-integer identity field")
	}
}

func TestDescribeIDFallback(t *testing.T) {
	type Plain struct {
		ID   int64
		Name string
	}

	table, err := NewRegistry().Describe(reflect.TypeFor[Plain]())
	if err != nil {
		t.Fatalf("Failed to describe Plain: %v", err)
	}
	if id := table.Identity(); id == nil || id.Name != "id" {
		t.Errorf("Expected untagged ID field to become the identity, got %+v", id)
	}
}

func TestDescribeUnsupportedField(t *testing.T) {
	type Bad struct {
		ID    int64 `db:"id,pk"`
		Extra map[string]string
	}

	_, err := NewRegistry().Describe(reflect.TypeFor[Bad]())
	if err == nil {
		t.Fatal("Expected an error for an unsupported field type")
	}
}

type Renamed struct {
	ID int64 `db:"id,pk"`
}

func (Renamed) TableName() string { return "custom_name" }

func TestDescribeTableNamer(t *testing.T) {
	table, err := NewRegistry().Describe(reflect.TypeFor[Renamed]())
	if err != nil {
		t.Fatalf("Failed to describe Renamed: %v", err)
	}
	if table.Name != "custom_name" {
		t.Errorf("Expected table name custom_name, got %s", table.Name)
	}
}
