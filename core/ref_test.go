package core

import (
	"errors"
	"testing"
)

// countingResolver records lookups and serves from a fixed map.
type countingResolver struct {
	authors map[int64]Author
	calls   int
}

func (r *countingResolver) ResolveKey(table string, key int64, dest any) (bool, error) {
	r.calls++
	if table != "author" {
		return false, &SchemaError{Table: table, Reason: "table does not exist"}
	}
	author, ok := r.authors[key]
	if !ok {
		return false, nil
	}
	*dest.(*Author) = author
	return true, nil
}

func TestRefResolve(t *testing.T) {
	resolver := &countingResolver{authors: map[int64]Author{7: {ID: 7, Name: "Ann"}}}

	ref := NewRef[Author](7)
	ref.Bind(resolver)

	author, ok, err := ref.Resolve()
	if err != nil {
		t.Fatalf("Failed to resolve: %v", err)
	}
	if !ok || author.Name != "Ann" {
		t.Errorf("Expected Ann, got %+v (ok=%v)", author, ok)
	}
}

func TestRefResolveCached(t *testing.T) {
	resolver := &countingResolver{authors: map[int64]Author{7: {ID: 7, Name: "Ann"}}}

	ref := NewRef[Author](7)
	ref.Bind(resolver)

	first, _, err := ref.Resolve()
	if err != nil {
		t.Fatalf("Failed to resolve: %v", err)
	}
	second, _, err := ref.Resolve()
	if err != nil {
		t.Fatalf("Failed to resolve again: %v", err)
	}

	if resolver.calls != 1 {
		t.Errorf("Expected 1 resolver call, got %d", resolver.calls)
	}
	if first != second {
		t.Error("Expected the cached record on repeated resolution")
	}
}

func TestRefResolveNotFound(t *testing.T) {
	resolver := &countingResolver{authors: map[int64]Author{}}

	ref := NewRef[Author](99)
	ref.Bind(resolver)

	author, ok, err := ref.Resolve()
	if err != nil {
		t.Fatalf("Expected a missing target to be an outcome, got error: %v", err)
	}
	if ok || author != nil {
		t.Errorf("Expected (nil, false) for a missing target, got %+v (ok=%v)", author, ok)
	}
}

func TestRefResolveUnbound(t *testing.T) {
	ref := NewRef[Author](7)

	_, _, err := ref.Resolve()
	if !errors.Is(err, ErrUnboundRef) {
		t.Errorf("Expected ErrUnboundRef, got %v", err)
	}
}

func TestRefResolveUnset(t *testing.T) {
	var ref Ref[Author]

	author, ok, err := ref.Resolve()
	if err != nil {
		t.Fatalf("Expected no error for an unset reference, got %v", err)
	}
	if ok || author != nil {
		t.Error("Expected an unset reference to resolve to nothing")
	}
}

func TestRefSetKeyDiscardsCache(t *testing.T) {
	resolver := &countingResolver{authors: map[int64]Author{
		1: {ID: 1, Name: "Ann"},
		2: {ID: 2, Name: "Bob"},
	}}

	ref := NewRef[Author](1)
	ref.Bind(resolver)
	if _, _, err := ref.Resolve(); err != nil {
		t.Fatalf("Failed to resolve: %v", err)
	}

	ref.SetKey(2)
	ref.Bind(resolver)
	author, ok, err := ref.Resolve()
	if err != nil || !ok {
		t.Fatalf("Failed to resolve after repointing: %v", err)
	}
	if author.Name != "Bob" {
		t.Errorf("Expected Bob after repointing, got %s", author.Name)
	}
}

func TestResolvedRef(t *testing.T) {
	target := &Author{ID: 3, Name: "Cleo"}
	ref := ResolvedRef(3, target)

	author, ok, err := ref.Resolve()
	if err != nil || !ok {
		t.Fatalf("Failed to resolve pre-resolved reference: %v", err)
	}
	if author != target {
		t.Error("Expected the carried target without any backend call")
	}
	if !ref.IsSet() || ref.Key() != 3 {
		t.Errorf("Expected set reference with key 3, got key %d", ref.Key())
	}
}
