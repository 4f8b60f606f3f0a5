package core

import "reflect"

// Resolver loads a single record by identity key. Stores implement it; a Ref
// holds one as a non-owning handle so that resolution can route through
// whichever backend owns the target table.
type Resolver interface {
	// ResolveKey loads the record with the given key from table into dest,
	// a pointer to the record struct. The boolean is false when no row
	// matches; that is an outcome, not an error.
	ResolveKey(table string, key int64, dest any) (bool, error)
}

// RefValue is the untyped view of a Ref field, used when scanning rows and
// binding parameters without knowing the target type.
type RefValue interface {
	Key() int64
	IsSet() bool
	SetKey(key int64)
	Bind(r Resolver)
	refTarget() reflect.Type
}

// Ref is a lazy foreign-key reference to a record of type T. It stores the
// raw key and resolves the target on demand through the bound store.
//
// A Ref with key 0 is unset. A key that was explicitly set to 0 is
// indistinguishable from one that was never set: it matches nothing on
// insert validation and does not constrain select-matching. Callers rely on
// this to broaden matches by leaving fields at their defaults.
type Ref[T any] struct {
	key      int64
	resolved *T
	resolver Resolver
}

// NewRef returns an unresolved reference to the record with the given key.
// The key may be set speculatively before the target row exists.
func NewRef[T any](key int64) Ref[T] {
	return Ref[T]{key: key}
}

// ResolvedRef returns a reference that already carries its target; Resolve
// returns it without touching any backend.
func ResolvedRef[T any](key int64, target *T) Ref[T] {
	return Ref[T]{key: key, resolved: target}
}

// Key returns the raw identity key.
func (r Ref[T]) Key() int64 { return r.key }

// IsSet reports whether the reference points at anything.
func (r Ref[T]) IsSet() bool { return r.key != 0 || r.resolved != nil }

// SetKey repoints the reference at a raw key, discarding any cached target.
func (r *Ref[T]) SetKey(key int64) {
	r.key = key
	r.resolved = nil
}

// Bind attaches the store that owns the target table. The reference does not
// own the store.
func (r *Ref[T]) Bind(res Resolver) { r.resolver = res }

func (r Ref[T]) refTarget() reflect.Type { return reflect.TypeFor[T]() }

// Resolve fetches the referenced record. The first successful resolution is
// cached for the life of the value; later calls return the cached record
// without I/O. A missing target row yields (nil, false, nil). Resolution is
// one level deep: reference fields of the target are returned unresolved.
func (r *Ref[T]) Resolve() (*T, bool, error) {
	if r.resolved != nil {
		return r.resolved, true, nil
	}
	if r.key == 0 {
		return nil, false, nil
	}
	if r.resolver == nil {
		return nil, false, ErrUnboundRef
	}

	table, err := tableName(reflect.TypeFor[T]())
	if err != nil {
		return nil, false, err
	}

	target := new(T)
	ok, err := r.resolver.ResolveKey(table, r.key, target)
	if err != nil || !ok {
		return nil, false, err
	}

	r.resolved = target
	return target, true, nil
}
