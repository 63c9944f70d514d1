package config

// state distinguishes the three states a layered configuration field can
// carry: the layer never mentioned this field (Unset), the layer explicitly
// cleared it (Null), or the layer supplies a concrete value (Set).
//
// The string literal "NOTSET" parses to the *unset* sentinel, not to an
// explicit null. The config loader and the CLI layer never produce Null:
// an empty string, empty list or empty table loads as a Set value holding
// that empty value. Null is produced only by code that builds a layer with
// Null[T]() directly. Both Null and Set values overwrite a lower layer;
// only Unset does not.
type state int

const (
	stateUnset state = iota
	stateNull
	stateSet
)

// Value is a tagged variant over {Unset, Null, T}, used for every field on
// ContainerConfig and BuildConfig that participates in layered merging.
// Using a three-state type instead of a plain pointer or Optional[T] keeps
// "the layer didn't mention this" distinguishable from "the layer cleared
// this", which is load-bearing for the merge semantics (§8 sentinel round
// trip property).
type Value[T any] struct {
	s   state
	val T
}

// Unset returns the unset sentinel for T.
func Unset[T any]() Value[T] { return Value[T]{s: stateUnset} }

// Null returns the explicit-null value for T.
func Null[T any]() Value[T] { return Value[T]{s: stateNull} }

// Of returns a concrete, set value.
func Of[T any](v T) Value[T] { return Value[T]{s: stateSet, val: v} }

// IsUnset reports whether the layer did not speak to this field at all.
func (v Value[T]) IsUnset() bool { return v.s == stateUnset }

// IsNull reports whether the layer explicitly cleared this field.
func (v Value[T]) IsNull() bool { return v.s == stateNull }

// IsSet reports whether the layer supplies a concrete value (Null counts
// as "set" for merge purposes — only Unset is passed through).
func (v Value[T]) IsSet() bool { return v.s != stateUnset }

// Get returns the concrete value and true, or the zero value and false if
// this Value is Unset or Null.
func (v Value[T]) Get() (T, bool) {
	if v.s != stateSet {
		var zero T
		return zero, false
	}
	return v.val, true
}

// GetOr returns the concrete value, or def if this Value is Unset or Null.
func (v Value[T]) GetOr(def T) T {
	if val, ok := v.Get(); ok {
		return val
	}
	return def
}

// Merge applies the standard layering rule: if the overriding layer (v) is
// Unset, the base (under) wins unchanged; otherwise v (Null or Set) wins.
func Merge[T any](under, over Value[T]) Value[T] {
	if over.IsUnset() {
		return under
	}
	return over
}
