package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValue_States(t *testing.T) {
	u := Unset[string]()
	assert.True(t, u.IsUnset())
	assert.False(t, u.IsNull())
	assert.False(t, u.IsSet())
	_, ok := u.Get()
	assert.False(t, ok)
	assert.Equal(t, "fallback", u.GetOr("fallback"))

	n := Null[string]()
	assert.False(t, n.IsUnset())
	assert.True(t, n.IsNull())
	assert.True(t, n.IsSet())
	_, ok = n.Get()
	assert.False(t, ok)
	assert.Equal(t, "fallback", n.GetOr("fallback"))

	s := Of("hello")
	assert.False(t, s.IsUnset())
	assert.False(t, s.IsNull())
	assert.True(t, s.IsSet())
	v, ok := s.Get()
	assert.True(t, ok)
	assert.Equal(t, "hello", v)
	assert.Equal(t, "hello", s.GetOr("fallback"))
}

// TestValue_MergeSentinelRoundTrip exercises the merge rule that only
// Unset yields to a lower layer; both Null and Set override it, and
// round-tripping a value through several Unset layers preserves it.
func TestValue_MergeSentinelRoundTrip(t *testing.T) {
	base := Of("base")

	assert.Equal(t, base, Merge(base, Unset[string]()))

	over := Merge(base, Null[string]())
	assert.True(t, over.IsNull())

	overSet := Merge(base, Of("override"))
	v, ok := overSet.Get()
	assert.True(t, ok)
	assert.Equal(t, "override", v)

	chained := Merge(Merge(Merge(base, Unset[string]()), Unset[string]()), Unset[string]())
	assert.Equal(t, base, chained)
}

func TestValue_ZeroValueIsUnset(t *testing.T) {
	var zero Value[int]
	assert.True(t, zero.IsUnset())
	assert.Equal(t, 42, zero.GetOr(42))
}
