package kernel

import "reflect"

// Scope selects the lifetime and sharing of a scratch allocation.
type Scope int

const (
	// GroupScope allocations are shared by every item of a group and live
	// until the group finishes.
	GroupScope Scope = iota
	// ItemScope allocations belong to one item and persist across barriers
	// until the item finishes the whole kernel.
	ItemScope
)

// String returns the scope name.
func (s Scope) String() string {
	switch s {
	case GroupScope:
		return "group"
	case ItemScope:
		return "item"
	default:
		return "unknown"
	}
}

// LocalMem returns the group-local slice registered under id, allocating n
// elements on first use. Every item of a group receives the same slice.
func LocalMem[T any](c Context, id, n int) []T {
	v := c.Scratch(GroupScope, id, func() any { return make([]T, n) })
	return scratchSlice[T]("LocalMem", v, id, n)
}

// PrivateMem returns the item's private slice registered under id,
// allocating n elements on first use. Contents survive barriers.
func PrivateMem[T any](c Context, id, n int) []T {
	v := c.Scratch(ItemScope, id, func() any { return make([]T, n) })
	return scratchSlice[T]("PrivateMem", v, id, n)
}

func scratchSlice[T any](op string, v any, id, n int) []T {
	s, ok := v.([]T)
	if !ok || len(s) != n {
		var want []T
		panic(NewConfigurationError(op, "scratch id %d holds %T of length %d, requested %T of length %d",
			id, v, lenOf(v), want, n))
	}
	return s
}

func lenOf(v any) int {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return -1
	}
	return rv.Len()
}
