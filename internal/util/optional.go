// Package util holds small argument helpers shared by the formula packages.
package util

// Optional is a value that may be absent. The zero value is absent.
type Optional[T any] struct {
	value T
	set   bool
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// None returns an absent Optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

func (o Optional[T]) IsSet() bool { return o.set }

// Get returns the value and whether it was set.
func (o Optional[T]) Get() (T, bool) { return o.value, o.set }

// Or returns the held value, or def when absent.
func (o Optional[T]) Or(def T) T {
	if o.set {
		return o.value
	}
	return def
}
