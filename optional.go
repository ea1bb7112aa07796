package deskew

import "fmt"

// Optional holds a value or nothing
type Optional[T any] struct {
	value T
	valid bool
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, valid: true}
}

func None[T any]() Optional[T] {
	return Optional[T]{}
}

func (o Optional[T]) Get() (T, bool) {
	return o.value, o.valid
}

func (o Optional[T]) Valid() bool {
	return o.valid
}

func (o Optional[T]) OrElse(def T) T {
	if o.valid {
		return o.value
	}
	return def
}

// String formats the value with %v, or returns "" when empty
func (o Optional[T]) String() string {
	if !o.valid {
		return ""
	}
	return fmt.Sprint(o.value)
}
