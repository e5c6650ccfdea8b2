package prefs

// Prop is a single bound model value.
type Prop[T any] struct {
	value T
}

func NewProp[T any](v T) *Prop[T] {
	return &Prop[T]{value: v}
}

func (p *Prop[T]) Get() T {
	return p.value
}

func (p *Prop[T]) Set(v T) {
	p.value = v
}
