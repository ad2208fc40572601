package sharedvar

// Builder is a zero-argument factory producing a fresh B. Builders are
// stored as ordinary function-typed shared variables, so the registry is
// nothing but Create/Get over the same map.
type Builder[B any] func() B

// RegisterBuilder stores builder at key, overwriting any differently-typed
// variable already there. The returned record can be bound and copied like
// any other variable.
func RegisterBuilder[B any, K comparable](m *Map[K], key K, builder Builder[B]) *Record[K] {
	rec, _ := Create[Builder[B]](m, key, builder, true)
	return rec
}

// Build invokes the builder registered at key. The second result is false
// when the key is absent, holds a different builder type, or holds a nil
// builder.
func Build[B any, K comparable](m *Map[K], key K) (B, bool) {
	builder := Get[Builder[B]](m, key)
	if builder == nil {
		var zero B
		return zero, false
	}
	return builder(), true
}
