// Package bimap implements the small bidirectional-map utility named in
// spec.md §2 ("BiMap utility: bidirectional mapping used for task<->info
// and related lookups"). It is built on plain Go maps; no pack library
// targets this narrow a data structure, so it is implemented directly
// against the standard library (see DESIGN.md).
package bimap

// BiMap is a one-to-one mapping between K and V, queryable in either
// direction. It is not safe for concurrent use.
type BiMap[K comparable, V comparable] struct {
	forward map[K]V
	reverse map[V]K
}

// New returns an empty BiMap.
func New[K comparable, V comparable]() *BiMap[K, V] {
	return &BiMap[K, V]{
		forward: make(map[K]V),
		reverse: make(map[V]K),
	}
}

// Put associates k and v, replacing any prior association for either
// side.
func (b *BiMap[K, V]) Put(k K, v V) {
	if oldV, ok := b.forward[k]; ok {
		delete(b.reverse, oldV)
	}
	if oldK, ok := b.reverse[v]; ok {
		delete(b.forward, oldK)
	}
	b.forward[k] = v
	b.reverse[v] = k
}

// Get looks up the value associated with k.
func (b *BiMap[K, V]) Get(k K) (V, bool) {
	v, ok := b.forward[k]
	return v, ok
}

// GetKey looks up the key associated with v.
func (b *BiMap[K, V]) GetKey(v V) (K, bool) {
	k, ok := b.reverse[v]
	return k, ok
}

// DeleteKey removes the association rooted at k, if any.
func (b *BiMap[K, V]) DeleteKey(k K) {
	if v, ok := b.forward[k]; ok {
		delete(b.forward, k)
		delete(b.reverse, v)
	}
}

// Len returns the number of associations.
func (b *BiMap[K, V]) Len() int { return len(b.forward) }
