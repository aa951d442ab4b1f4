package model

import (
	"iter"
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// Map is a string-keyed map that keeps insertion order. The zero value is
// ready to use. Re-setting an existing key keeps its position.
type Map[V any] struct {
	om *orderedmap.OrderedMap[string, V]
}

func (m *Map[V]) lazy() *orderedmap.OrderedMap[string, V] {
	if m.om == nil {
		m.om = orderedmap.New[string, V]()
	}
	return m.om
}

// Set stores v under key.
func (m *Map[V]) Set(key string, v V) {
	m.lazy().Set(key, v)
}

// Get returns the value stored under key.
func (m *Map[V]) Get(key string) (V, bool) {
	if m == nil || m.om == nil {
		var zero V
		return zero, false
	}
	return m.om.Get(key)
}

// Has reports whether key is present.
func (m *Map[V]) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Delete removes key if present.
func (m *Map[V]) Delete(key string) {
	if m == nil || m.om == nil {
		return
	}
	m.om.Delete(key)
}

// Len returns the number of entries.
func (m *Map[V]) Len() int {
	if m == nil || m.om == nil {
		return 0
	}
	return m.om.Len()
}

// All iterates entries in insertion order.
func (m *Map[V]) All() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		if m == nil || m.om == nil {
			return
		}
		for pair := m.om.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Key, pair.Value) {
				return
			}
		}
	}
}

// Keys returns the keys in insertion order.
func (m *Map[V]) Keys() []string {
	keys := make([]string, 0, m.Len())
	for k := range m.All() {
		keys = append(keys, k)
	}
	return keys
}

// Values returns the values in insertion order.
func (m *Map[V]) Values() []V {
	vals := make([]V, 0, m.Len())
	for _, v := range m.All() {
		vals = append(vals, v)
	}
	return vals
}

// Rename moves the entry stored under from to the key to, keeping its
// position. An existing entry under to is replaced.
func (m *Map[V]) Rename(from, to string) bool {
	if from == to {
		return m.Has(from)
	}
	v, ok := m.Get(from)
	if !ok {
		return false
	}
	next := orderedmap.New[string, V]()
	for k, cur := range m.All() {
		switch k {
		case from:
			next.Set(to, v)
		case to:
		default:
			next.Set(k, cur)
		}
	}
	m.om = next
	return true
}

// Clone returns a map holding the same entries in the same order.
func (m *Map[V]) Clone() Map[V] {
	var out Map[V]
	for k, v := range m.All() {
		out.Set(k, v)
	}
	return out
}

// MarshalJSON encodes the map as a JSON object in insertion order.
func (m *Map[V]) MarshalJSON() ([]byte, error) {
	if m == nil || m.om == nil {
		return []byte("{}"), nil
	}
	return m.om.MarshalJSON()
}

// MarshalYAML encodes the map as a YAML mapping in insertion order.
func (m *Map[V]) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for k, v := range m.All() {
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
		val := &yaml.Node{}
		if err := val.Encode(v); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, key, val)
	}
	return node, nil
}

// Set is an insertion-ordered set of strings.
type Set struct {
	items []string
}

// Add appends v unless it is empty or already present.
func (s *Set) Add(v string) {
	if v == "" || s.Has(v) {
		return
	}
	s.items = append(s.items, v)
}

// Has reports whether v is in the set.
func (s *Set) Has(v string) bool {
	return slices.Contains(s.items, v)
}

// Len returns the number of items.
func (s *Set) Len() int { return len(s.items) }

// Items returns a copy of the items in insertion order. It never returns nil.
func (s *Set) Items() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// Clone returns an independent copy of s.
func (s *Set) Clone() Set {
	return Set{items: slices.Clone(s.items)}
}

// Sorted returns a sorted copy of the items.
func (s *Set) Sorted() []string {
	out := s.Items()
	slices.Sort(out)
	return out
}
