// Package objects defines the CIM object model.
//
// This package provides Go representations of the CIM meta elements that
// appear in CIM-XML documents: instances, classes, instance paths,
// properties, methods, parameters and qualifiers. All of them are plain
// mutable value objects with no internal locking; sharing one across
// goroutines requires external synchronization.
//
// # Names
//
// CIM element names are case-insensitive but case-preserving: a property
// created as "Name" can be looked up as "NAME" and is written back to the
// wire as "Name". The NamedMap container implements those semantics and
// keeps insertion order, which CIM-XML documents are sensitive to.
//
// # Reference
//
// DSP0004 Section 5 (CIM meta schema)
package objects

import "strings"

type entry[V any] struct {
	name  string
	value V
}

// NamedMap is an insertion-ordered mapping with case-insensitive,
// case-preserving string keys. It backs the property, method, parameter,
// qualifier and keybinding collections of the object model.
//
// The zero value is not usable; call NewNamedMap.
type NamedMap[V any] struct {
	index map[string]int
	items []entry[V]
}

// NewNamedMap creates an empty NamedMap.
func NewNamedMap[V any]() *NamedMap[V] {
	return &NamedMap[V]{index: make(map[string]int)}
}

func foldName(name string) string {
	return strings.ToLower(name)
}

// Get returns the value stored under name, folding case.
func (m *NamedMap[V]) Get(name string) (V, bool) {
	if m == nil {
		var zero V
		return zero, false
	}
	i, ok := m.index[foldName(name)]
	if !ok {
		var zero V
		return zero, false
	}
	return m.items[i].value, true
}

// Set stores value under name. A case-insensitive match replaces the
// existing entry in place, keeping its position but adopting the new
// spelling of the name.
func (m *NamedMap[V]) Set(name string, value V) {
	key := foldName(name)
	if i, ok := m.index[key]; ok {
		m.items[i] = entry[V]{name: name, value: value}
		return
	}
	m.index[key] = len(m.items)
	m.items = append(m.items, entry[V]{name: name, value: value})
}

// Delete removes the entry stored under name, folding case. It reports
// whether an entry was removed.
func (m *NamedMap[V]) Delete(name string) bool {
	key := foldName(name)
	i, ok := m.index[key]
	if !ok {
		return false
	}
	m.items = append(m.items[:i], m.items[i+1:]...)
	delete(m.index, key)
	for k, j := range m.index {
		if j > i {
			m.index[k] = j - 1
		}
	}
	return true
}

// Len returns the number of entries.
func (m *NamedMap[V]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.items)
}

// Names returns the original-case names in insertion order.
func (m *NamedMap[V]) Names() []string {
	if m == nil {
		return nil
	}
	names := make([]string, len(m.items))
	for i, e := range m.items {
		names[i] = e.name
	}
	return names
}

// Values returns the values in insertion order.
func (m *NamedMap[V]) Values() []V {
	if m == nil {
		return nil
	}
	values := make([]V, len(m.items))
	for i, e := range m.items {
		values[i] = e.value
	}
	return values
}

// Each calls fn for every entry in insertion order. Iteration stops when fn
// returns false.
func (m *NamedMap[V]) Each(fn func(name string, value V) bool) {
	if m == nil {
		return
	}
	for _, e := range m.items {
		if !fn(e.name, e.value) {
			return
		}
	}
}

// equalNamedMap compares two maps entry-wise: same length, same order, same
// case-folded names, values equal under eq.
func equalNamedMap[V any](a, b *NamedMap[V], eq func(x, y V) bool) bool {
	if a.Len() != b.Len() {
		return false
	}
	if a == nil || b == nil {
		return true
	}
	for i := range a.items {
		if foldName(a.items[i].name) != foldName(b.items[i].name) {
			return false
		}
		if !eq(a.items[i].value, b.items[i].value) {
			return false
		}
	}
	return true
}
