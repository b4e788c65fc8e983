// Package collections provides insert-or-create helpers for maps whose values
// are lists, sets or maps.
package collections

// AddToListMap appends value to the list stored under key, creating the list
// if needed.
func AddToListMap[K comparable, V any](m map[K][]V, key K, value V) {
	m[key] = append(m[key], value)
}

// AddToSetMap adds value to the set stored under key, creating the set if
// needed. Adding a value twice is a no-op.
func AddToSetMap[K, V comparable](m map[K]map[V]struct{}, key K, value V) {
	set, ok := m[key]
	if !ok {
		set = make(map[V]struct{})
		m[key] = set
	}
	set[value] = struct{}{}
}

// AddToMapMap stores value under (key1, key2), creating the inner map if needed.
func AddToMapMap[K1, K2 comparable, V any](m map[K1]map[K2]V, key1 K1, key2 K2, value V) {
	inner, ok := m[key1]
	if !ok {
		inner = make(map[K2]V)
		m[key1] = inner
	}
	inner[key2] = value
}

// RemoveFromListMap removes the first element of the list under key that is
// identical to value. An emptied list is deleted from the map. It reports
// whether an element was removed.
func RemoveFromListMap[K, V comparable](m map[K][]V, key K, value V) bool {
	list, ok := m[key]
	if !ok {
		return false
	}
	i := IndexOf(list, value)
	if i < 0 {
		return false
	}
	list = RemoveAt(list, i)
	if len(list) == 0 {
		delete(m, key)
	} else {
		m[key] = list
	}
	return true
}

// IndexOf returns the position of the first element identical to value, or -1.
func IndexOf[V comparable](list []V, value V) int {
	for i, v := range list {
		if v == value {
			return i
		}
	}
	return -1
}

// RemoveAt removes the element at i, preserving order.
func RemoveAt[V any](list []V, i int) []V {
	copy(list[i:], list[i+1:])
	var zero V
	list[len(list)-1] = zero
	return list[:len(list)-1]
}

// Remove removes the first element identical to value, preserving order.
func Remove[V comparable](list []V, value V) ([]V, bool) {
	i := IndexOf(list, value)
	if i < 0 {
		return list, false
	}
	return RemoveAt(list, i), true
}
