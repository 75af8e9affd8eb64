package ast

import (
	"iter"
)

// arena is an append-only store. Handles are position+1.
type arena[ID ~uint32, T any] struct {
	items  []T
	labels []string
	names  map[string]ID
}

func (a *arena[ID, T]) insert(name string, v T) (ID, bool) {
	if name != "" {
		if _, dup := a.names[name]; dup {
			return 0, false
		}
	}
	a.items = append(a.items, v)
	a.labels = append(a.labels, name)
	id := ID(len(a.items))
	if name != "" {
		if a.names == nil {
			a.names = make(map[string]ID)
		}
		a.names[name] = id
	}
	return id, true
}

func (a *arena[ID, T]) get(id ID) (T, bool) {
	if id == 0 || int(id) > len(a.items) {
		var zero T
		return zero, false
	}
	return a.items[id-1], true
}

func (a *arena[ID, T]) byIndex(idx uint32) (ID, bool) {
	if uint64(idx) >= uint64(len(a.items)) {
		return 0, false
	}
	return ID(idx + 1), true
}

func (a *arena[ID, T]) byName(name string) (ID, bool) {
	id, ok := a.names[name]
	return id, ok
}

func (a *arena[ID, T]) name(id ID) string {
	if id == 0 || int(id) > len(a.labels) {
		return ""
	}
	return a.labels[id-1]
}

func (a *arena[ID, T]) all() iter.Seq2[ID, T] {
	return func(yield func(ID, T) bool) {
		for i, v := range a.items {
			if !yield(ID(i+1), v) {
				return
			}
		}
	}
}
