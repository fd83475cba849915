package inmemdb

import (
	"sync"

	"github.com/trezcool/formnet/core/form"
	"github.com/trezcool/formnet/core/network"
	"github.com/trezcool/formnet/core/response"
	"github.com/trezcool/formnet/core/user"
)

type (
	// DB is a process-wide in-memory store. Every table is safe for concurrent use.
	DB struct {
		form     *table[form.Form]
		response *table[response.Response]
		user     *table[user.User]
		subnet   *table[network.Subnet]
		center   *table[network.Center]
		family   *table[network.Family]
	}

	// table keeps records by primary key, remembering insertion order.
	table[T any] struct {
		sync.RWMutex
		rows  map[string]T
		order []string
	}
)

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[string]T)}
}

func Open() *DB {
	return &DB{
		form:     newTable[form.Form](),
		response: newTable[response.Response](),
		user:     newTable[user.User](),
		subnet:   newTable[network.Subnet](),
		center:   newTable[network.Center](),
		family:   newTable[network.Family](),
	}
}

// insert must be called with the write lock held.
func (t *table[T]) insert(id string, row T) {
	if _, ok := t.rows[id]; !ok {
		t.order = append(t.order, id)
	}
	t.rows[id] = row
}

// all returns the rows in insertion order. Must be called with a lock held.
func (t *table[T]) all() []T {
	rows := make([]T, 0, len(t.order))
	for _, id := range t.order {
		rows = append(rows, t.rows[id])
	}
	return rows
}

// filter returns, in insertion order, the rows satisfying keep. Must be called with a lock held.
func (t *table[T]) filter(keep func(T) bool) []T {
	rows := make([]T, 0)
	for _, row := range t.all() {
		if keep(row) {
			rows = append(rows, row)
		}
	}
	return rows
}
