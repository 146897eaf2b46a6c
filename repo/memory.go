package repo

import (
	"context"
	"slices"

	"github.com/htol/bookshelf/book"
	"github.com/puzpuzpuz/xsync/v3"
)

// Memory is an in-process record store. Queries are far more frequent than
// writes, so reads go through a reader-biased mutex.
type Memory struct {
	mu      *xsync.RBMutex
	records []book.Book
	newID   IDFunc
}

// NewMemory creates an empty in-memory store
func NewMemory(opts ...Option) *Memory {
	o := buildOptions(opts)
	return &Memory{
		mu:      xsync.NewRBMutex(),
		records: make([]book.Book, 0),
		newID:   o.newID,
	}
}

func (m *Memory) Close() error {
	return nil
}

func (m *Memory) Ping() error {
	return nil
}

func (m *Memory) Insert(_ context.Context, f book.Fields) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.newID()
	m.records = append(m.records, f.WithID(id))
	return id, nil
}

func (m *Memory) Find(_ context.Context, id string) (book.Book, error) {
	t := m.mu.RLock()
	defer m.mu.RUnlock(t)

	if i := m.indexOf(id); i >= 0 {
		return m.records[i], nil
	}
	return book.Book{}, ErrNotFound
}

func (m *Memory) Update(_ context.Context, b book.Book) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(b.ID)
	if i < 0 {
		return false, nil
	}
	m.records[i] = b
	return true, nil
}

func (m *Memory) Remove(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return false, nil
	}
	m.records = slices.Delete(m.records, i, i+1)
	return true, nil
}

func (m *Memory) RemoveMany(_ context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	set := idSet(ids)

	m.mu.Lock()
	defer m.mu.Unlock()

	before := len(m.records)
	m.records = slices.DeleteFunc(m.records, func(b book.Book) bool {
		_, ok := set[b.ID]
		return ok
	})
	return before - len(m.records), nil
}

func (m *Memory) SetRead(_ context.Context, ids []string, read bool) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	set := idSet(ids)

	m.mu.Lock()
	defer m.mu.Unlock()

	found := 0
	for i := range m.records {
		if _, ok := set[m.records[i].ID]; ok {
			m.records[i].Read = read
			found++
		}
	}
	return found, nil
}

func (m *Memory) Snapshot(_ context.Context) ([]book.Book, error) {
	t := m.mu.RLock()
	defer m.mu.RUnlock(t)

	return slices.Clone(m.records), nil
}

func (m *Memory) Len(_ context.Context) (int, error) {
	t := m.mu.RLock()
	defer m.mu.RUnlock(t)

	return len(m.records), nil
}

// indexOf must be called with the lock held
func (m *Memory) indexOf(id string) int {
	return slices.IndexFunc(m.records, func(b book.Book) bool {
		return b.ID == id
	})
}
