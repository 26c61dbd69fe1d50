package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-memory DocStore with the same optimistic
// concurrency rules as the Git-backed store. It backs the test suites
// of every package that mutates documents.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[string]memoryDoc
	rev  int
}

type memoryDoc struct {
	content []byte
	token   string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]memoryDoc)}
}

func (m *MemoryStore) Get(_ context.Context, path string) ([]byte, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[path]
	if !ok {
		return nil, "", fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	content := make([]byte, len(doc.content))
	copy(content, doc.content)
	return content, doc.token, nil
}

func (m *MemoryStore) Put(_ context.Context, path string, content []byte, token, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, exists := m.docs[path]
	if !exists && token != "" {
		return fmt.Errorf("%s: %w", path, ErrConflict)
	}
	if exists && token != cur.token {
		return fmt.Errorf("%s: %w", path, ErrConflict)
	}

	m.rev++
	stored := make([]byte, len(content))
	copy(stored, content)
	m.docs[path] = memoryDoc{content: stored, token: fmt.Sprintf("rev-%d", m.rev)}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, path, token, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, exists := m.docs[path]
	if !exists {
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if token != cur.token {
		return fmt.Errorf("%s: %w", path, ErrConflict)
	}
	delete(m.docs, path)
	return nil
}

func (m *MemoryStore) List(_ context.Context, folder string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prefix := strings.TrimSuffix(folder, "/") + "/"
	var paths []string
	for path := range m.docs {
		if strings.HasPrefix(path, prefix) {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// Len returns the number of stored documents.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs)
}

// Has reports whether a document exists at path.
func (m *MemoryStore) Has(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.docs[path]
	return ok
}
