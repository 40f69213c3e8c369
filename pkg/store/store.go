// Package store is a simple key/value store for UI preferences.
//
// There are three implementations: in-memory (for tests and -storage=memory),
// a JSON file, and SQLite.
package store

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"zgo.at/errors"
	"zgo.at/json"
)

// Storage stores string values by key.
//
// Get returns false if the key doesn't exist; this is not an error.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// Open a storage from a connection string:
//
//	memory             In-memory; nothing is persisted.
//	file:path.json     JSON file.
//	sqlite+path.sqlite SQLite database.
func Open(ctx context.Context, conn string) (Storage, error) {
	switch {
	case conn == "memory":
		return NewMemory(), nil
	case strings.HasPrefix(conn, "file:"):
		return NewFile(conn[5:]), nil
	case strings.HasPrefix(conn, "sqlite+"), strings.HasPrefix(conn, "sqlite3+"):
		return NewDB(ctx, conn)
	}
	return nil, errors.Errorf("store.Open: unknown storage: %q", conn)
}

// Memory stores everything in memory.
type Memory struct {
	mu sync.Mutex
	m  map[string]string
}

func NewMemory() *Memory { return &Memory{m: make(map[string]string)} }

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.m[key]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.m[key] = value
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.m, key)
	return nil
}

func (m *Memory) Keys(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedKeys(m.m), nil
}

// File stores everything as a JSON object in a file.
//
// The file is read on every Get, and written on every Set; there is no
// coordination between processes and the last write wins.
type File struct {
	mu   sync.Mutex
	path string
}

func NewFile(path string) *File { return &File{path: path} }

func (f *File) read() (map[string]string, error) {
	m := make(map[string]string)
	b, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, errors.Wrap(err, "store.File")
	}
	if len(b) == 0 {
		return m, nil
	}
	err = json.Unmarshal(b, &m)
	if err != nil {
		return nil, errors.Wrapf(err, "store.File: reading %q", f.path)
	}
	return m, nil
}

func (f *File) write(m map[string]string) error {
	b, err := json.MarshalIndent(m, "", "\t")
	if err != nil {
		return errors.Wrap(err, "store.File")
	}

	if d := filepath.Dir(f.path); d != "" {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return errors.Wrap(err, "store.File")
		}
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return errors.Wrap(err, "store.File")
	}
	return errors.Wrap(os.Rename(tmp, f.path), "store.File")
}

func (f *File) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, err := f.read()
	if err != nil {
		return "", false, err
	}
	v, ok := m[key]
	return v, ok, nil
}

func (f *File) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, err := f.read()
	if err != nil {
		// Overwrite broken files rather than refusing to ever write
		// anything again.
		m = make(map[string]string)
	}
	m[key] = value
	return f.write(m)
}

func (f *File) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := m[key]; !ok {
		return nil
	}
	delete(m, key)
	return f.write(m)
}

func (f *File) Keys(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, err := f.read()
	if err != nil {
		return nil, err
	}
	return sortedKeys(m), nil
}

func sortedKeys(m map[string]string) []string {
	k := make([]string, 0, len(m))
	for kk := range m {
		k = append(k, kk)
	}
	sort.Strings(k)
	return k
}
