// Package filestore is the durable settings.Store implementation: the Go
// analogue of browser local storage. Each namespace (URL-slug prefix, per
// spec.md §6) gets its own msgpack-encoded file, keeping the on-disk
// representation compact and typed rather than a loosely-formatted text
// file — grounded on BioHazard786-Warpdrop's use of msgpack for structured
// wire envelopes, repurposed here for structured persisted state.
package filestore

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

type Store struct {
	dir string
	mu  sync.Mutex
	// cache keeps every namespace file decoded so far, with no eviction;
	// namespaces are small and reconciliation happens once per
	// connection, so no LRU bounds it.
	cache map[string]map[string]string
}

func New(dir string) *Store {
	return &Store{dir: dir, cache: make(map[string]map[string]string)}
}

func (s *Store) path(namespace string) string {
	return filepath.Join(s.dir, namespace+".msgpack")
}

func (s *Store) load(namespace string) map[string]string {
	if m, ok := s.cache[namespace]; ok {
		return m
	}
	m := make(map[string]string)
	if b, err := os.ReadFile(s.path(namespace)); err == nil {
		_ = msgpack.Unmarshal(b, &m)
	}
	s.cache[namespace] = m
	return m
}

func (s *Store) Get(namespace, key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.load(namespace)
	v, ok := m[key]
	return v, ok
}

func (s *Store) Set(namespace, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.load(namespace)
	m[key] = value
	s.cache[namespace] = m

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	b, err := msgpack.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(namespace), b, 0o644)
}
