package modules

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/GoCodeAlone/capreg"
)

// kvStore is a namespaced key-value map shared by both storage modules.
type kvStore struct {
	prefix string

	mu   sync.RWMutex
	data map[string]string
}

func newKVStore(prefix string) *kvStore {
	return &kvStore{prefix: prefix, data: make(map[string]string)}
}

func (s *kvStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[s.prefix+key]
	return v, ok
}

func (s *kvStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[s.prefix+key] = value
}

func (s *kvStore) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, s.prefix+key)
}

// Keys returns the stored keys, sorted, without the namespace prefix.
func (s *kvStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, strings.TrimPrefix(k, s.prefix))
	}
	slices.Sort(keys)
	return keys
}

// Storage is the manifest-scoped storage module of verified tasks.
type Storage struct {
	*kvStore
	scope string
}

// NewStorage creates the storage module. Keys are namespaced by the manifest
// id.
func NewStorage(rt *capreg.RuntimeContext, manifest capreg.Manifest) (*Storage, error) {
	if rt == nil {
		return nil, ErrRuntimeRequired
	}
	id, err := scopeOf(manifest)
	if err != nil {
		return nil, err
	}
	return &Storage{kvStore: newKVStore(id + ":"), scope: id}, nil
}

func (m *Storage) Name() string { return "AsyncStorage" }

// Scope returns the manifest id the storage is scoped to.
func (m *Storage) Scope() string { return m.scope }

// UnsignedStorage is the sandboxed storage fallback for unverified tasks. It
// lives for the session only.
type UnsignedStorage struct {
	*kvStore
}

// NewUnsignedStorage creates the unsigned storage module.
func NewUnsignedStorage(rt *capreg.RuntimeContext) (*UnsignedStorage, error) {
	if rt == nil {
		return nil, ErrRuntimeRequired
	}
	return &UnsignedStorage{kvStore: newKVStore("unsigned:" + rt.SessionID + ":")}, nil
}

func (m *UnsignedStorage) Name() string { return "AsyncStorage" }

// DefaultScope namespaces tasks whose manifest carries no id.
const DefaultScope = "@anonymous"

// scopeOf returns the manifest id used to namespace task data. A manifest
// without an id shares DefaultScope; an id that is not a non-empty string is
// rejected.
func scopeOf(manifest capreg.Manifest) (string, error) {
	v, ok := manifest[capreg.ManifestIDKey]
	if !ok {
		return DefaultScope, nil
	}
	id, isString := v.(string)
	if !isString || id == "" {
		return "", fmt.Errorf("%w: got %T %v", ErrInvalidManifestID, v, v)
	}
	return id, nil
}
