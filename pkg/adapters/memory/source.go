package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/cyrkana/pkg/domain"
)

// Source implements ports.PackSource, ports.PackPublisher and
// ports.Watchable on top of in-memory documents.
// Useful for embedding a pack in a binary and for tests.
type Source struct {
	mu       sync.RWMutex
	profiles []byte
	phonetic []byte
	schemas  map[string][]byte

	subMu sync.Mutex
	subs  []chan string
}

// New creates a Source holding a copy of pack.
func New(pack domain.Pack) *Source {
	s := &Source{schemas: make(map[string][]byte)}
	s.set(pack)
	return s
}

// NewFromValues creates a Source from domain values.
// This handles serialization automatically, improving DX for tests.
func NewFromValues(profiles []domain.Profile, table domain.PhoneticTable, schemas map[string]domain.Schema) (*Source, error) {
	pack := domain.Pack{Schemas: make(map[string][]byte, len(schemas))}

	var err error
	if pack.Profiles, err = json.Marshal(profiles); err != nil {
		return nil, fmt.Errorf("failed to marshal profiles: %w", err)
	}
	if pack.Phonetic, err = json.Marshal(table); err != nil {
		return nil, fmt.Errorf("failed to marshal phonetic table: %w", err)
	}
	for id, schema := range schemas {
		data, err := json.Marshal(schema)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal schema %s: %w", id, err)
		}
		pack.Schemas[id] = data
	}
	return New(pack), nil
}

// Profiles returns the profile list document.
func (s *Source) Profiles(ctx context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profiles == nil {
		return nil, fmt.Errorf("%w: profiles", domain.ErrDocumentNotFound)
	}
	return clone(s.profiles), nil
}

// PhoneticTable returns the phonetic table document.
func (s *Source) PhoneticTable(ctx context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.phonetic == nil {
		return nil, fmt.Errorf("%w: phonetic table", domain.ErrDocumentNotFound)
	}
	return clone(s.phonetic), nil
}

// Schema returns the schema document stored under id.
func (s *Source) Schema(ctx context.Context, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.schemas[id]
	if !ok {
		return nil, fmt.Errorf("%w: schema %s", domain.ErrDocumentNotFound, id)
	}
	return clone(data), nil
}

// ListSchemas returns all schema ids, sorted.
func (s *Source) ListSchemas(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.schemas))
	for id := range s.schemas {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// PutSchema stores a schema document and notifies watchers.
func (s *Source) PutSchema(id string, data []byte) {
	s.mu.Lock()
	s.schemas[id] = clone(data)
	s.mu.Unlock()
	s.notify(id)
}

// Publish replaces the documents present in pack and notifies watchers of
// every schema it carries.
func (s *Source) Publish(ctx context.Context, pack domain.Pack) error {
	s.set(pack)
	for _, id := range pack.SchemaIDs() {
		s.notify(id)
	}
	return nil
}

// Watch returns a channel of changed schema ids. It is closed when ctx is done.
func (s *Source) Watch(ctx context.Context) (<-chan string, error) {
	ch := make(chan string, 16)

	s.subMu.Lock()
	s.subs = append(s.subs, ch)
	s.subMu.Unlock()

	go func() {
		<-ctx.Done()
		s.subMu.Lock()
		defer s.subMu.Unlock()
		for i, sub := range s.subs {
			if sub == ch {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				break
			}
		}
		close(ch)
	}()
	return ch, nil
}

func (s *Source) set(pack domain.Pack) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pack.Profiles != nil {
		s.profiles = clone(pack.Profiles)
	}
	if pack.Phonetic != nil {
		s.phonetic = clone(pack.Phonetic)
	}
	for id, data := range pack.Schemas {
		s.schemas[id] = clone(data)
	}
}

// notify never blocks: a slow watcher misses events instead of stalling writers.
func (s *Source) notify(id string) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- id:
		default:
		}
	}
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
