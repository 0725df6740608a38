package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/cyrkana/pkg/domain"
	"github.com/fsnotify/fsnotify"
)

const (
	// ProfilesFile is the profile list document inside a pack directory.
	ProfilesFile = "profiles.json"
	// PhoneticFile is the phonetic table document inside a pack directory.
	PhoneticFile = "kana_engine.json"
	// SchemasDir holds one <schemaID>.json document per schema.
	SchemasDir = "schemas"
)

// DefaultDebounce coalesces the burst of events editors emit on save.
const DefaultDebounce = 100 * time.Millisecond

// Source implements ports.PackSource, ports.PackPublisher and
// ports.Watchable over a pack directory:
//
//	<root>/profiles.json
//	<root>/kana_engine.json
//	<root>/schemas/<schemaID>.json
type Source struct {
	Root     string
	Debounce time.Duration
	logger   *slog.Logger
}

// Option configures a Source.
type Option func(*Source)

// WithLogger sets the logger used by the watcher.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) {
		s.logger = logger
	}
}

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(s *Source) {
		s.Debounce = d
	}
}

// New creates a Source rooted at root.
func New(root string, opts ...Option) *Source {
	s := &Source{
		Root:     root,
		Debounce: DefaultDebounce,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Profiles reads profiles.json.
func (s *Source) Profiles(ctx context.Context) ([]byte, error) {
	return s.read(filepath.Join(s.Root, ProfilesFile), "profiles")
}

// PhoneticTable reads kana_engine.json.
func (s *Source) PhoneticTable(ctx context.Context) ([]byte, error) {
	return s.read(filepath.Join(s.Root, PhoneticFile), "phonetic table")
}

// Schema reads schemas/<id>.json.
func (s *Source) Schema(ctx context.Context, id string) ([]byte, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id != filepath.Base(id) {
		return nil, fmt.Errorf("%w: invalid schema id %q", domain.ErrDocumentNotFound, id)
	}
	return s.read(s.schemaPath(id), "schema "+id)
}

// ListSchemas returns the ids of every schemas/*.json document, sorted.
func (s *Source) ListSchemas(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.Root, SchemasDir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list schemas: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

// Publish writes every document of pack into the directory. Each file is
// replaced atomically so a concurrent reader never sees a partial document.
func (s *Source) Publish(ctx context.Context, pack domain.Pack) error {
	if err := os.MkdirAll(filepath.Join(s.Root, SchemasDir), 0755); err != nil {
		return fmt.Errorf("failed to ensure pack directory: %w", err)
	}

	if pack.Profiles != nil {
		if err := writeAtomic(filepath.Join(s.Root, ProfilesFile), pack.Profiles); err != nil {
			return err
		}
	}
	if pack.Phonetic != nil {
		if err := writeAtomic(filepath.Join(s.Root, PhoneticFile), pack.Phonetic); err != nil {
			return err
		}
	}
	for _, id := range pack.SchemaIDs() {
		if err := writeAtomic(s.schemaPath(id), pack.Schemas[id]); err != nil {
			return err
		}
	}
	return nil
}

// Watch reports the id of every schema file that is written or created.
// Events for one id within the debounce window are coalesced.
func (s *Source) Watch(ctx context.Context) (<-chan string, error) {
	dir := filepath.Join(s.Root, SchemasDir)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch directory: %w", err)
	}

	out := make(chan string, 16)
	go s.watchLoop(ctx, watcher, out)
	return out, nil
}

func (s *Source) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, out chan<- string) {
	var (
		mu      sync.Mutex
		timers  = make(map[string]*time.Timer)
		stopped bool
	)

	defer func() {
		mu.Lock()
		stopped = true
		for _, t := range timers {
			t.Stop()
		}
		mu.Unlock()
		watcher.Close()
		close(out)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Ext(event.Name) != ".json" {
				continue
			}
			// Atomic writes show up as Create (rename) on most platforms.
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			id := strings.TrimSuffix(filepath.Base(event.Name), ".json")
			mu.Lock()
			if t, ok := timers[id]; ok {
				t.Stop()
			}
			timers[id] = time.AfterFunc(s.Debounce, func() {
				mu.Lock()
				defer mu.Unlock()
				delete(timers, id)
				if stopped {
					return
				}
				select {
				case out <- id:
				default:
					s.logger.Warn("dropping schema change, watcher is not keeping up", "schema_id", id)
				}
			})
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Error("schema watcher error", "err", err)
		}
	}
}

func (s *Source) schemaPath(id string) string {
	return filepath.Join(s.Root, SchemasDir, id+".json")
}

func (s *Source) read(path, what string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s (%s)", domain.ErrDocumentNotFound, what, path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", what, err)
	}
	return data, nil
}

// writeAtomic writes to a temp file in the same directory, syncs it and
// renames it over path.
func writeAtomic(path string, data []byte) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename %s: %w", filepath.Base(path), err)
	}
	return nil
}
