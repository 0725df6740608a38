package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/cyrkana/pkg/adapters/file"
	loamsrc "github.com/aretw0/cyrkana/pkg/adapters/loam"
	redisadapter "github.com/aretw0/cyrkana/pkg/adapters/redis"
	"github.com/aretw0/cyrkana/pkg/adapters/sqlite"
	"github.com/aretw0/cyrkana/pkg/ports"
)

// ProfilesDir is the Loam vault inside a pack opened with loam://.
const ProfilesDir = "profiles"

// ErrUnknownScheme is returned for source URIs no opener is registered for.
var ErrUnknownScheme = errors.New("unknown source scheme")

// Opener builds a pack source from a parsed source URI.
type Opener func(ctx context.Context, u *url.URL, logger *slog.Logger) (ports.PackSource, error)

// Registry maps URI schemes to pack source openers.
type Registry struct {
	mu      sync.RWMutex
	openers map[string]Opener
	logger  *slog.Logger
}

// NewRegistry creates a new empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Registry{
		openers: make(map[string]Opener),
		logger:  logger,
	}
}

// Default returns a registry with the file, redis, sqlite and loam schemes.
func Default(logger *slog.Logger) *Registry {
	r := NewRegistry(logger)
	r.Register("file", openFile)
	r.Register("redis", openRedis)
	r.Register("sqlite", openSQLite)
	r.Register("loam", openLoam)
	return r
}

// Register adds an opener for scheme.
// If an opener for the same scheme exists, it is overwritten.
func (r *Registry) Register(scheme string, fn Opener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.openers[strings.ToLower(scheme)] = fn
}

// Schemes lists the registered schemes, sorted.
func (r *Registry) Schemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.openers))
	for s := range r.openers {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Open resolves uri to a pack source. A plain path is a file pack.
// Sources holding connections implement io.Closer; release them with Close.
func (r *Registry) Open(ctx context.Context, uri string) (ports.PackSource, error) {
	u, err := Parse(uri)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	fn, ok := r.openers[u.Scheme]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScheme, u.Scheme)
	}

	src, err := fn(ctx, u, r.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s source: %w", u.Scheme, err)
	}
	r.logger.Debug("pack source opened", "scheme", u.Scheme, "location", u.Redacted())
	return src, nil
}

// Parse parses a source URI. Strings without a scheme, including Windows
// drive paths, are treated as file paths.
func Parse(uri string) (*url.URL, error) {
	if uri == "" {
		return nil, errors.New("empty source uri")
	}
	if !strings.Contains(uri, "://") {
		return &url.URL{Scheme: "file", Path: uri}, nil
	}

	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid source uri: %w", err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	return u, nil
}

// Close releases src if it holds resources.
func Close(src ports.PackSource) error {
	if c, ok := src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// localPath turns file-like URIs into a path. file://pack and file:///abs/pack
// both work; the host part is treated as the first path segment.
func localPath(u *url.URL) string {
	p := u.Host + u.Path
	if u.Opaque != "" {
		p = u.Opaque
	}
	if p == "" {
		return "."
	}
	return filepath.FromSlash(p)
}

func openFile(ctx context.Context, u *url.URL, logger *slog.Logger) (ports.PackSource, error) {
	opts := []file.Option{file.WithLogger(logger)}
	if d := u.Query().Get("debounce"); d != "" {
		dur, err := time.ParseDuration(d)
		if err != nil {
			return nil, fmt.Errorf("invalid debounce %q: %w", d, err)
		}
		opts = append(opts, file.WithDebounce(dur))
	}
	return file.New(localPath(u), opts...), nil
}

func openRedis(ctx context.Context, u *url.URL, logger *slog.Logger) (ports.PackSource, error) {
	addr := u.Host
	if addr == "" {
		addr = "localhost:6379"
	}

	var password string
	if u.User != nil {
		password, _ = u.User.Password()
	}

	db := 0
	if p := strings.Trim(u.Path, "/"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid redis db %q: %w", p, err)
		}
		db = n
	}

	opts := []redisadapter.Option{redisadapter.WithLogger(logger)}
	if prefix := u.Query().Get("prefix"); prefix != "" {
		opts = append(opts, redisadapter.WithPrefix(prefix))
	}
	return redisadapter.New(addr, password, db, opts...), nil
}

func openSQLite(ctx context.Context, u *url.URL, logger *slog.Logger) (ports.PackSource, error) {
	opts := []sqlite.Option{sqlite.WithLogger(logger)}
	if d := u.Query().Get("poll"); d != "" {
		dur, err := time.ParseDuration(d)
		if err != nil {
			return nil, fmt.Errorf("invalid poll interval %q: %w", d, err)
		}
		opts = append(opts, sqlite.WithPollInterval(dur))
	}
	store, err := sqlite.Open(localPath(u), opts...)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// openLoam opens a pack whose profiles are Loam documents under
// <root>/profiles while the phonetic table and schemas are regular files.
func openLoam(ctx context.Context, u *url.URL, logger *slog.Logger) (ports.PackSource, error) {
	root := localPath(u)
	profiles, err := loamsrc.Open(filepath.Join(root, ProfilesDir))
	if err != nil {
		return nil, err
	}
	rest := file.New(root, file.WithLogger(logger))
	return &Composite{
		ProfileSource:  profiles,
		PhoneticSource: rest,
		SchemaSource:   rest,
	}, nil
}

// Composite assembles a pack source from independent parts.
type Composite struct {
	ports.ProfileSource
	ports.PhoneticSource
	ports.SchemaSource
}

// Watch forwards to the schema source when it can be watched.
func (c *Composite) Watch(ctx context.Context) (<-chan string, error) {
	w, ok := c.SchemaSource.(ports.Watchable)
	if !ok {
		return nil, fmt.Errorf("schema source does not support watching")
	}
	return w.Watch(ctx)
}
