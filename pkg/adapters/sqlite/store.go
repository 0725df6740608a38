package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/cyrkana/pkg/domain"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

const (
	kindProfiles = "profiles"
	kindPhonetic = "phonetic"
	kindSchema   = "schema"
)

// DefaultPollInterval is how often Watch checks schema revisions.
const DefaultPollInterval = time.Second

// Store implements ports.PackSource, ports.PackPublisher and
// ports.Watchable on a SQLite database.
// Uses WAL mode so engines can read while a publisher writes.
type Store struct {
	db     *sql.DB
	poll   time.Duration
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithPollInterval overrides DefaultPollInterval.
func WithPollInterval(d time.Duration) Option {
	return func(s *Store) {
		s.poll = d
	}
}

// WithLogger sets the logger used by the watcher.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Open creates or opens a SQLite database at the given path and applies the
// pack schema. It is idempotent.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	s := &Store{
		db:     db,
		poll:   DefaultPollInterval,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Profiles returns the profile list document.
func (s *Store) Profiles(ctx context.Context) ([]byte, error) {
	return s.get(ctx, kindProfiles, "", "profiles")
}

// PhoneticTable returns the phonetic table document.
func (s *Store) PhoneticTable(ctx context.Context) ([]byte, error) {
	return s.get(ctx, kindPhonetic, "", "phonetic table")
}

// Schema returns the schema document stored under id.
func (s *Store) Schema(ctx context.Context, id string) ([]byte, error) {
	return s.get(ctx, kindSchema, id, "schema "+id)
}

// ListSchemas returns all schema ids, sorted.
func (s *Store) ListSchemas(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM pack_documents WHERE kind = ? ORDER BY id`, kindSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to list schemas: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan schema id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Publish upserts every document of pack in one transaction. Each upsert of
// an existing document bumps its revision.
func (s *Store) Publish(ctx context.Context, pack domain.Pack) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO pack_documents (kind, id, body, revision, updated_at)
		VALUES (?, ?, ?, 1, ?)
		ON CONFLICT (kind, id) DO UPDATE SET
			body = excluded.body,
			revision = pack_documents.revision + 1,
			updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UnixMilli()
	put := func(kind, id string, body []byte) error {
		if _, err := stmt.ExecContext(ctx, kind, id, body, now); err != nil {
			return fmt.Errorf("failed to store %s %q: %w", kind, id, err)
		}
		return nil
	}

	if pack.Profiles != nil {
		if err := put(kindProfiles, "", pack.Profiles); err != nil {
			return err
		}
	}
	if pack.Phonetic != nil {
		if err := put(kindPhonetic, "", pack.Phonetic); err != nil {
			return err
		}
	}
	for _, id := range pack.SchemaIDs() {
		if err := put(kindSchema, id, pack.Schemas[id]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit pack: %w", err)
	}
	return nil
}

// Watch polls schema revisions and reports the id of every schema that was
// added or changed since the previous poll.
func (s *Store) Watch(ctx context.Context) (<-chan string, error) {
	seen, err := s.revisions(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan string, 16)
	go func() {
		defer close(out)
		ticker := time.NewTicker(s.poll)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			current, err := s.revisions(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.logger.Error("failed to poll schema revisions", "err", err)
				continue
			}
			for id, rev := range current {
				if seen[id] == rev {
					continue
				}
				select {
				case out <- id:
				case <-ctx.Done():
					return
				}
			}
			seen = current
		}
	}()
	return out, nil
}

func (s *Store) revisions(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, revision FROM pack_documents WHERE kind = ?`, kindSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema revisions: %w", err)
	}
	defer rows.Close()

	revs := make(map[string]int64)
	for rows.Next() {
		var id string
		var rev int64
		if err := rows.Scan(&id, &rev); err != nil {
			return nil, fmt.Errorf("failed to scan revision: %w", err)
		}
		revs[id] = rev
	}
	return revs, rows.Err()
}

func (s *Store) get(ctx context.Context, kind, id, what string) ([]byte, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM pack_documents WHERE kind = ? AND id = ?`, kind, id).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, what)
		}
		return nil, fmt.Errorf("failed to load %s: %w", what, err)
	}
	return body, nil
}
