package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/cyrkana/internal/testutils"
	"github.com/aretw0/cyrkana/pkg/adapters/sqlite"
	"github.com/aretw0/cyrkana/pkg/domain"
	contract "github.com/aretw0/cyrkana/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T, opts ...sqlite.Option) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "pack.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_PublisherContract(t *testing.T) {
	s := openStore(t)
	contract.PackPublisherContractTest(t, s, s, testutils.Pack(t))
}

func TestStore_OpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pack.db")
	ctx := context.Background()

	s1, err := sqlite.Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Publish(ctx, domain.Pack{Phonetic: []byte(`{"a":"あ"}`)}))
	require.NoError(t, s1.Close())

	s2, err := sqlite.Open(path)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.PhoneticTable(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"あ"}`, string(got))
}

func TestStore_NotFound(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	_, err := s.Profiles(ctx)
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	_, err = s.Schema(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)

	ids, err := s.ListSchemas(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestStore_Watch(t *testing.T) {
	s := openStore(t, sqlite.WithPollInterval(10*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Publish(ctx, domain.Pack{Schemas: map[string][]byte{"a": []byte(`{}`)}}))

	changes, err := s.Watch(ctx)
	require.NoError(t, err)

	// Republishing bumps the revision of "a" only.
	require.NoError(t, s.Publish(ctx, domain.Pack{Schemas: map[string][]byte{"a": []byte(`{"А":{"kana_key":"a"}}`)}}))

	select {
	case id := <-changes:
		assert.Equal(t, "a", id)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for revision change")
	}
}
