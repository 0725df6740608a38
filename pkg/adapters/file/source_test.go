package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/cyrkana/internal/testutils"
	"github.com/aretw0/cyrkana/pkg/adapters/file"
	"github.com/aretw0/cyrkana/pkg/domain"
	contract "github.com/aretw0/cyrkana/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource_Contract(t *testing.T) {
	pack := testutils.Pack(t)
	dir := testutils.WritePack(t, t.TempDir(), pack)
	contract.PackSourceContractTest(t, file.New(dir), pack)
}

func TestSource_PublisherContract(t *testing.T) {
	src := file.New(filepath.Join(t.TempDir(), "published"))
	contract.PackPublisherContractTest(t, src, src, testutils.Pack(t))
}

func TestSource_MissingDocuments(t *testing.T) {
	ctx := context.Background()
	src := file.New(t.TempDir())

	_, err := src.Profiles(ctx)
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	_, err = src.PhoneticTable(ctx)
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)

	ids, err := src.ListSchemas(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSource_RejectsPathTraversal(t *testing.T) {
	src := file.New(t.TempDir())

	for _, id := range []string{"", "../profiles", "a/b", `a\b`} {
		_, err := src.Schema(context.Background(), id)
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound, "id %q", id)
	}
}

func TestSource_ListSchemasIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, file.SchemasDir, "nested"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, file.SchemasDir, "schema_a.json"), []byte(`{}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, file.SchemasDir, "README.md"), []byte(`#`), 0644))

	ids, err := file.New(dir).ListSchemas(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"schema_a"}, ids)
}

func TestSource_Watch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := testutils.WritePack(t, t.TempDir(), testutils.Pack(t))
	src := file.New(dir, file.WithDebounce(20*time.Millisecond))

	changes, err := src.Watch(ctx)
	require.NoError(t, err)

	// Several rapid writes collapse into one notification.
	path := filepath.Join(dir, file.SchemasDir, "schema_rus_v1.json")
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte(`{"А":{"kana_key":"a"}}`), 0644))
	}

	select {
	case id := <-changes:
		assert.Equal(t, "schema_rus_v1", id)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for schema change")
	}

	cancel()
	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-changes:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond, "channel should close after cancel")
}

func TestSource_WatchMissingDirectory(t *testing.T) {
	_, err := file.New(filepath.Join(t.TempDir(), "absent")).Watch(context.Background())
	assert.Error(t, err)
}
