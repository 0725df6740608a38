package registry_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/cyrkana"
	"github.com/aretw0/cyrkana/internal/testutils"
	"github.com/aretw0/cyrkana/pkg/domain"
	"github.com/aretw0/cyrkana/pkg/ports"
	"github.com/aretw0/cyrkana/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boot(t *testing.T, src ports.PackSource) *cyrkana.Engine {
	t.Helper()
	eng := cyrkana.New()
	require.NoError(t, eng.Boot(context.Background(), src))
	return eng
}

func TestParse(t *testing.T) {
	tests := []struct {
		in     string
		scheme string
	}{
		{"examples/pack", "file"},
		{`C:\packs\cyr`, "file"},
		{"file:///srv/pack", "file"},
		{"REDIS://localhost:6379/2", "redis"},
		{"sqlite:///var/lib/cyrkana/pack.db", "sqlite"},
	}
	for _, tt := range tests {
		u, err := registry.Parse(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.scheme, u.Scheme, tt.in)
	}

	_, err := registry.Parse("")
	assert.Error(t, err)
}

func TestRegistry_Schemes(t *testing.T) {
	r := registry.Default(nil)
	assert.Equal(t, []string{"file", "loam", "redis", "sqlite"}, r.Schemes())
}

func TestRegistry_UnknownScheme(t *testing.T) {
	_, err := registry.Default(nil).Open(context.Background(), "s3://bucket/pack")
	assert.ErrorIs(t, err, registry.ErrUnknownScheme)
}

func TestRegistry_CustomOpener(t *testing.T) {
	r := registry.NewRegistry(nil)
	var got *url.URL
	r.Register("Mem", func(ctx context.Context, u *url.URL, _ *slog.Logger) (ports.PackSource, error) {
		got = u
		return nil, nil
	})
	_, err := r.Open(context.Background(), "mem://pack?x=1")
	require.NoError(t, err)
	assert.Equal(t, "1", got.Query().Get("x"))
}

func TestRegistry_File(t *testing.T) {
	dir := testutils.WritePack(t, t.TempDir(), testutils.Pack(t))
	r := registry.Default(nil)

	for _, uri := range []string{dir, "file://" + filepath.ToSlash(dir) + "?debounce=10ms"} {
		src, err := r.Open(context.Background(), uri)
		require.NoError(t, err, uri)

		eng := boot(t, src)
		_, err = eng.Activate(context.Background(), "rus_standard")
		require.NoError(t, err)
		require.NoError(t, registry.Close(src))
	}

	_, err := r.Open(context.Background(), "file://"+filepath.ToSlash(dir)+"?debounce=soon")
	assert.Error(t, err)
}

func TestRegistry_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pack.db")
	r := registry.Default(nil)

	src, err := r.Open(context.Background(), "sqlite://"+filepath.ToSlash(path)+"?poll=50ms")
	require.NoError(t, err)
	defer registry.Close(src)

	pub, ok := src.(ports.PackPublisher)
	require.True(t, ok)
	require.NoError(t, pub.Publish(context.Background(), testutils.Pack(t)))

	eng := boot(t, src)
	require.NoError(t, eng.Preload(context.Background()))
}

func TestRegistry_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	r := registry.Default(nil)

	src, err := r.Open(context.Background(), "redis://"+mr.Addr()+"/0?prefix=test:")
	require.NoError(t, err)
	defer registry.Close(src)

	pub, ok := src.(ports.PackPublisher)
	require.True(t, ok)
	require.NoError(t, pub.Publish(context.Background(), testutils.Pack(t)))
	assert.True(t, mr.Exists("test:profiles"))

	eng := boot(t, src)
	out, err := eng.ProcessKey(context.Background(), "А", "", "rus_standard")
	assert.ErrorIs(t, err, domain.ErrSchemaNotLoaded)
	assert.Zero(t, out)

	_, err = eng.Activate(context.Background(), "rus_standard")
	require.NoError(t, err)
	out, err = eng.ProcessKey(context.Background(), "А", "", "rus_standard")
	require.NoError(t, err)
	assert.Equal(t, domain.Commit("あ"), out)

	_, err = r.Open(context.Background(), "redis://"+mr.Addr()+"/zero")
	assert.Error(t, err)
}

func TestRegistry_Loam(t *testing.T) {
	pack := testutils.Pack(t)
	root := t.TempDir()
	testutils.WritePack(t, root, domain.Pack{Phonetic: pack.Phonetic, Schemas: pack.Schemas})

	var profiles []map[string]any
	require.NoError(t, json.Unmarshal(pack.Profiles, &profiles))

	vault := filepath.Join(root, registry.ProfilesDir)
	require.NoError(t, os.MkdirAll(vault, 0755))
	for _, p := range profiles {
		data, err := json.Marshal(p)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(vault, p["id"].(string)+".json"), data, 0644))
	}

	src, err := registry.Default(nil).Open(context.Background(), "loam://"+filepath.ToSlash(root))
	require.NoError(t, err)

	eng := boot(t, src)
	got, err := eng.Profiles()
	require.NoError(t, err)
	assert.Len(t, got, len(profiles))

	_, err = eng.Activate(context.Background(), "srb_cyrillic")
	require.NoError(t, err)
	tr, err := eng.Transliterate(context.Background(), "srb_cyrillic", "кјото")
	require.NoError(t, err)
	assert.Equal(t, "きょと", tr.Output)

	_, ok := src.(ports.Watchable)
	assert.True(t, ok)
}
