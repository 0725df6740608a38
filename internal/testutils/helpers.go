package testutils

import (
	"embed"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/cyrkana/pkg/domain"
	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/require"
)

//go:embed testdata/pack
var packFS embed.FS

const packRoot = "testdata/pack"

// Pack returns the reference language pack shipped with the tests:
// four profiles, the kana table and one schema per profile.
func Pack(t testing.TB) domain.Pack {
	t.Helper()

	profiles, err := packFS.ReadFile(packRoot + "/profiles.json")
	require.NoError(t, err)
	phonetic, err := packFS.ReadFile(packRoot + "/kana_engine.json")
	require.NoError(t, err)

	entries, err := fs.ReadDir(packFS, packRoot+"/schemas")
	require.NoError(t, err)

	schemas := make(map[string][]byte, len(entries))
	for _, e := range entries {
		data, err := packFS.ReadFile(packRoot + "/schemas/" + e.Name())
		require.NoError(t, err)
		schemas[strings.TrimSuffix(e.Name(), ".json")] = data
	}

	return domain.Pack{Profiles: profiles, Phonetic: phonetic, Schemas: schemas}
}

// WritePack lays pack out as a file pack under dir and returns dir.
func WritePack(t testing.TB, dir string, pack domain.Pack) string {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "schemas"), 0755))
	if pack.Profiles != nil {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "profiles.json"), pack.Profiles, 0644))
	}
	if pack.Phonetic != nil {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "kana_engine.json"), pack.Phonetic, 0644))
	}
	for id, data := range pack.Schemas {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "schemas", id+".json"), data, 0644))
	}
	return dir
}

// SetupTestRepo creates a temporary directory and initializes a Loam repository in it.
// It returns the absolute path to the temp dir and the initialized repository.
// It fails the test immediately on error.
func SetupTestRepo(t *testing.T, opts ...loam.Option) (string, core.Repository) {
	t.Helper()

	absPath, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	repo, err := loam.Init(absPath, opts...)
	require.NoError(t, err, "Failed to init loam repo")

	return absPath, repo
}
