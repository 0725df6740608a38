package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/cyrkana"
	"github.com/aretw0/cyrkana/internal/testutils"
	"github.com/aretw0/cyrkana/pkg/domain"
	"github.com/aretw0/cyrkana/pkg/registry"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions(t *testing.T) Options {
	t.Helper()
	return Options{
		ConfigPath: filepath.Join(t.TempDir(), "missing.toml"),
		Source:     testutils.WritePack(t, t.TempDir(), testutils.Pack(t)),
		LogLevel:   "off",
	}
}

func setup(t *testing.T, opts Options) *App {
	t.Helper()
	app, err := Setup(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	opts := testOptions(t)
	opts.Profile = "srb_cyrillic"

	cfg, err := LoadConfig(opts)
	require.NoError(t, err)
	assert.Equal(t, opts.Source, cfg.Source)
	assert.Equal(t, "off", cfg.LogLevel)
	assert.Equal(t, "srb_cyrillic", cfg.DefaultProfile)

	opts.LogLevel = "loud"
	_, err = LoadConfig(opts)
	assert.Error(t, err)
}

func TestSetup(t *testing.T) {
	app := setup(t, testOptions(t))

	assert.True(t, app.Engine.Initialized())
	ids, err := app.Engine.SchemaIDs()
	require.NoError(t, err)
	assert.Empty(t, ids, "schemas load on activation unless preloading")

	prof, err := app.Activate(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "rus_standard", prof.ID)

	_, err = app.Activate(context.Background(), "klingon")
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
	assert.Contains(t, err.Error(), "bel_cyrillic")
}

func TestSetup_Preload(t *testing.T) {
	opts := testOptions(t)
	t.Setenv("CYRKANA_PRELOAD", "true")

	app := setup(t, opts)
	ids, err := app.Engine.SchemaIDs()
	require.NoError(t, err)
	assert.Len(t, ids, 4)
}

func TestSetup_BadSource(t *testing.T) {
	opts := testOptions(t)
	opts.Source = t.TempDir()

	_, err := Setup(context.Background(), opts)
	assert.Error(t, err)

	opts.Source = "s3://bucket"
	_, err = Setup(context.Background(), opts)
	assert.ErrorIs(t, err, registry.ErrUnknownScheme)
}

func TestSetup_RecordsMetrics(t *testing.T) {
	app := setup(t, testOptions(t))
	require.NoError(t, Convert(context.Background(), app, "Ка", ConvertOptions{}, &bytes.Buffer{}))

	families, err := app.Metrics.Registry().Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["cyrkana_keys_total"])
	assert.True(t, names["cyrkana_schema_loads_total"])
}

func TestConvert_Golden(t *testing.T) {
	inputs := map[string]string{
		"rus_standard": "Привет мир\nМосква\nКаша",
		"srb_cyrillic": "Београд\nкјото",
		"ukr_cyrillic": "Київ",
		"bel_cyrillic": "Мінск",
	}
	app := setup(t, testOptions(t))

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for profile, text := range inputs {
		t.Run(profile, func(t *testing.T) {
			var out bytes.Buffer
			require.NoError(t, Convert(context.Background(), app, text, ConvertOptions{Profile: profile, Trace: true}, &out))
			g.Assert(t, "convert_"+profile, out.Bytes())
		})
	}
}

func TestConvert_JSONLines(t *testing.T) {
	app := setup(t, testOptions(t))

	var out bytes.Buffer
	require.NoError(t, Convert(context.Background(), app, "Ка\r\nМо\n", ConvertOptions{JSON: true}, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	var tr cyrkana.Transcript
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &tr))
	assert.Equal(t, "rus_standard", tr.ProfileID)
	assert.Equal(t, "Мо", tr.Input)
	assert.Equal(t, "も", tr.Output)
	assert.Len(t, tr.Steps, 2)
}

func TestRunSession_Headless(t *testing.T) {
	app := setup(t, testOptions(t))

	var out bytes.Buffer
	err := RunSession(context.Background(), app, SessionOptions{
		Profile:  "srb_cyrillic",
		Headless: true,
		Input:    strings.NewReader("кјото\nexit\nБеоград\n"),
		Output:   &out,
	})
	require.NoError(t, err)
	assert.Equal(t, "きょと\n", out.String())
}

func TestRunSession_Cancelled(t *testing.T) {
	app := setup(t, testOptions(t))
	_, err := app.Activate(context.Background(), "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err = RunSession(ctx, app, SessionOptions{
		Input:  strings.NewReader("Ка\n"),
		Output: &out,
	})
	assert.NoError(t, err)
	assert.Contains(t, out.String(), ">>> Interrupted.")
}

func TestListProfiles(t *testing.T) {
	app := setup(t, testOptions(t))
	_, err := app.Activate(context.Background(), "ukr_cyrillic")
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, ListProfiles(app, false, false, &out))
	assert.Contains(t, out.String(), "| `ukr_cyrillic` |")
	assert.Contains(t, out.String(), "`schema_ukr_v1` | 33 | yes |")

	out.Reset()
	require.NoError(t, ListProfiles(app, true, false, &out))
	var profiles []domain.Profile
	require.NoError(t, json.Unmarshal(out.Bytes(), &profiles))
	assert.Len(t, profiles, 4)
}

func TestValidate(t *testing.T) {
	opts := testOptions(t)

	var out bytes.Buffer
	report, err := Validate(context.Background(), opts, ValidateOptions{}, &out)
	require.NoError(t, err)
	assert.Empty(t, report.Errors())
	assert.Contains(t, out.String(), "Pack is valid.")

	pack := testutils.Pack(t)
	delete(pack.Schemas, "schema_bel_v1")
	opts.Source = testutils.WritePack(t, t.TempDir(), pack)

	out.Reset()
	report, err = Validate(context.Background(), opts, ValidateOptions{JSON: true}, &out)
	require.Error(t, err)
	require.Len(t, report.Errors(), 1)
	assert.Contains(t, out.String(), `"severity": "error"`)
}

func TestPush(t *testing.T) {
	mr := miniredis.RunT(t)
	opts := testOptions(t)

	target := "redis://" + mr.Addr() + "/0?prefix=push:"
	require.NoError(t, Push(context.Background(), opts, target))
	assert.True(t, mr.Exists("push:profiles"))

	// The pushed pack boots like the original.
	opts.Source = target
	app := setup(t, opts)
	var out bytes.Buffer
	require.NoError(t, Convert(context.Background(), app, "Каша", ConvertOptions{}, &out))
	assert.Equal(t, "かしゃ\n", out.String())
}

func TestPush_Rejects(t *testing.T) {
	opts := testOptions(t)

	err := Push(context.Background(), opts, "s3://bucket/pack")
	assert.ErrorIs(t, err, registry.ErrUnknownScheme)

	pack := testutils.Pack(t)
	pack.Phonetic = []byte(`{"a": 1}`)
	opts.Source = testutils.WritePack(t, t.TempDir(), pack)
	err = Push(context.Background(), opts, "sqlite://"+filepath.ToSlash(filepath.Join(t.TempDir(), "pack.db")))
	assert.ErrorContains(t, err, "refusing to push invalid pack")
}

func TestIsInterrupted(t *testing.T) {
	assert.True(t, isInterrupted(context.Canceled))
	assert.True(t, isInterrupted(errInterrupted))
	assert.False(t, isInterrupted(domain.ErrNotInitialized))
	assert.NoError(t, handleExecutionError(errInterrupted))
	assert.Error(t, handleExecutionError(domain.ErrNotInitialized))
}

func TestGraph(t *testing.T) {
	app := setup(t, testOptions(t))

	var out bytes.Buffer
	require.NoError(t, Graph(context.Background(), app, "srb_cyrillic", "КЈ", &out))
	assert.Contains(t, out.String(), "graph LR\n")
	assert.Contains(t, out.String(), "\"КЈО → きょ\"")
	assert.Contains(t, out.String(), " current;\n")

	err := Graph(context.Background(), app, "klingon", "", &out)
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
}
