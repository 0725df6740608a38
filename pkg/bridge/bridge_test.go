package bridge_test

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/aretw0/cyrkana/internal/testutils"
	"github.com/aretw0/cyrkana/pkg/bridge"
	"github.com/aretw0/cyrkana/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initialized(t *testing.T) *bridge.Bridge {
	t.Helper()
	pack := testutils.Pack(t)
	b := bridge.New(nil)
	require.True(t, b.Init(string(pack.Profiles), string(pack.Phonetic)), b.LastError())
	require.True(t, b.LoadSchema(string(pack.Schemas["schema_rus_v1"]), "schema_rus_v1"), b.LastError())
	return b
}

func TestBridge_ProcessKey(t *testing.T) {
	b := initialized(t)

	out, ok := b.ProcessKey("К", "", "rus_standard")
	require.True(t, ok)
	assert.JSONEq(t, `{"output":"","buffer":"К","action":"composing"}`, out)

	out, ok = b.ProcessKey("Я", "К", "rus_standard")
	require.True(t, ok)
	assert.JSONEq(t, `{"output":"きゃ","buffer":"","action":"commit"}`, out)

	out, ok = b.ProcessKey("Б", "К", "rus_standard")
	require.True(t, ok)
	assert.JSONEq(t, `{"output":"","buffer":"","action":"clear"}`, out)
	assert.Empty(t, b.LastError())
}

func TestBridge_Failures(t *testing.T) {
	b := bridge.New(nil)

	out, ok := b.ProcessKey("А", "", "rus_standard")
	assert.False(t, ok)
	assert.Empty(t, out)
	assert.Contains(t, b.LastError(), "process_key: ")
	assert.Contains(t, b.LastError(), domain.ErrNotInitialized.Error())

	assert.False(t, b.Init("[", "{}"))
	assert.Contains(t, b.LastError(), "init: ")

	pack := testutils.Pack(t)
	b = initialized(t)
	assert.False(t, b.Init(string(pack.Profiles), string(pack.Phonetic)))
	assert.Contains(t, b.LastError(), domain.ErrAlreadyInitialized.Error())

	_, ok = b.ProcessKey("А", "", "srb_cyrillic")
	assert.False(t, ok)
	assert.Contains(t, b.LastError(), domain.ErrSchemaNotLoaded.Error())

	_, ok = b.ProcessKey("А", "", "klingon")
	assert.False(t, ok)
	assert.Contains(t, b.LastError(), domain.ErrProfileNotFound.Error())

	// A success clears the message.
	_, ok = b.ProcessKey("А", "", "rus_standard")
	assert.True(t, ok)
	assert.Empty(t, b.LastError())
}

func TestBridge_LoadSchemaRejected(t *testing.T) {
	b := initialized(t)

	assert.False(t, b.LoadSchema(`{"А":{}}`, "schema_rus_v1"))
	assert.Contains(t, b.LastError(), "load_schema: ")

	// The previous schema stays in place.
	out, ok := b.ProcessKey("А", "", "rus_standard")
	require.True(t, ok)
	assert.JSONEq(t, `{"output":"あ","buffer":"","action":"commit"}`, out)
}

func TestBridge_Profiles(t *testing.T) {
	b := initialized(t)

	out, ok := b.Profiles()
	require.True(t, ok)

	var profiles []domain.Profile
	require.NoError(t, json.Unmarshal([]byte(out), &profiles))
	require.Len(t, profiles, 4)
	assert.Equal(t, "rus_standard", profiles[0].ID)
}

func TestBridge_ConcurrentLastError(t *testing.T) {
	b := initialized(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(fail bool) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				profile := "rus_standard"
				if fail {
					profile = "klingon"
				}
				_, ok := b.ProcessKey("А", "", profile)
				assert.Equal(t, !fail, ok)

				msg := b.LastError()
				assert.True(t, msg == "" || strings.HasPrefix(msg, "process_key: "), msg)
			}
		}(i%2 == 0)
	}
	wg.Wait()

	_, ok := b.ProcessKey("А", "", "rus_standard")
	require.True(t, ok)
	assert.Empty(t, b.LastError())
}
