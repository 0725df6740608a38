package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/cyrkana/internal/testutils"
	"github.com/aretw0/cyrkana/pkg/adapters/memory"
	"github.com/aretw0/cyrkana/pkg/domain"
	contract "github.com/aretw0/cyrkana/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource_Contract(t *testing.T) {
	pack := testutils.Pack(t)
	contract.PackSourceContractTest(t, memory.New(pack), pack)
}

func TestSource_PublisherContract(t *testing.T) {
	src := memory.New(domain.Pack{})
	contract.PackPublisherContractTest(t, src, src, testutils.Pack(t))
}

func TestSource_EmptyDocuments(t *testing.T) {
	ctx := context.Background()
	src := memory.New(domain.Pack{})

	_, err := src.Profiles(ctx)
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	_, err = src.PhoneticTable(ctx)
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)

	ids, err := src.ListSchemas(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestNewFromValues(t *testing.T) {
	ctx := context.Background()
	src, err := memory.NewFromValues(
		[]domain.Profile{{ID: "p", KeyboardLayout: []string{"А"}, InputSchemaID: "s"}},
		domain.PhoneticTable{"a": "あ"},
		map[string]domain.Schema{"s": {"А": {KanaKey: "a"}}},
	)
	require.NoError(t, err)

	data, err := src.Schema(ctx, "s")
	require.NoError(t, err)
	assert.JSONEq(t, `{"А":{"kana_key":"a"}}`, string(data))

	data, err = src.Profiles(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"p","name_ja":"","name_en":"","keyboardLayout":["А"],"inputSchemaId":"s"}]`, string(data))
}

func TestSource_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	src := memory.New(domain.Pack{Phonetic: []byte(`{"a":"あ"}`)})

	data, err := src.PhoneticTable(ctx)
	require.NoError(t, err)
	data[0] = 'X'

	again, err := src.PhoneticTable(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"a":"あ"}`, string(again))
}

func TestSource_Watch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := memory.New(domain.Pack{})

	ch, err := src.Watch(ctx)
	require.NoError(t, err)

	src.PutSchema("schema_rus_v1", []byte(`{}`))

	select {
	case id := <-ch:
		assert.Equal(t, "schema_rus_v1", id)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for change notification")
	}

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok, "channel should be closed after cancel")
	case <-time.After(time.Second):
		t.Fatal("watch channel not closed")
	}
}
