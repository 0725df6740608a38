package tests

import (
	"context"
	"testing"

	"github.com/aretw0/cyrkana/pkg/domain"
	"github.com/aretw0/cyrkana/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// PackSourceContractTest is a reusable test suite that verifies if an adapter complies with ports.PackSource.
// expected is the pack the source was seeded with.
func PackSourceContractTest(t *testing.T, src ports.PackSource, expected domain.Pack) {
	t.Helper()
	ctx := context.Background()

	t.Run("Profiles", func(t *testing.T) {
		got, err := src.Profiles(ctx)
		require.NoError(t, err)
		assert.JSONEq(t, string(expected.Profiles), string(got))
	})

	t.Run("PhoneticTable", func(t *testing.T) {
		got, err := src.PhoneticTable(ctx)
		require.NoError(t, err)
		assert.JSONEq(t, string(expected.Phonetic), string(got))
	})

	t.Run("Schema_Success", func(t *testing.T) {
		for id, want := range expected.Schemas {
			got, err := src.Schema(ctx, id)
			require.NoError(t, err, "schema %s", id)
			assert.JSONEq(t, string(want), string(got), "schema %s", id)
		}
	})

	t.Run("Schema_NotFound", func(t *testing.T) {
		_, err := src.Schema(ctx, "non-existent-schema")
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	})

	t.Run("ListSchemas", func(t *testing.T) {
		ids, err := src.ListSchemas(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, expected.SchemaIDs(), ids)
	})
}

// PackPublisherContractTest publishes pack through pub and reads it back through src.
func PackPublisherContractTest(t *testing.T, pub ports.PackPublisher, src ports.PackSource, pack domain.Pack) {
	t.Helper()

	require.NoError(t, pub.Publish(context.Background(), pack))
	PackSourceContractTest(t, src, pack)

	t.Run("Republish_Replaces", func(t *testing.T) {
		ctx := context.Background()
		next := domain.Pack{
			Profiles: pack.Profiles,
			Phonetic: []byte(`{"a":"ア"}`),
			Schemas:  pack.Schemas,
		}
		require.NoError(t, pub.Publish(ctx, next))

		got, err := src.PhoneticTable(ctx)
		require.NoError(t, err)
		assert.JSONEq(t, `{"a":"ア"}`, string(got))
	})
}
