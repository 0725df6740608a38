package ports

import (
	"context"
	"fmt"

	"github.com/aretw0/cyrkana/pkg/domain"
)

// ReadPack copies every document of src into memory.
func ReadPack(ctx context.Context, src PackSource) (domain.Pack, error) {
	var pack domain.Pack
	var err error

	if pack.Profiles, err = src.Profiles(ctx); err != nil {
		return domain.Pack{}, fmt.Errorf("failed to read profiles: %w", err)
	}
	if pack.Phonetic, err = src.PhoneticTable(ctx); err != nil {
		return domain.Pack{}, fmt.Errorf("failed to read phonetic table: %w", err)
	}

	ids, err := src.ListSchemas(ctx)
	if err != nil {
		return domain.Pack{}, fmt.Errorf("failed to list schemas: %w", err)
	}
	pack.Schemas = make(map[string][]byte, len(ids))
	for _, id := range ids {
		data, err := src.Schema(ctx, id)
		if err != nil {
			return domain.Pack{}, fmt.Errorf("failed to read schema %s: %w", id, err)
		}
		pack.Schemas[id] = data
	}
	return pack, nil
}
