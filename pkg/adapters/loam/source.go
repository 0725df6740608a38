package loam

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
)

// ProfileMetadata is the frontmatter of a profile document. Field names
// match the profiles.json record so a document can be authored in
// Markdown, YAML or JSON alike:
//
//	---
//	id: rus_standard
//	name_ja: ロシア語（標準）
//	name_en: Russian (Standard)
//	inputSchemaId: schema_rus_v1
//	keyboardLayout: [Й, Ц, У, К, Е, Н]
//	---
//	Free-form notes about the layout.
type ProfileMetadata struct {
	ID             string   `json:"id" mapstructure:"id"`
	NameJa         string   `json:"name_ja" mapstructure:"name_ja"`
	NameEn         string   `json:"name_en" mapstructure:"name_en"`
	KeyboardLayout []string `json:"keyboardLayout" mapstructure:"keyboardLayout"`
	InputSchemaID  string   `json:"inputSchemaId" mapstructure:"inputSchemaId"`
}

// ProfileSource implements ports.ProfileSource over a Loam repository in
// which every document describes one profile.
type ProfileSource struct {
	Repo *loam.TypedRepository[ProfileMetadata]
}

// New creates a new Loam profile source.
func New(repo *loam.TypedRepository[ProfileMetadata]) *ProfileSource {
	return &ProfileSource{Repo: repo}
}

// Open initializes a read-only Loam repository at path.
func Open(path string) (*ProfileSource, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	// Strict mode keeps JSON and YAML documents decoding to the same types.
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[ProfileMetadata](repo)), nil
}

// Profiles lists every profile document, ordered by document path, and
// returns them as a profiles.json array. Validation is left to the parser.
func (s *ProfileSource) Profiles(ctx context.Context) ([]byte, error) {
	docs, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })

	seen := make(map[string]string)
	records := make([]ProfileMetadata, 0, len(docs))
	for _, doc := range docs {
		meta := doc.Data
		if meta.ID == "" {
			meta.ID = trimExtension(filepath.Base(doc.ID))
		}

		if existingPath, ok := seen[meta.ID]; ok {
			return nil, fmt.Errorf("collision detected: profile '%s' is defined in both '%s' and '%s'", meta.ID, existingPath, doc.ID)
		}
		seen[meta.ID] = doc.ID

		if meta.KeyboardLayout == nil {
			meta.KeyboardLayout = []string{}
		}
		records = append(records, meta)
	}

	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal profiles: %w", err)
	}
	return data, nil
}

// Profile returns a single profile document by id.
func (s *ProfileSource) Profile(ctx context.Context, id string) (ProfileMetadata, error) {
	doc, err := s.Repo.Get(ctx, id)
	if err != nil {
		return ProfileMetadata{}, fmt.Errorf("loam get failed for %s: %w", id, err)
	}
	meta := doc.Data
	if meta.ID == "" {
		meta.ID = trimExtension(filepath.Base(doc.ID))
	}
	return meta, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
