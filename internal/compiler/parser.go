package compiler

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/aretw0/cyrkana/pkg/domain"
	"github.com/aretw0/cyrkana/pkg/shape"
	"github.com/mitchellh/mapstructure"
	"golang.org/x/text/unicode/norm"
)

// profileShape lists the fields every profile record must carry.
var profileShape = shape.Shape{
	"id":             shape.String(),
	"name_ja":        shape.String(),
	"name_en":        shape.String(),
	"keyboardLayout": shape.Slice(shape.String()),
	"inputSchemaId":  shape.String(),
}

var entryShape = shape.Shape{
	"kana_key": shape.String(),
}

// Parser converts raw pack documents into domain values.
// Every failure is returned as a *domain.ConfigurationError.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// Normalize returns the NFC form used for every key sequence the engine compares.
func Normalize(s string) string {
	return norm.NFC.String(s)
}

// ParseProfiles decodes a JSON array of profile records.
func (p *Parser) ParseProfiles(data []byte) ([]domain.Profile, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, domain.NewConfigurationError("profiles", err)
	}
	records, ok := raw.([]any)
	if !ok {
		return nil, domain.NewConfigurationError("profiles", fmt.Errorf("expected a JSON array of profiles"))
	}

	profiles := make([]domain.Profile, 0, len(records))
	seen := make(map[string]int, len(records))
	for i, rec := range records {
		obj, ok := rec.(map[string]any)
		if !ok {
			return nil, domain.NewConfigurationError("profiles", fmt.Errorf("profile %d: expected object", i))
		}
		if err := shape.Validate(profileShape, obj); err != nil {
			return nil, domain.NewConfigurationError("profiles", fmt.Errorf("profile %d: %w", i, err))
		}

		var prof domain.Profile
		if err := mapstructure.Decode(obj, &prof); err != nil {
			return nil, domain.NewConfigurationError("profiles", fmt.Errorf("profile %d: %w", i, err))
		}
		if first, dup := seen[prof.ID]; dup {
			return nil, domain.NewConfigurationError("profiles",
				fmt.Errorf("profile %d: duplicate id %q (first defined at %d)", i, prof.ID, first))
		}
		seen[prof.ID] = i

		for j, k := range prof.KeyboardLayout {
			prof.KeyboardLayout[j] = Normalize(k)
		}
		profiles = append(profiles, prof)
	}
	return profiles, nil
}

// ParsePhoneticTable decodes a flat JSON object of phonetic key to output.
func (p *Parser) ParsePhoneticTable(data []byte) (domain.PhoneticTable, error) {
	var table map[string]string
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, domain.NewConfigurationError("phonetic table", err)
	}
	if table == nil {
		return nil, domain.NewConfigurationError("phonetic table", fmt.Errorf("expected a JSON object"))
	}
	return domain.PhoneticTable(table), nil
}

// ParseSchema decodes a schema document: an object of key sequence to
// {"kana_key": ...}. Sequences are normalized to NFC; two sequences that
// normalize to the same string must agree on their phonetic key.
func (p *Parser) ParseSchema(schemaID string, data []byte) (domain.Schema, error) {
	source := "schema " + schemaID

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, domain.NewConfigurationError(source, err)
	}
	if raw == nil {
		return nil, domain.NewConfigurationError(source, fmt.Errorf("expected a JSON object"))
	}

	seqs := make([]string, 0, len(raw))
	for seq := range raw {
		seqs = append(seqs, seq)
	}
	sort.Strings(seqs)

	schema := make(domain.Schema, len(raw))
	for _, seq := range seqs {
		obj, ok := raw[seq].(map[string]any)
		if !ok {
			return nil, domain.NewConfigurationError(source, fmt.Errorf("entry %q: expected object", seq))
		}
		if err := shape.Validate(entryShape, obj); err != nil {
			return nil, domain.NewConfigurationError(source, fmt.Errorf("entry %q: %w", seq, err))
		}

		entry := domain.SchemaEntry{KanaKey: obj["kana_key"].(string)}
		key := Normalize(seq)
		if prev, exists := schema[key]; exists && prev != entry {
			return nil, domain.NewConfigurationError(source,
				fmt.Errorf("entry %q: normalizes to an existing sequence mapped to %q", seq, prev.KanaKey))
		}
		schema[key] = entry
	}
	return schema, nil
}
