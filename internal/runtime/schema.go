package runtime

import "github.com/aretw0/cyrkana/pkg/domain"

// compiledSchema pairs a schema's entries with the prefix index built from
// them. It is immutable once stored; reloads swap in a new value.
type compiledSchema struct {
	id       string
	entries  domain.Schema
	prefixes *prefixIndex
}

func compileSchema(id string, schema domain.Schema) *compiledSchema {
	entries := make(domain.Schema, len(schema))
	seqs := make([]string, 0, len(schema))
	for seq, entry := range schema {
		entries[seq] = entry
		seqs = append(seqs, seq)
	}
	return &compiledSchema{
		id:       id,
		entries:  entries,
		prefixes: newPrefixIndex(seqs...),
	}
}

// registry is the engine state created by Initialize.
type registry struct {
	profiles []domain.Profile
	byID     map[string]int
	phonetic domain.PhoneticTable
	schemas  map[string]*compiledSchema
}

func newRegistry(profiles []domain.Profile, table domain.PhoneticTable) *registry {
	reg := &registry{
		profiles: domain.CloneProfiles(profiles),
		byID:     make(map[string]int, len(profiles)),
		phonetic: make(domain.PhoneticTable, len(table)),
		schemas:  make(map[string]*compiledSchema),
	}
	for i, p := range reg.profiles {
		if _, dup := reg.byID[p.ID]; !dup {
			reg.byID[p.ID] = i
		}
	}
	for k, v := range table {
		reg.phonetic[k] = v
	}
	return reg
}

func (r *registry) profile(id string) (domain.Profile, bool) {
	i, ok := r.byID[id]
	if !ok {
		return domain.Profile{}, false
	}
	return r.profiles[i], true
}
