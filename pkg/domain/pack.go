package domain

import "sort"

// Pack is the raw, still-unparsed content of a language pack: the profile
// list, the phonetic table and every schema keyed by schema id.
// Sources and publishers exchange packs; the engine only sees parsed values.
type Pack struct {
	Profiles []byte
	Phonetic []byte
	Schemas  map[string][]byte
}

// SchemaIDs returns the ids of the schemas in the pack, sorted.
func (p Pack) SchemaIDs() []string {
	ids := make([]string, 0, len(p.Schemas))
	for id := range p.Schemas {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
