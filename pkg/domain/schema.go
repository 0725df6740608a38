package domain

// SchemaEntry is the value side of a schema: the phonetic unit a key
// sequence resolves to.
type SchemaEntry struct {
	KanaKey string `json:"kana_key" mapstructure:"kana_key"`
}

// Schema maps a concatenated key sequence (e.g. "КЯ") to its phonetic key.
// Several sequences may share one phonetic key.
type Schema map[string]SchemaEntry

// PhoneticTable maps a phonetic key (e.g. "kya") to the rendered output
// (e.g. "きゃ"). It is shared by every profile and schema.
type PhoneticTable map[string]string

// Render returns the output for a phonetic key. When the key is missing the
// phonetic key itself is returned and ok is false.
func (t PhoneticTable) Render(kanaKey string) (string, bool) {
	if out, ok := t[kanaKey]; ok {
		return out, true
	}
	return kanaKey, false
}
