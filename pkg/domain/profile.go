package domain

// Profile identifies an input configuration: a source script and layout bound
// to the schema that converts it. The serialized field names follow the
// profiles.json format shipped with the keyboard packs.
type Profile struct {
	ID             string   `json:"id" mapstructure:"id"`
	NameJa         string   `json:"name_ja" mapstructure:"name_ja"`
	NameEn         string   `json:"name_en" mapstructure:"name_en"`
	KeyboardLayout []string `json:"keyboardLayout" mapstructure:"keyboardLayout"`
	InputSchemaID  string   `json:"inputSchemaId" mapstructure:"inputSchemaId"`
}

// Clone returns a deep copy so callers cannot mutate registry state through
// the layout slice.
func (p Profile) Clone() Profile {
	c := p
	if p.KeyboardLayout != nil {
		c.KeyboardLayout = append([]string(nil), p.KeyboardLayout...)
	}
	return c
}

// CloneProfiles deep-copies a profile list.
func CloneProfiles(src []Profile) []Profile {
	out := make([]Profile, len(src))
	for i, p := range src {
		out[i] = p.Clone()
	}
	return out
}
