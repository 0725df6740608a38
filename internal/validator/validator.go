package validator

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/aretw0/cyrkana/internal/compiler"
	"github.com/aretw0/cyrkana/pkg/domain"
	"github.com/aretw0/cyrkana/pkg/ports"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

// Severity ranks an issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one finding about a pack document.
type Issue struct {
	Severity Severity `json:"severity"`
	Document string   `json:"document"` // "profiles", "phonetic" or "schemas/<id>"
	Location string   `json:"location,omitempty"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	if i.Location != "" {
		return fmt.Sprintf("%s %s: %s", i.Document, i.Location, i.Message)
	}
	return fmt.Sprintf("%s: %s", i.Document, i.Message)
}

// Report collects the issues found in a pack.
type Report struct {
	Issues []Issue `json:"issues"`
}

func (r *Report) add(sev Severity, doc, loc, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Severity: sev, Document: doc, Location: loc, Message: fmt.Sprintf(format, args...)})
}

// Errors returns the issues that make the pack unusable.
func (r *Report) Errors() []Issue { return r.filter(SeverityError) }

// Warnings returns the issues that degrade conversion without breaking it.
func (r *Report) Warnings() []Issue { return r.filter(SeverityWarning) }

func (r *Report) filter(sev Severity) []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Severity == sev {
			out = append(out, i)
		}
	}
	return out
}

// Err summarizes the errors, or returns nil when there are none.
func (r *Report) Err() error {
	errs := r.Errors()
	if len(errs) == 0 {
		return nil
	}
	lines := make([]string, len(errs))
	for i, e := range errs {
		lines[i] = e.String()
	}
	return fmt.Errorf("found %d errors:\n- %s", len(errs), strings.Join(lines, "\n- "))
}

type documentSchemas struct {
	profiles *jsonschema.Schema
	phonetic *jsonschema.Schema
	input    *jsonschema.Schema
}

var (
	compileOnce sync.Once
	compiled    documentSchemas
	compileErr  error
)

func loadSchemas() (documentSchemas, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020

		names := []string{"profiles", "phonetic", "input"}
		out := make([]*jsonschema.Schema, len(names))
		for i, name := range names {
			path := "schemas/" + name + ".schema.json"
			data, err := schemaFS.ReadFile(path)
			if err != nil {
				compileErr = err
				return
			}
			if err := c.AddResource(path, bytes.NewReader(data)); err != nil {
				compileErr = fmt.Errorf("add schema resource %s: %w", path, err)
				return
			}
			if out[i], err = c.Compile(path); err != nil {
				compileErr = fmt.Errorf("compile schema %s: %w", path, err)
				return
			}
		}
		compiled = documentSchemas{profiles: out[0], phonetic: out[1], input: out[2]}
	})
	return compiled, compileErr
}

// ValidateSource reads every document of src and validates the pack.
// The error is reserved for failures to read the source.
func ValidateSource(ctx context.Context, src ports.PackSource) (*Report, error) {
	pack, err := ports.ReadPack(ctx, src)
	if err != nil {
		return nil, err
	}
	return Validate(pack)
}

// Validate checks each document against its JSON Schema and then checks
// the references between documents: every profile's schema exists, every
// schema sequence can be typed on the layouts that use it and every
// phonetic key is in the table.
func Validate(pack domain.Pack) (*Report, error) {
	schemas, err := loadSchemas()
	if err != nil {
		return nil, err
	}

	r := &Report{}
	parser := compiler.NewParser()

	profilesOK := checkDocument(r, schemas.profiles, "profiles", pack.Profiles)
	phoneticOK := checkDocument(r, schemas.phonetic, "phonetic", pack.Phonetic)

	var profiles []domain.Profile
	if profilesOK {
		if profiles, err = parser.ParseProfiles(pack.Profiles); err != nil {
			r.add(SeverityError, "profiles", "", "%v", err)
		}
	}
	var table domain.PhoneticTable
	if phoneticOK {
		if table, err = parser.ParsePhoneticTable(pack.Phonetic); err != nil {
			r.add(SeverityError, "phonetic", "", "%v", err)
		}
	}

	parsed := make(map[string]domain.Schema, len(pack.Schemas))
	for _, id := range pack.SchemaIDs() {
		doc := "schemas/" + id
		if !checkDocument(r, schemas.input, doc, pack.Schemas[id]) {
			continue
		}
		s, err := parser.ParseSchema(id, pack.Schemas[id])
		if err != nil {
			r.add(SeverityError, doc, "", "%v", err)
			continue
		}
		parsed[id] = s
	}

	crossCheck(r, profiles, table, parsed)
	return r, nil
}

// checkDocument validates one raw document and reports whether it passed.
func checkDocument(r *Report, schema *jsonschema.Schema, doc string, data []byte) bool {
	if data == nil {
		r.add(SeverityError, doc, "", "document is missing")
		return false
	}

	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		r.add(SeverityError, doc, "", "invalid JSON: %v", err)
		return false
	}

	err := schema.Validate(v)
	if err == nil {
		return true
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		r.add(SeverityError, doc, "", "%v", err)
		return false
	}
	for _, be := range ve.BasicOutput().Errors {
		// The root entry only repeats "doesn't validate with <schema>".
		if be.KeywordLocation == "" {
			continue
		}
		r.add(SeverityError, doc, be.InstanceLocation, "%s", be.Error)
	}
	return false
}

func crossCheck(r *Report, profiles []domain.Profile, table domain.PhoneticTable, schemas map[string]domain.Schema) {
	referenced := make(map[string]bool, len(schemas))

	for _, p := range profiles {
		referenced[p.InputSchemaID] = true
		s, ok := schemas[p.InputSchemaID]
		if !ok {
			r.add(SeverityError, "profiles", p.ID, "input schema %q does not exist", p.InputSchemaID)
			continue
		}
		for _, seq := range sortedKeys(s) {
			if rest, ok := typeable(p, seq); !ok {
				r.add(SeverityWarning, "schemas/"+p.InputSchemaID, seq,
					"cannot be typed on profile %s: no layout key for %q", p.ID, rest)
			}
		}
	}

	if table == nil {
		return
	}
	ids := make([]string, 0, len(schemas))
	for id := range schemas {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if !referenced[id] {
			r.add(SeverityWarning, "schemas/"+id, "", "not referenced by any profile")
		}
		s := schemas[id]
		for _, seq := range sortedKeys(s) {
			if _, ok := table[s[seq].KanaKey]; !ok {
				r.add(SeverityWarning, "schemas/"+id, seq,
					"phonetic key %q is not in the table; the key itself will be committed", s[seq].KanaKey)
			}
		}
	}
}

// typeable splits seq into layout keys, longest key first. It returns the
// first character that could not be matched.
func typeable(p domain.Profile, seq string) (string, bool) {
	keys := append([]string(nil), p.KeyboardLayout...)
	sort.Slice(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })

	rest := seq
	for rest != "" {
		matched := false
		for _, k := range keys {
			if k != "" && strings.HasPrefix(rest, k) {
				rest = rest[len(k):]
				matched = true
				break
			}
		}
		if !matched {
			r, _ := utf8.DecodeRuneInString(rest)
			return string(r), false
		}
	}
	return "", true
}

func sortedKeys(s domain.Schema) []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
