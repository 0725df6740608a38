package graph

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/aretw0/cyrkana/pkg/domain"
)

// Overlay highlights the path of a composition buffer on the graph.
type Overlay struct {
	Buffer string
}

type state struct {
	id       string
	prefix   string
	complete bool // prefix is a sequence of the schema
	leaf     bool // no sequence extends prefix
}

// GenerateMermaid draws the composition states of a schema as a Mermaid
// flowchart. Each state is a buffer the engine can hold; edges are keys.
// Shapes:
// - Empty buffer: ((Circle))
// - Composing only: [/Parallelogram/]
// - Commits and cannot grow: [Rectangle]
// - Commits but can still grow: [[Subroutine]]
func GenerateMermaid(schema domain.Schema, table domain.PhoneticTable, overlay *Overlay) string {
	states := buildStates(schema)

	var sb strings.Builder
	sb.WriteString("graph LR\n")
	sb.WriteString("    s0((\"∅\"))\n")

	for _, st := range states[1:] {
		label := st.prefix
		if st.complete {
			label = fmt.Sprintf("%s → %s", st.prefix, kana(schema, table, st.prefix))
		}
		label = strings.ReplaceAll(label, "\"", "'")

		opener, closer := "[/", "/]"
		switch {
		case st.complete && st.leaf:
			opener, closer = "[", "]"
		case st.complete:
			opener, closer = "[[", "]]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", st.id, opener, label, closer)
	}

	byPrefix := make(map[string]string, len(states))
	for _, st := range states {
		byPrefix[st.prefix] = st.id
	}
	for _, st := range states[1:] {
		_, size := utf8.DecodeLastRuneInString(st.prefix)
		parent := st.prefix[:len(st.prefix)-size]
		key := strings.ReplaceAll(st.prefix[len(parent):], "\"", "'")
		fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", byPrefix[parent], key, st.id)
	}

	if overlay != nil && overlay.Buffer != "" {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		prefix := ""
		fmt.Fprintf(&sb, "    class s0 visited;\n")
		for _, r := range overlay.Buffer {
			prefix += string(r)
			id, ok := byPrefix[prefix]
			if !ok {
				break
			}
			class := "visited"
			if prefix == overlay.Buffer {
				class = "current"
			}
			fmt.Fprintf(&sb, "    class %s %s;\n", id, class)
		}
	}

	return sb.String()
}

// buildStates lists every prefix of every sequence, the empty buffer first,
// in lexical order so the output is stable.
func buildStates(schema domain.Schema) []state {
	prefixes := map[string]bool{}
	for seq := range schema {
		p := ""
		for _, r := range seq {
			p += string(r)
			prefixes[p] = true
		}
	}

	sorted := make([]string, 0, len(prefixes))
	for p := range prefixes {
		sorted = append(sorted, p)
	}
	sort.Strings(sorted)

	extends := map[string]bool{}
	for _, p := range sorted {
		_, size := utf8.DecodeLastRuneInString(p)
		extends[p[:len(p)-size]] = true
	}

	states := make([]state, 0, len(sorted)+1)
	states = append(states, state{id: "s0"})
	for i, p := range sorted {
		_, complete := schema[p]
		states = append(states, state{
			id:       fmt.Sprintf("s%d", i+1),
			prefix:   p,
			complete: complete,
			leaf:     !extends[p],
		})
	}
	return states
}

// kana resolves the phonetic key of seq, falling back to the key itself.
func kana(schema domain.Schema, table domain.PhoneticTable, seq string) string {
	key := schema[seq].KanaKey
	if k, ok := table[key]; ok {
		return k
	}
	return key
}
