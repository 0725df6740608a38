package runtime

import (
	"github.com/aretw0/cyrkana/internal/compiler"
	"github.com/aretw0/cyrkana/pkg/domain"
)

// step is the result of one pass through the conversion state machine.
type step struct {
	outcome domain.Outcome
	// discarded is set when the single-key fallback dropped a non-empty buffer.
	discarded bool
	// degraded holds the phonetic key that was missing from the phonetic table.
	degraded string
}

// convert decides what one key does to a buffer. The longest buffered
// candidate always wins; the single-key fallback is the only retry and it
// does not try to salvage any part of the abandoned buffer.
func convert(s *compiledSchema, table domain.PhoneticTable, key, buffer string) step {
	candidate := compiler.Normalize(buffer + key)

	if entry, ok := s.entries[candidate]; ok {
		return commit(table, entry, false)
	}

	if s.prefixes.hasPrefix(candidate) {
		return step{outcome: domain.Composing(candidate)}
	}

	if entry, ok := s.entries[key]; ok {
		return commit(table, entry, buffer != "")
	}

	return step{outcome: domain.Clear()}
}

func commit(table domain.PhoneticTable, entry domain.SchemaEntry, discarded bool) step {
	out, ok := table.Render(entry.KanaKey)
	st := step{outcome: domain.Commit(out), discarded: discarded}
	if !ok {
		st.degraded = entry.KanaKey
	}
	return st
}
