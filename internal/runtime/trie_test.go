package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrefixIndex(t *testing.T) {
	idx := newPrefixIndex("А", "КА", "КЯ", "ШЧ", "ШЧА")

	assert.Equal(t, 5, idx.len())

	tests := []struct {
		seq       string
		hasPrefix bool
		contains  bool
	}{
		{"", true, false},
		{"А", true, true},
		{"К", true, false},
		{"КА", true, true},
		{"КАА", false, false},
		{"Ш", true, false},
		{"ШЧ", true, true},
		{"ШЧА", true, true},
		{"Б", false, false},
		{"КБ", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.seq, func(t *testing.T) {
			assert.Equal(t, tt.hasPrefix, idx.hasPrefix(tt.seq), "hasPrefix")
			assert.Equal(t, tt.contains, idx.contains(tt.seq), "contains")
		})
	}
}

func TestPrefixIndex_DuplicatesCountOnce(t *testing.T) {
	idx := newPrefixIndex("КА", "КА", "К")
	assert.Equal(t, 2, idx.len())
}

func TestPrefixIndex_PartialRune(t *testing.T) {
	idx := newPrefixIndex("К")

	// The first byte of a two-byte rune is a byte prefix, never a key.
	partial := string([]byte("К")[:1])
	assert.True(t, idx.hasPrefix(partial))
	assert.False(t, idx.contains(partial))
}

func TestPrefixIndex_Empty(t *testing.T) {
	idx := newPrefixIndex()

	assert.False(t, idx.hasPrefix(""))
	assert.False(t, idx.hasPrefix("А"))
	assert.Equal(t, 0, idx.len())
}
