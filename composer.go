package cyrkana

import (
	"context"
	"strings"

	"github.com/aretw0/cyrkana/internal/compiler"
	"github.com/aretw0/cyrkana/pkg/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Step records what a single rune did to the composition.
type Step struct {
	Key     string         `json:"key"`
	Buffer  string         `json:"buffer"` // buffer before the key
	Outcome domain.Outcome `json:"outcome"`
	// Passthrough is set for runes outside the profile's keyboard layout.
	// They are written verbatim and never reach the engine.
	Passthrough bool `json:"passthrough,omitempty"`
}

// Transcript is the result of typing a whole text.
type Transcript struct {
	ProfileID string `json:"profile_id"`
	Input     string `json:"input"`
	Output    string `json:"output"`
	Steps     []Step `json:"steps"`
}

// Composer plays the role of a keyboard host for one profile: it holds the
// composition buffer between keystrokes and accumulates committed output.
// A Composer is not safe for concurrent use; the Engine behind it is.
type Composer struct {
	engine  *Engine
	profile domain.Profile
	layout  map[string]struct{}
	upper   cases.Caser

	buffer string
	out    strings.Builder
	steps  []Step
}

// NewComposer creates a composer for profileID. The profile's schema is not
// loaded here; use Engine.Activate first when the engine has a pack source.
func NewComposer(eng *Engine, profileID string) (*Composer, error) {
	prof, err := eng.Profile(profileID)
	if err != nil {
		return nil, err
	}

	layout := make(map[string]struct{}, len(prof.KeyboardLayout))
	for _, k := range prof.KeyboardLayout {
		layout[k] = struct{}{}
	}

	return &Composer{
		engine:  eng,
		profile: prof,
		layout:  layout,
		upper:   cases.Upper(language.Und),
	}, nil
}

// Profile returns the profile the composer types with.
func (c *Composer) Profile() domain.Profile {
	return c.profile
}

// Buffer returns the pending composition.
func (c *Composer) Buffer() string {
	return c.buffer
}

// Type feeds one rune. Letters are matched case-insensitively against the
// keyboard layout; anything else flushes the pending composition and is
// written as typed.
func (c *Composer) Type(ctx context.Context, r rune) (Step, error) {
	key := c.upper.String(string(r))
	if _, ok := c.layout[key]; !ok {
		pending := c.Flush()
		c.out.WriteRune(r)
		st := Step{
			Key:         string(r),
			Buffer:      pending,
			Outcome:     domain.Commit(pending + string(r)),
			Passthrough: true,
		}
		c.steps = append(c.steps, st)
		return st, nil
	}

	out, err := c.engine.ProcessKey(ctx, key, c.buffer, c.profile.ID)
	if err != nil {
		return Step{}, err
	}

	st := Step{Key: key, Buffer: c.buffer, Outcome: out}
	switch out.Action {
	case domain.ActionCommit:
		c.out.WriteString(out.Output)
		c.buffer = ""
	case domain.ActionComposing:
		c.buffer = out.Buffer
	case domain.ActionClear:
		c.buffer = ""
	}
	c.steps = append(c.steps, st)
	return st, nil
}

// TypeString feeds every rune of s after NFC normalization.
func (c *Composer) TypeString(ctx context.Context, s string) error {
	for _, r := range compiler.Normalize(s) {
		if _, err := c.Type(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

// Flush writes the pending composition verbatim and resets the buffer.
// It returns what was flushed.
func (c *Composer) Flush() string {
	pending := c.buffer
	c.out.WriteString(pending)
	c.buffer = ""
	return pending
}

// Output returns everything committed so far.
func (c *Composer) Output() string {
	return c.out.String()
}

// Steps returns the keystrokes recorded so far.
func (c *Composer) Steps() []Step {
	return append([]Step(nil), c.steps...)
}

// Transliterate types text with profileID from an empty buffer and flushes
// whatever is still composing at the end.
func (e *Engine) Transliterate(ctx context.Context, profileID, text string) (*Transcript, error) {
	c, err := NewComposer(e, profileID)
	if err != nil {
		return nil, err
	}
	if err := c.TypeString(ctx, text); err != nil {
		return nil, err
	}
	c.Flush()

	return &Transcript{
		ProfileID: profileID,
		Input:     text,
		Output:    c.Output(),
		Steps:     c.steps,
	}, nil
}
