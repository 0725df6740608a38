package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aretw0/cyrkana/internal/validator"
	"github.com/aretw0/cyrkana/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfilesMarkdown(t *testing.T) {
	md := ProfilesMarkdown([]domain.Profile{
		{ID: "rus_standard", NameEn: "Russian", NameJa: "ロシア語", KeyboardLayout: []string{"А", "К"}, InputSchemaID: "schema_rus_v1"},
		{ID: "srb_cyrillic", NameEn: "Serbian", NameJa: "セルビア語", InputSchemaID: "schema_srb_v1"},
	}, map[string]bool{"schema_rus_v1": true})

	lines := strings.Split(strings.TrimSpace(md), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "| `rus_standard` | Russian | ロシア語 | `schema_rus_v1` | 2 | yes |", lines[4])
	assert.Equal(t, "| `srb_cyrillic` | Serbian | セルビア語 | `schema_srb_v1` | 0 |  |", lines[5])
}

func TestReportMarkdown(t *testing.T) {
	clean := ReportMarkdown("examples/pack", &validator.Report{})
	assert.Contains(t, clean, "Pack is valid.")

	r := &validator.Report{Issues: []validator.Issue{
		{Severity: validator.SeverityError, Document: "profiles", Location: "p", Message: "boom"},
		{Severity: validator.SeverityWarning, Document: "schemas/s", Message: "meh"},
	}}
	md := ReportMarkdown("examples/pack", r)
	assert.Contains(t, md, "## Errors (1)\n\n- profiles p: boom")
	assert.Contains(t, md, "## Warnings (1)\n\n- schemas/s: meh")
}

func TestNewRenderer(t *testing.T) {
	out, err := NewRenderer()("# Title")
	require.NoError(t, err)
	assert.Contains(t, out, "Title")
}

func TestBannerAndKana(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "1.2.3")
	assert.Contains(t, buf.String(), "v1.2.3")

	s, err := NewKanaRenderer(&buf)("か")
	require.NoError(t, err)
	assert.Contains(t, s, "か")
}
