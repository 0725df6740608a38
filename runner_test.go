package cyrkana_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/aretw0/cyrkana"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_Headless(t *testing.T) {
	eng := bootPack(t)

	var out bytes.Buffer
	r := cyrkana.NewRunner()
	r.Input = strings.NewReader("сакура\nтокио\n")
	r.Output = &out
	r.Headless = true

	require.NoError(t, r.Run(context.Background(), eng, "rus_standard"))
	assert.Equal(t, "さくら\nときお\n", out.String())
}

func TestRunner_LastLineWithoutNewline(t *testing.T) {
	eng := bootPack(t)

	var out bytes.Buffer
	r := &cyrkana.Runner{Input: strings.NewReader("ня"), Output: &out, Headless: true}

	require.NoError(t, r.Run(context.Background(), eng, "rus_standard"))
	assert.Equal(t, "にゃ\n", out.String())
}

func TestRunner_Interactive(t *testing.T) {
	eng := bootPack(t)

	var out bytes.Buffer
	r := &cyrkana.Runner{
		Input:  strings.NewReader("ка\nexit\nня\n"),
		Output: &out,
		Trace:  true,
		Renderer: func(s string) (string, error) {
			return "[" + s + "]", nil
		},
	}

	require.NoError(t, r.Run(context.Background(), eng, "rus_standard"))
	want := "--- cyrkana " + cyrkana.Version + " (rus_standard) ---\n" +
		"> [か]\n" +
		`  "" + "К" -> composing "К"` + "\n" +
		`  "К" + "А" -> commit "か"` + "\n" +
		"> Bye!\n"
	assert.Equal(t, want, out.String())
}

func TestRunner_RequiresIO(t *testing.T) {
	eng := bootPack(t)
	assert.Error(t, cyrkana.NewRunner().Run(context.Background(), eng, "rus_standard"))
}

func TestRunner_UnknownProfile(t *testing.T) {
	eng := bootPack(t)
	r := &cyrkana.Runner{Input: strings.NewReader(""), Output: &bytes.Buffer{}, Headless: true}
	assert.Error(t, r.Run(context.Background(), eng, "nope"))
}
