package output_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/luminal-labs/promptc/internal/cli/output"
	"github.com/luminal-labs/promptc/internal/cli/testutil"
	"github.com/luminal-labs/promptc/pkg/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, text string) *prompt.Conjunction {
	t.Helper()
	conj, err := prompt.Parse(text)
	require.NoError(t, err)
	return conj
}

func TestAutoModeFallsBackToJSON(t *testing.T) {
	// A bytes.Buffer is not a terminal
	r := output.NewRenderer(&bytes.Buffer{}, &bytes.Buffer{}, output.ModeAuto)
	assert.Equal(t, output.ModeJSON, r.Mode())
}

func TestTreeJSON(t *testing.T) {
	var buf bytes.Buffer
	r := output.NewRenderer(&buf, &bytes.Buffer{}, output.ModeJSON)
	require.NoError(t, r.Tree(parse(t, "fire 2.0(flames)")))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "and", got["type"])
	prompts, ok := got["prompts"].([]any)
	require.True(t, ok)
	require.Len(t, prompts, 1)
}

func TestTreeText(t *testing.T) {
	r := testutil.NewTestRendererText()
	require.NoError(t, r.Tree(parse(t, `fire "flames".swap(trees)`)))

	out := r.Output()
	assert.Contains(t, out, "AND")
	assert.Contains(t, out, "swap")
	assert.Contains(t, out, `"fire"`)
	testutil.AssertNoANSI(t, out)
}

func TestTreeYAML(t *testing.T) {
	var buf bytes.Buffer
	r := output.NewRenderer(&buf, &bytes.Buffer{}, output.ModeYAML)
	require.NoError(t, r.Tree(parse(t, "fire")))
	assert.Contains(t, buf.String(), "type: and")
}

func TestEncodeNode(t *testing.T) {
	enc := output.EncodeNode(prompt.NewFragment("fire", 0.5))
	assert.Equal(t, map[string]any{"type": "fragment", "text": "fire", "weight": 0.5}, enc)

	enc = output.EncodeNode(&prompt.CrossAttentionControlSubstitute{
		Original: []prompt.Node{prompt.TextFragment("a")},
		Edited:   []prompt.Node{prompt.TextFragment("b")},
	})
	m, ok := enc.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "swap", m["type"])
}

func TestErrorGoesToErrStream(t *testing.T) {
	var out, errOut bytes.Buffer
	r := output.NewRenderer(&out, &errOut, output.ModeText)
	r.Error(assert.AnError)
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "Error:")
}
