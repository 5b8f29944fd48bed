package prompt_test

import (
	"testing"

	"github.com/luminal-labs/promptc/pkg/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPromptRejectsBranchChildren(t *testing.T) {
	_, err := prompt.NewPrompt([]prompt.Node{
		prompt.TextFragment("fire"),
		flat(frag("flames", 1)),
	})
	require.Error(t, err)
	var perr *prompt.ParsingError
	assert.ErrorAs(t, err, &perr)
}

func TestNewPromptAcceptsAttentionAndFragments(t *testing.T) {
	p, err := prompt.NewPrompt([]prompt.Node{
		prompt.TextFragment("fire"),
		&prompt.Attention{Weight: 2.0, Children: []prompt.Node{prompt.TextFragment("flames")}},
		swap([]prompt.Node{frag("a", 1)}, []prompt.Node{frag("b", 1)}),
	})
	require.NoError(t, err)
	assert.Len(t, p.Children, 3)
}

func TestNewFlattenedPromptUpgradesPairs(t *testing.T) {
	fp, err := prompt.NewFlattenedPrompt(
		prompt.WeightedText{Text: "fire", Weight: 0.5},
		frag("flames", 1),
	)
	require.NoError(t, err)
	assert.Equal(t, []prompt.Node{frag("fire", 0.5), frag("flames", 1)}, fp.Children)

	_, err = prompt.NewFlattenedPrompt("fire")
	require.Error(t, err)
}

func TestNewBlendValidation(t *testing.T) {
	_, err := prompt.NewBlend(
		[]prompt.Node{flat(frag("fire", 1)), flat(frag("flames", 1))},
		[]float64{0.7})
	require.Error(t, err)

	_, err = prompt.NewBlend(
		[]prompt.Node{blend([]float64{1}, flat(frag("fire", 1)))},
		[]float64{1})
	require.Error(t, err, "a blend cannot nest another blend")

	b, err := prompt.NewBlend(
		[]prompt.Node{flat(frag("fire", 1))},
		[]float64{0.7})
	require.NoError(t, err)
	assert.True(t, b.NormalizeWeights)
}

func TestNewConjunction(t *testing.T) {
	t.Run("weight count mismatch", func(t *testing.T) {
		_, err := prompt.NewConjunction(
			[]prompt.Node{flat(frag("fire", 1)), flat(frag("flames", 1))},
			[]float64{2})
		require.Error(t, err)
		var perr *prompt.ParsingError
		assert.ErrorAs(t, err, &perr)
	})

	t.Run("nil weights default to 1", func(t *testing.T) {
		c, err := prompt.NewConjunction(
			[]prompt.Node{flat(frag("fire", 1)), flat(frag("flames", 1))}, nil)
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 1}, c.Weights)
		assert.Equal(t, prompt.ConjunctionType, c.Type)
	})

	t.Run("bare fragments are wrapped in prompts", func(t *testing.T) {
		c, err := prompt.NewConjunction([]prompt.Node{prompt.TextFragment("fire")}, nil)
		require.NoError(t, err)
		require.Len(t, c.Prompts, 1)
		p, ok := c.Prompts[0].(*prompt.Prompt)
		require.True(t, ok)
		assert.Equal(t, []prompt.Node{prompt.TextFragment("fire")}, p.Children)
	})
}

func TestParsingErrorMessage(t *testing.T) {
	err := &prompt.ParsingError{Message: "boom"}
	assert.Equal(t, "prompt: boom", err.Error())
}
