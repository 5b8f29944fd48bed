package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPrompt(t *testing.T, children ...Node) *Prompt {
	t.Helper()
	p, err := NewPrompt(children)
	require.NoError(t, err)
	return p
}

func TestFlattenRemovesAttention(t *testing.T) {
	raw, err := NewConjunction([]Node{mustPrompt(t,
		TextFragment("fire"),
		&Attention{Weight: 2.0, Children: []Node{
			TextFragment("flames"),
			&Attention{Weight: 1.5, Children: []Node{TextFragment("trees")}},
		}},
	)}, nil)
	require.NoError(t, err)

	got, err := flattenConjunction(raw)
	require.NoError(t, err)

	want, err := NewFlattenedPrompt(
		NewFragment("fire", 1),
		NewFragment("flames", 2),
		NewFragment("trees", 3),
	)
	require.NoError(t, err)
	require.Len(t, got.Prompts, 1)
	assert.Equal(t, want, got.Prompts[0])
}

func TestFlattenScalesCrossAttentionSides(t *testing.T) {
	raw, err := NewConjunction([]Node{mustPrompt(t,
		&Attention{Weight: 0.5, Children: []Node{
			&CrossAttentionControlSubstitute{
				Original: []Node{TextFragment("flames")},
				Edited:   []Node{&Attention{Weight: 2.0, Children: []Node{TextFragment("trees")}}},
			},
		}},
	)}, nil)
	require.NoError(t, err)

	got, err := flattenConjunction(raw)
	require.NoError(t, err)

	fp, ok := got.Prompts[0].(*FlattenedPrompt)
	require.True(t, ok)
	require.Len(t, fp.Children, 1)
	sub, ok := fp.Children[0].(*CrossAttentionControlSubstitute)
	require.True(t, ok)
	assert.Equal(t, []Node{NewFragment("flames", 0.5)}, sub.Original)
	assert.Equal(t, []Node{NewFragment("trees", 1.0)}, sub.Edited)
}

func TestFuseFragments(t *testing.T) {
	tests := []struct {
		name  string
		items []Node
		want  []Node
	}{
		{
			"equal weights join with a space",
			[]Node{NewFragment("fire", 1), NewFragment("flames", 1)},
			[]Node{NewFragment("fire flames", 1)},
		},
		{
			"weight change breaks the run",
			[]Node{NewFragment("fire", 1), NewFragment("flames", 0.5), NewFragment("hot", 0.5)},
			[]Node{NewFragment("fire", 1), NewFragment("flames hot", 0.5)},
		},
		{
			"substitute breaks adjacency even between equal weights",
			[]Node{
				NewFragment("a", 1),
				&CrossAttentionControlSubstitute{
					Original: []Node{NewFragment("b", 1), NewFragment("c", 1)},
					Edited:   []Node{NewFragment("d", 1)},
				},
				NewFragment("e", 1),
			},
			[]Node{
				NewFragment("a", 1),
				&CrossAttentionControlSubstitute{
					Original: []Node{NewFragment("b c", 1)},
					Edited:   []Node{NewFragment("d", 1)},
				},
				NewFragment("e", 1),
			},
		},
		{
			"empty input",
			nil,
			[]Node{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fuseFragments(tt.items))
		})
	}
}

func TestFuseFragmentsDoesNotMutateInput(t *testing.T) {
	a := NewFragment("fire", 1)
	b := NewFragment("flames", 1)
	fuseFragments([]Node{a, b})
	assert.Equal(t, "fire", a.Text)
	assert.Equal(t, "flames", b.Text)
}

func TestFlattenIsIdempotent(t *testing.T) {
	p := NewParser()
	flat, err := p.Parse(`fire 2.0(flames 1.5(trees)) "a".swap(b)`)
	require.NoError(t, err)

	again, err := p.Flatten(flat)
	require.NoError(t, err)
	assert.Equal(t, flat, again)
}

type bogusNode struct{}

func (bogusNode) node() {}

func TestFlattenRejectsUnknownNodes(t *testing.T) {
	_, err := flattenBranch(bogusNode{})
	require.Error(t, err)
	var perr *ParsingError
	assert.ErrorAs(t, err, &perr)
	assert.Contains(t, err.Error(), "unhandled node type")
}
