package prompt

// Node is implemented by every value in a prompt parse tree.
type Node interface {
	node()
}

// FragmentNode is implemented by the nodes that may appear as fragment
// material inside a prompt: Fragment, CrossAttentionControlSubstitute and
// CrossAttentionControlAppend.
type FragmentNode interface {
	Node
	fragmentNode()
}

// Fragment is the minimal unit of weighted text.
type Fragment struct {
	Text   string
	Weight float64
}

func (*Fragment) node()         {}
func (*Fragment) fragmentNode() {}

// NewFragment creates a Fragment with an explicit weight.
func NewFragment(text string, weight float64) *Fragment {
	return &Fragment{Text: text, Weight: weight}
}

// TextFragment creates a Fragment at the default weight of 1.0.
func TextFragment(text string) *Fragment {
	return &Fragment{Text: text, Weight: 1.0}
}

// Attention scales the weight of every fragment beneath it. It exists only in
// the raw tree; flattening folds it into the leaf fragment weights.
type Attention struct {
	Weight   float64
	Children []Node
}

func (*Attention) node() {}

// CrossAttentionControlSubstitute directs the downstream sampler to keep the
// position of Original but borrow the cross-attention pattern learned for
// Edited. In a raw tree both sides may contain Attention nodes; after
// flattening they hold only Fragments.
type CrossAttentionControlSubstitute struct {
	Original []Node
	Edited   []Node
}

func (*CrossAttentionControlSubstitute) node()         {}
func (*CrossAttentionControlSubstitute) fragmentNode() {}

// CrossAttentionControlAppend carries a fragment through parsing and
// flattening unchanged (append-style control).
type CrossAttentionControlAppend struct {
	Fragment *Fragment
}

func (*CrossAttentionControlAppend) node()         {}
func (*CrossAttentionControlAppend) fragmentNode() {}

// Prompt is the raw, unflattened sequence of weighted phrase material.
type Prompt struct {
	Children []Node
}

func (*Prompt) node() {}

// NewPrompt builds a Prompt, rejecting children that are neither Attention
// nodes nor fragment material.
func NewPrompt(children []Node) (*Prompt, error) {
	for _, c := range children {
		switch c.(type) {
		case *Attention:
		case FragmentNode:
		default:
			return nil, parsingErrorf("Prompt cannot contain %T, only attentions and fragments are allowed", c)
		}
	}
	return &Prompt{Children: children}, nil
}

// FlattenedPrompt is the result form of a Prompt: only Fragments and
// cross-attention controls remain, with all attention weights resolved.
type FlattenedPrompt struct {
	Children []Node
}

func (*FlattenedPrompt) node() {}

// WeightedText is a bare (text, weight) pair accepted by NewFlattenedPrompt
// in place of a constructed Fragment.
type WeightedText struct {
	Text   string
	Weight float64
}

// NewFlattenedPrompt builds a FlattenedPrompt from fragment nodes or
// WeightedText pairs, which are upgraded to Fragments. Anything else is a
// structural violation.
func NewFlattenedPrompt(parts ...any) (*FlattenedPrompt, error) {
	converted := make([]Node, 0, len(parts))
	for _, part := range parts {
		switch p := part.(type) {
		case FragmentNode:
			converted = append(converted, p)
		case WeightedText:
			converted = append(converted, &Fragment{Text: p.Text, Weight: p.Weight})
		default:
			return nil, parsingErrorf("FlattenedPrompt cannot contain %T, only fragments or (text, weight) pairs are allowed", part)
		}
	}
	return &FlattenedPrompt{Children: converted}, nil
}

// Blend is a weighted interpolation across independently flattened prompt
// variants.
type Blend struct {
	Prompts          []Node
	Weights          []float64
	NormalizeWeights bool
}

func (*Blend) node() {}

// NewBlend builds a Blend of Prompts or FlattenedPrompts with one weight per
// prompt. Weight normalization is left on for the downstream consumer.
func NewBlend(prompts []Node, weights []float64) (*Blend, error) {
	if len(prompts) != len(weights) {
		return nil, parsingErrorf("while parsing Blend: mismatched prompts/weights counts %d vs %d", len(prompts), len(weights))
	}
	for _, p := range prompts {
		switch p.(type) {
		case *Prompt, *FlattenedPrompt:
		default:
			return nil, parsingErrorf("%T cannot be added to a Blend, only Prompts or FlattenedPrompts", p)
		}
	}
	return &Blend{Prompts: prompts, Weights: weights, NormalizeWeights: true}, nil
}

// ConjunctionType is the tag carried by every Conjunction.
const ConjunctionType = "AND"

// Conjunction is the top-level result: independent prompt branches the
// downstream consumer generates separately and combines.
type Conjunction struct {
	Prompts []Node
	Weights []float64
	Type    string
}

func (*Conjunction) node() {}

// NewConjunction builds a Conjunction. Entries that are not already a Prompt,
// Blend or FlattenedPrompt are coerced into single-element Prompts. When
// weights is nil every prompt gets weight 1.0; otherwise the counts must
// match.
func NewConjunction(prompts []Node, weights []float64) (*Conjunction, error) {
	coerced := make([]Node, 0, len(prompts))
	for _, p := range prompts {
		switch p.(type) {
		case *Prompt, *Blend, *FlattenedPrompt:
			coerced = append(coerced, p)
		default:
			wrapped, err := NewPrompt([]Node{p})
			if err != nil {
				return nil, err
			}
			coerced = append(coerced, wrapped)
		}
	}
	if weights == nil {
		weights = make([]float64, len(coerced))
		for i := range weights {
			weights[i] = 1.0
		}
	} else if len(weights) != len(coerced) {
		return nil, parsingErrorf("while parsing Conjunction: mismatched prompts/weights counts %d vs %d", len(coerced), len(weights))
	}
	return &Conjunction{Prompts: coerced, Weights: weights, Type: ConjunctionType}, nil
}
