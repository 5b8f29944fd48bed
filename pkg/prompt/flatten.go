package prompt

// flattenConjunction resolves every branch of a raw Conjunction: attention
// weights are multiplied down into leaf fragments, Attention nodes are
// removed and adjacent same-weight fragments are fused. The input tree is
// never mutated.
func flattenConjunction(root *Conjunction) (*Conjunction, error) {
	flattened := make([]Node, 0, len(root.Prompts))
	for _, part := range root.Prompts {
		out, err := flattenBranch(part)
		if err != nil {
			return nil, err
		}
		flattened = append(flattened, out)
	}
	return NewConjunction(flattened, root.Weights)
}

// flattenBranch flattens one conjunction branch: a Prompt, a Blend or an
// already-flattened prompt (which re-flattens to an equal tree).
func flattenBranch(node Node) (Node, error) {
	switch n := node.(type) {
	case *Prompt:
		return flattenPrompt(n.Children)
	case *FlattenedPrompt:
		return flattenPrompt(n.Children)
	case *Blend:
		prompts := make([]Node, 0, len(n.Prompts))
		for _, sub := range n.Prompts {
			fp, err := flattenBranch(sub)
			if err != nil {
				return nil, err
			}
			prompts = append(prompts, fp)
		}
		b, err := NewBlend(prompts, n.Weights)
		if err != nil {
			return nil, err
		}
		b.NormalizeWeights = n.NormalizeWeights
		return b, nil
	default:
		return nil, parsingErrorf("unhandled node type %T when flattening", node)
	}
}

// flattenPrompt resolves a prompt's children into one buffer, fuses it and
// wraps the result.
func flattenPrompt(children []Node) (*FlattenedPrompt, error) {
	buf, err := flattenNodes(nil, children, 1.0)
	if err != nil {
		return nil, err
	}
	fused := fuseFragments(buf)
	parts := make([]any, len(fused))
	for i, f := range fused {
		parts[i] = f
	}
	return NewFlattenedPrompt(parts...)
}

func flattenNodes(out []Node, nodes []Node, scale float64) ([]Node, error) {
	var err error
	for _, n := range nodes {
		out, err = flattenNode(out, n, scale)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// flattenNode appends the flattened form of one node to out, propagating
// the multiplicative weight scale.
func flattenNode(out []Node, node Node, scale float64) ([]Node, error) {
	switch n := node.(type) {
	case *Attention:
		return flattenNodes(out, n.Children, scale*n.Weight)
	case *Fragment:
		return append(out, &Fragment{Text: n.Text, Weight: n.Weight * scale}), nil
	case *CrossAttentionControlSubstitute:
		original, err := flattenNodes(nil, n.Original, scale)
		if err != nil {
			return nil, err
		}
		edited, err := flattenNodes(nil, n.Edited, scale)
		if err != nil {
			return nil, err
		}
		return append(out, &CrossAttentionControlSubstitute{Original: original, Edited: edited}), nil
	case *CrossAttentionControlAppend:
		return append(out, n), nil
	default:
		return nil, parsingErrorf("unhandled node type %T when flattening", node)
	}
}

// fuseFragments folds a flattened buffer left to right, replacing runs of
// adjacent plain fragments with equal weight by single fragments joined with
// a space. Cross-attention controls break the adjacency chain and have their
// own sides fused independently. Builds a new slice; never mutates inputs.
func fuseFragments(items []Node) []Node {
	result := make([]Node, 0, len(items))
	for _, item := range items {
		if sub, ok := item.(*CrossAttentionControlSubstitute); ok {
			result = append(result, &CrossAttentionControlSubstitute{
				Original: fuseFragments(sub.Original),
				Edited:   fuseFragments(sub.Edited),
			})
			continue
		}
		frag, ok := item.(*Fragment)
		if !ok {
			result = append(result, item)
			continue
		}
		if len(result) > 0 {
			if prev, isFrag := result[len(result)-1].(*Fragment); isFrag && prev.Weight == frag.Weight {
				result[len(result)-1] = &Fragment{Text: prev.Text + " " + frag.Text, Weight: prev.Weight}
				continue
			}
		}
		result = append(result, frag)
	}
	return result
}
