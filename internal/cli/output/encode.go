package output

import (
	"fmt"

	"github.com/luminal-labs/promptc/pkg/prompt"
)

// EncodeNode converts a parse tree node into plain maps and slices suitable
// for JSON or YAML marshalling. Every node carries a "type" tag.
func EncodeNode(node prompt.Node) any {
	switch n := node.(type) {
	case *prompt.Conjunction:
		return map[string]any{
			"type":    "and",
			"weights": n.Weights,
			"prompts": encodeNodes(n.Prompts),
		}
	case *prompt.Blend:
		return map[string]any{
			"type":      "blend",
			"weights":   n.Weights,
			"normalize": n.NormalizeWeights,
			"prompts":   encodeNodes(n.Prompts),
		}
	case *prompt.Prompt:
		return map[string]any{
			"type":     "prompt",
			"children": encodeNodes(n.Children),
		}
	case *prompt.FlattenedPrompt:
		return map[string]any{
			"type":     "prompt",
			"children": encodeNodes(n.Children),
		}
	case *prompt.Attention:
		return map[string]any{
			"type":     "attention",
			"weight":   n.Weight,
			"children": encodeNodes(n.Children),
		}
	case *prompt.Fragment:
		return map[string]any{
			"type":   "fragment",
			"text":   n.Text,
			"weight": n.Weight,
		}
	case *prompt.CrossAttentionControlSubstitute:
		return map[string]any{
			"type":     "swap",
			"original": encodeNodes(n.Original),
			"edited":   encodeNodes(n.Edited),
		}
	case *prompt.CrossAttentionControlAppend:
		return map[string]any{
			"type":     "append",
			"fragment": EncodeNode(n.Fragment),
		}
	default:
		return map[string]any{"type": fmt.Sprintf("%T", node)}
	}
}

func encodeNodes(nodes []prompt.Node) []any {
	out := make([]any, len(nodes))
	for i, n := range nodes {
		out[i] = EncodeNode(n)
	}
	return out
}
