// Package prompt compiles weighted-prompt strings into the structured tree
// consumed by an attention-modulating sampler.
//
// # Usage
//
//	conj, err := prompt.Parse(`fire 2.0(flames 1.5(trees))`)
//	if err != nil {
//	    // handle error
//	}
//
// # Grammar overview
//
// The mini-language assigns relative emphasis to phrases and declares
// cross-attention edits:
//
//	conjunction → ("p1", "p2").and(w1, w2) | { blend } [prompt]
//	blend       → ("p1", "p2").blend(w1, w2)
//	prompt      → one or more of: swap | attention | "quoted" | word
//	swap        → original .swap( edited )
//	attention   → 0.5(phrase) | +(phrase) | --(phrase) | ++word
//
// A '+' run weights by 1.1 per character, a '-' run by 0.9, both
// configurable via NewParserWithBases. Nested attentions multiply.
//
// The grammar is deliberately permissive: unbalanced parentheses, stray
// keywords and unrecognized symbol runs are consumed as ordinary literal
// text instead of raising. The only errors are violated structural
// contracts (see ParsingError).
package prompt

import "strings"

// Default bases for '+' and '-' attention runs.
const (
	DefaultPlusBase  = 1.1
	DefaultMinusBase = 0.9
)

// Parser parses weighted-prompt strings. The zero cost of construction means
// one may be created per call; a Parser is also safe for concurrent use.
type Parser struct {
	plusBase  float64
	minusBase float64
}

// NewParser creates a Parser with the default attention bases.
func NewParser() *Parser {
	return NewParserWithBases(DefaultPlusBase, DefaultMinusBase)
}

// NewParserWithBases creates a Parser with explicit bases for '+' and '-'
// attention runs.
func NewParserWithBases(plusBase, minusBase float64) *Parser {
	return &Parser{plusBase: plusBase, minusBase: minusBase}
}

// Parse compiles a prompt string into a flattened Conjunction. Blank input
// yields a single empty-fragment branch without invoking the grammar.
func (p *Parser) Parse(text string) (*Conjunction, error) {
	raw, err := p.ParseRaw(text)
	if err != nil {
		return nil, err
	}
	return flattenConjunction(raw)
}

// ParseRaw compiles a prompt string into the raw, unflattened Conjunction:
// attention scopes are still present and no fragments have been fused.
func (p *Parser) ParseRaw(text string) (*Conjunction, error) {
	if strings.TrimSpace(text) == "" {
		fp, err := NewFlattenedPrompt(WeightedText{Text: "", Weight: 1.0})
		if err != nil {
			return nil, err
		}
		return NewConjunction([]Node{fp}, []float64{1.0})
	}
	ps := &parser{cur: &cursor{input: text}, plusBase: p.plusBase, minusBase: p.minusBase}
	return ps.parseConjunction()
}

// Flatten resolves a raw tree into its result form. Flattening an
// already-flat tree returns an equal tree.
func (p *Parser) Flatten(root *Conjunction) (*Conjunction, error) {
	return flattenConjunction(root)
}

// Parse compiles a prompt string with the default attention bases.
func Parse(text string) (*Conjunction, error) {
	return NewParser().Parse(text)
}
