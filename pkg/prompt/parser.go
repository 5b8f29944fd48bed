package prompt

import (
	"math"
	"strconv"
	"strings"
)

// parser holds the state of one parse: a cursor over the input plus the
// attention bases used to resolve +/- weight runs.
//
// Productions are tried as ordered alternatives, first match wins:
//
//	conjunction  → conjunction_with_parens | implicit_conjunction
//	implicit     → { blend } [prompt-to-end]
//	prompt_part  → cross_attention_substitute | attention
//	             | quoted_fragment | unquoted_fragment
//
// Anything that fails every structured production is consumed as literal
// text by the unquoted fragment rule; only node constructors raise.
type parser struct {
	cur       *cursor
	plusBase  float64
	minusBase float64
}

func (p *parser) sub(input string) *parser {
	return &parser{cur: &cursor{input: input}, plusBase: p.plusBase, minusBase: p.minusBase}
}

// ---------- Conjunction / Blend ----------

func (p *parser) parseConjunction() (*Conjunction, error) {
	if conj, ok, err := p.parseConjunctionWithParens(); ok || err != nil {
		return conj, err
	}
	return p.parseImplicitConjunction()
}

// parseConjunctionWithParens matches ("p1", "p2").and(w1, w2); the weight
// list may be omitted, defaulting every branch to 1.0.
func (p *parser) parseConjunctionWithParens() (*Conjunction, bool, error) {
	c := p.cur
	m := c.mark()
	c.skipSpace()
	prompts, ok := p.parseQuotedPromptList()
	if !ok {
		c.reset(m)
		return nil, false, nil
	}
	c.skipSpace()
	if !c.consume(".and") {
		c.reset(m)
		return nil, false, nil
	}
	c.skipSpace()
	if !c.consume("(") {
		c.reset(m)
		return nil, false, nil
	}
	c.skipSpace()
	var weights []float64
	if nums, numsOK := p.parseNumberList(); numsOK {
		weights = nums
	}
	c.skipSpace()
	if !c.consume(")") {
		c.reset(m)
		return nil, false, nil
	}
	conj, err := NewConjunction(prompts, weights)
	return conj, true, err
}

func (p *parser) parseImplicitConjunction() (*Conjunction, error) {
	var parts []Node
	for {
		p.cur.skipSpace()
		if p.cur.atEnd() {
			break
		}
		b, ok, err := p.parseBlend()
		if err != nil {
			return nil, err
		}
		if ok {
			parts = append(parts, b)
			continue
		}
		pr, err := p.parsePromptToEnd()
		if err != nil {
			return nil, err
		}
		parts = append(parts, pr)
		break
	}
	return NewConjunction(parts, nil)
}

// parseBlend matches ("p1", "p2").blend(w1, w2); unlike .and the weight
// list is required.
func (p *parser) parseBlend() (*Blend, bool, error) {
	c := p.cur
	m := c.mark()
	prompts, ok := p.parseQuotedPromptList()
	if !ok {
		c.reset(m)
		return nil, false, nil
	}
	c.skipSpace()
	if !c.consume(".blend") {
		c.reset(m)
		return nil, false, nil
	}
	c.skipSpace()
	if !c.consume("(") {
		c.reset(m)
		return nil, false, nil
	}
	weights, ok := p.parseNumberList()
	if !ok {
		c.reset(m)
		return nil, false, nil
	}
	c.skipSpace()
	if !c.consume(")") {
		c.reset(m)
		return nil, false, nil
	}
	b, err := NewBlend(prompts, weights)
	return b, true, err
}

// parseQuotedPromptList matches a parenthesized, comma-separated list of
// double-quoted prompts.
func (p *parser) parseQuotedPromptList() ([]Node, bool) {
	c := p.cur
	m := c.mark()
	if !c.consume("(") {
		return nil, false
	}
	var prompts []Node
	for {
		c.skipSpace()
		pr, ok := p.parseQuotedPrompt()
		if !ok {
			c.reset(m)
			return nil, false
		}
		prompts = append(prompts, pr)
		c.skipSpace()
		if c.consume(",") {
			continue
		}
		break
	}
	if !c.consume(")") {
		c.reset(m)
		return nil, false
	}
	return prompts, true
}

// parseQuotedPrompt reads a double-quoted string and re-parses its interior
// with the full prompt grammar. A blank interior yields a single empty
// fragment.
func (p *parser) parseQuotedPrompt() (Node, bool) {
	content, ok := p.scanDoubleQuoted()
	if !ok {
		return nil, false
	}
	if strings.TrimSpace(content) == "" {
		return &Prompt{Children: []Node{TextFragment("")}}, true
	}
	pr, err := p.sub(content).parsePromptToEnd()
	if err != nil {
		return nil, false
	}
	return pr, true
}

// ---------- Prompt ----------

func (p *parser) parsePromptToEnd() (*Prompt, error) {
	var parts []Node
	for {
		p.cur.skipSpace()
		if p.cur.atEnd() {
			break
		}
		parts = append(parts, p.parsePromptPart()...)
	}
	return NewPrompt(parts)
}

// parsePromptPart consumes one prompt element. It cannot fail: the unquoted
// fragment rule accepts any run of non-whitespace text.
func (p *parser) parsePromptPart() []Node {
	if sub, ok := p.parseCrossAttentionSubstitute(); ok {
		return []Node{sub}
	}
	if att, ok := p.parseAttention(); ok {
		return []Node{att}
	}
	if nodes, ok := p.parseQuotedFragment(); ok {
		return nodes
	}
	if frag := p.parseUnquotedFragment(); frag != nil {
		return []Node{frag}
	}
	// unreachable: the unquoted rule always consumes at least one byte
	p.cur.next()
	return nil
}

// ---------- Cross-attention substitution ----------

func (p *parser) parseCrossAttentionSubstitute() (Node, bool) {
	c := p.cur
	m := c.mark()
	original, ok := p.parseSwapOriginal()
	if !ok {
		c.reset(m)
		return nil, false
	}
	c.skipSpace()
	if !c.consume(".swap") {
		c.reset(m)
		return nil, false
	}
	c.skipSpace()
	edited, ok := p.parseParenthesizedFragment()
	if !ok {
		c.reset(m)
		return nil, false
	}
	return &CrossAttentionControlSubstitute{Original: original, Edited: edited}, true
}

// parseSwapOriginal matches the left side of a .swap: an empty-string form,
// a quoted fragment, a parenthesized fragment or an unquoted fragment, in
// that order. The first alternative that matches is committed to.
func (p *parser) parseSwapOriginal() ([]Node, bool) {
	c := p.cur
	m := c.mark()
	// empty-string forms: () | "" | ("")
	if c.consume("(") {
		c.skipSpace()
		if c.consume(")") {
			return []Node{TextFragment("")}, true
		}
		if c.consume(`""`) {
			c.skipSpace()
			if c.consume(")") {
				return []Node{TextFragment("")}, true
			}
		}
		c.reset(m)
	}
	if c.consume(`""`) {
		return []Node{TextFragment("")}, true
	}
	c.reset(m)
	if nodes, ok := p.parseQuotedFragment(); ok {
		return nodes, true
	}
	if nodes, ok := p.parseParenthesizedFragment(); ok {
		return nodes, true
	}
	if frag := p.parseUnquotedFragment(); frag != nil {
		return []Node{frag}, true
	}
	return nil, false
}

// parseParenthesizedFragment matches (" ... "), () or ( ... ); the body of
// the unquoted form runs to the first unescaped closing paren and is
// re-parsed as a run of attentions and words.
func (p *parser) parseParenthesizedFragment() ([]Node, bool) {
	c := p.cur
	m := c.mark()
	if !c.consume("(") {
		return nil, false
	}
	inner := c.mark()
	c.skipSpace()
	if nodes, ok := p.parseQuotedFragment(); ok {
		c.skipSpace()
		if c.consume(")") {
			return nodes, true
		}
	}
	c.reset(inner)
	if c.consume(")") {
		return []Node{TextFragment("")}, true
	}
	start := c.pos
	for !c.atEnd() && c.peek() != ')' {
		if c.peek() == '\\' {
			c.next()
			if c.peek() == ')' {
				c.next()
			}
			continue
		}
		c.next()
	}
	if c.atEnd() {
		c.reset(m)
		return nil, false
	}
	content := c.input[start:c.pos]
	c.next() // closing paren
	if strings.TrimSpace(content) == "" {
		return []Node{TextFragment("")}, true
	}
	return p.parseFragmentString(content), true
}

// ---------- Attention ----------

func (p *parser) parseAttention() (Node, bool) {
	if att, ok := p.parseAttentionWithParens(); ok {
		return att, true
	}
	// +word / --word: the sign run weights only the one word that follows
	// immediately, parens excluded.
	c := p.cur
	m := c.mark()
	weight, ok := p.parseSignRun()
	if !ok {
		return nil, false
	}
	word, ok := p.parseAttentionWord()
	if !ok {
		c.reset(m)
		return nil, false
	}
	return &Attention{Weight: weight, Children: []Node{TextFragment(word)}}, true
}

// parseAttentionWithParens matches a weight head (numeric literal or +/-
// run) immediately followed by a parenthesized body.
func (p *parser) parseAttentionWithParens() (Node, bool) {
	c := p.cur
	m := c.mark()
	weight, ok := p.parseAttentionHead()
	if !ok || c.peek() != '(' {
		c.reset(m)
		return nil, false
	}
	children, ok := p.parseAttentionBody()
	if !ok {
		c.reset(m)
		return nil, false
	}
	return &Attention{Weight: weight, Children: children}, true
}

func (p *parser) parseAttentionHead() (float64, bool) {
	if w, ok := p.parseNumber(); ok {
		return w, true
	}
	return p.parseSignRun()
}

// parseSignRun reads a run of k '+' or '-' characters and maps it to
// plusBase^k or minusBase^k.
func (p *parser) parseSignRun() (float64, bool) {
	c := p.cur
	ch := c.peek()
	if ch != '+' && ch != '-' {
		return 0, false
	}
	count := 0
	for c.peek() == ch {
		c.next()
		count++
	}
	base := p.plusBase
	if ch == '-' {
		base = p.minusBase
	}
	return math.Pow(base, float64(count)), true
}

// parseAttentionBody parses the parenthesized body of an attention: a
// whitespace-delimited run of nested attentions, bare grouping parens
// (spliced in with no weight change) and plain words. Fails on unbalanced
// parens so the caller can fall back to literal text.
func (p *parser) parseAttentionBody() ([]Node, bool) {
	c := p.cur
	m := c.mark()
	if !c.consume("(") {
		return nil, false
	}
	var children []Node
	for {
		c.skipSpace()
		if c.atEnd() {
			c.reset(m)
			return nil, false
		}
		if c.peek() == ')' {
			c.next()
			return children, true
		}
		if c.peek() == '(' {
			nested, ok := p.parseAttentionBody()
			if !ok {
				c.reset(m)
				return nil, false
			}
			children = append(children, nested...)
			continue
		}
		if att, ok := p.parseAttentionWithParens(); ok {
			children = append(children, att)
			continue
		}
		word, ok := p.parseAttentionWord()
		if !ok {
			c.reset(m)
			return nil, false
		}
		children = append(children, TextFragment(word))
	}
}

// parseAttentionWord reads a run of characters excluding whitespace and
// parens, starting at the current position with no space skipping.
func (p *parser) parseAttentionWord() (string, bool) {
	c := p.cur
	start := c.mark()
	for !c.atEnd() {
		ch := c.peek()
		if isSpace(ch) || ch == '(' || ch == ')' {
			break
		}
		c.next()
	}
	if c.pos == start {
		return "", false
	}
	return c.input[start:c.pos], true
}

// ---------- Fragments ----------

// parseQuotedFragment reads a double-quoted fragment and re-parses its
// interior as a run of attentions and words. A blank interior yields a
// single empty fragment.
func (p *parser) parseQuotedFragment() ([]Node, bool) {
	content, ok := p.scanQuotedContent()
	if !ok {
		return nil, false
	}
	if strings.TrimSpace(content) == "" {
		return []Node{TextFragment("")}, true
	}
	return p.parseFragmentString(content), true
}

// scanQuotedContent reads a double-quoted fragment. An escaped quote \" is
// unescaped; every other escape sequence is kept verbatim including the
// backslash.
func (p *parser) scanQuotedContent() (string, bool) {
	c := p.cur
	m := c.mark()
	if !c.consume(`"`) {
		return "", false
	}
	var b strings.Builder
	for !c.atEnd() {
		ch := c.next()
		switch ch {
		case '"':
			return b.String(), true
		case '\\':
			nxt := c.peek()
			switch {
			case nxt == '"':
				b.WriteByte('"')
				c.next()
			case nxt != 0:
				b.WriteByte('\\')
				b.WriteByte(nxt)
				c.next()
			default:
				b.WriteByte('\\')
			}
		default:
			b.WriteByte(ch)
		}
	}
	c.reset(m)
	return "", false
}

// scanDoubleQuoted reads a double-quoted string keeping every escape
// sequence verbatim. Used for blend/conjunction terms, whose interiors are
// re-parsed by the full prompt grammar.
func (p *parser) scanDoubleQuoted() (string, bool) {
	c := p.cur
	m := c.mark()
	if !c.consume(`"`) {
		return "", false
	}
	start := c.pos
	for !c.atEnd() {
		switch c.peek() {
		case '"':
			content := c.input[start:c.pos]
			c.next()
			return content, true
		case '\\':
			c.next()
			if !c.atEnd() {
				c.next()
			}
		default:
			c.next()
		}
	}
	c.reset(m)
	return "", false
}

// parseFragmentString re-parses fragment text as a run of attentions and
// whitespace-delimited words.
func (p *parser) parseFragmentString(s string) []Node {
	sub := p.sub(s)
	var nodes []Node
	for {
		sub.cur.skipSpace()
		if sub.cur.atEnd() {
			return nodes
		}
		if att, ok := sub.parseAttention(); ok {
			nodes = append(nodes, att)
			continue
		}
		start := sub.cur.mark()
		for !sub.cur.atEnd() && !isSpace(sub.cur.peek()) {
			sub.cur.next()
		}
		nodes = append(nodes, TextFragment(sub.cur.input[start:sub.cur.pos]))
	}
}

// parseUnquotedFragment consumes a maximal run of non-whitespace text. The
// grammar recognizes \( \) \" \\ as non-terminating escapes but copies them
// into the text verbatim, backslash included. An unescaped double quote ends
// the run, except a stray quote with no text before it, which is consumed as
// literal text so malformed quoting degrades instead of failing the parse.
func (p *parser) parseUnquotedFragment() *Fragment {
	c := p.cur
	start := c.mark()
	for !c.atEnd() {
		ch := c.peek()
		if isSpace(ch) {
			break
		}
		if ch == '\\' {
			c.next()
			if c.peek() == '"' {
				c.next()
			}
			continue
		}
		if ch == '"' {
			if c.pos == start {
				c.next()
				continue
			}
			break
		}
		c.next()
	}
	if c.pos == start {
		return nil
	}
	return TextFragment(c.input[start:c.pos])
}

// ---------- Numbers ----------

// parseNumber matches a numeric literal: an optionally signed decimal
// containing a dot, or an unsigned integer run. Always yields a float.
func (p *parser) parseNumber() (float64, bool) {
	c := p.cur
	start := c.mark()
	i := c.pos
	j := i
	if j < len(c.input) && (c.input[j] == '+' || c.input[j] == '-') {
		j++
	}
	digitsStart := j
	for j < len(c.input) && isDigit(c.input[j]) {
		j++
	}
	hasInt := j > digitsStart
	if j < len(c.input) && c.input[j] == '.' {
		j++
		fracStart := j
		for j < len(c.input) && isDigit(c.input[j]) {
			j++
		}
		if !hasInt && j == fracStart {
			c.reset(start)
			return 0, false
		}
	} else if !hasInt || digitsStart != i {
		// without a dot only an unsigned integer run qualifies
		c.reset(start)
		return 0, false
	}
	v, err := strconv.ParseFloat(c.input[i:j], 64)
	if err != nil {
		c.reset(start)
		return 0, false
	}
	c.pos = j
	return v, true
}

func (p *parser) parseNumberList() ([]float64, bool) {
	c := p.cur
	m := c.mark()
	var nums []float64
	for {
		c.skipSpace()
		n, ok := p.parseNumber()
		if !ok {
			c.reset(m)
			return nil, false
		}
		nums = append(nums, n)
		c.skipSpace()
		if c.consume(",") {
			continue
		}
		return nums, true
	}
}
