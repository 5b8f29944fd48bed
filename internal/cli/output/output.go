// Package output renders parse trees for the CLI in text, JSON or YAML form.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/list"
	"github.com/luminal-labs/promptc/pkg/prompt"
	"github.com/muesli/termenv"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Mode selects the output format.
type Mode string

const (
	ModeAuto Mode = "auto"
	ModeText Mode = "text"
	ModeJSON Mode = "json"
	ModeYAML Mode = "yaml"
)

// Renderer writes parse trees to an output stream.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	styled bool

	labelStyle  lipgloss.Style
	weightStyle lipgloss.Style
	errorStyle  lipgloss.Style
}

// NewRenderer creates a renderer. ModeAuto resolves to text on a TTY and
// JSON otherwise; styling is applied only on a color-capable TTY.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	return NewRendererWithTTY(out, errOut, isTerminal(out), mode)
}

// NewRendererWithTTY creates a renderer with an explicit TTY state. Tests use
// this to pin down mode resolution and styling.
func NewRendererWithTTY(out, errOut io.Writer, tty bool, mode Mode) *Renderer {
	if mode == "" || mode == ModeAuto {
		if tty {
			mode = ModeText
		} else {
			mode = ModeJSON
		}
	}
	styled := tty && termenv.EnvColorProfile() != termenv.Ascii

	return &Renderer{
		out:         out,
		errOut:      errOut,
		mode:        mode,
		styled:      styled,
		labelStyle:  lipgloss.NewStyle().Bold(true),
		weightStyle: lipgloss.NewStyle().Faint(true),
		errorStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

// Mode returns the resolved output mode.
func (r *Renderer) Mode() Mode {
	return r.mode
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Tree renders a parsed conjunction in the renderer's mode.
func (r *Renderer) Tree(conj *prompt.Conjunction) error {
	switch r.mode {
	case ModeJSON:
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(EncodeNode(conj))
	case ModeYAML:
		data, err := yaml.Marshal(EncodeNode(conj))
		if err != nil {
			return err
		}
		_, err = r.out.Write(data)
		return err
	default:
		return r.renderText(conj)
	}
}

// Error writes an error message to the error stream.
func (r *Renderer) Error(err error) {
	msg := fmt.Sprintf("Error: %v", err)
	if r.styled {
		msg = r.errorStyle.Render(msg)
	}
	_, _ = fmt.Fprintln(r.errOut, msg)
}

func (r *Renderer) renderText(conj *prompt.Conjunction) error {
	l := list.NewWriter()
	l.SetStyle(list.StyleConnectedLight)
	r.appendConjunction(l, conj)
	_, err := fmt.Fprintln(r.out, l.Render())
	return err
}

func (r *Renderer) appendConjunction(l list.Writer, conj *prompt.Conjunction) {
	l.AppendItem(r.label("AND") + " " + r.weights(conj.Weights))
	l.Indent()
	for _, p := range conj.Prompts {
		r.appendNode(l, p)
	}
	l.UnIndent()
}

func (r *Renderer) appendNode(l list.Writer, node prompt.Node) {
	switch n := node.(type) {
	case *prompt.Prompt:
		r.appendChildren(l, "prompt", n.Children)
	case *prompt.FlattenedPrompt:
		r.appendChildren(l, "prompt", n.Children)
	case *prompt.Blend:
		l.AppendItem(r.label("blend") + " " + r.weights(n.Weights))
		l.Indent()
		for _, p := range n.Prompts {
			r.appendNode(l, p)
		}
		l.UnIndent()
	case *prompt.Attention:
		r.appendChildren(l, "attention "+r.weight(n.Weight), n.Children)
	case *prompt.Fragment:
		l.AppendItem(fmt.Sprintf("%q %s", n.Text, r.weight(n.Weight)))
	case *prompt.CrossAttentionControlSubstitute:
		l.AppendItem(r.label("swap"))
		l.Indent()
		r.appendChildren(l, "original", n.Original)
		r.appendChildren(l, "edited", n.Edited)
		l.UnIndent()
	case *prompt.CrossAttentionControlAppend:
		r.appendChildren(l, "append", []prompt.Node{n.Fragment})
	default:
		l.AppendItem(fmt.Sprintf("%T", node))
	}
}

func (r *Renderer) appendChildren(l list.Writer, label string, children []prompt.Node) {
	l.AppendItem(r.label(label))
	l.Indent()
	for _, c := range children {
		r.appendNode(l, c)
	}
	l.UnIndent()
}

func (r *Renderer) label(s string) string {
	if r.styled {
		return r.labelStyle.Render(s)
	}
	return s
}

func (r *Renderer) weight(w float64) string {
	s := "×" + strconv.FormatFloat(w, 'g', -1, 64)
	if r.styled {
		return r.weightStyle.Render(s)
	}
	return s
}

func (r *Renderer) weights(ws []float64) string {
	s := "weights:"
	for i, w := range ws {
		if i > 0 {
			s += ","
		}
		s += " " + strconv.FormatFloat(w, 'g', -1, 64)
	}
	if r.styled {
		return r.weightStyle.Render(s)
	}
	return s
}
