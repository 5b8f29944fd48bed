package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/luminal-labs/promptc/pkg/prompt"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// ParseOptions holds options for the parse command.
type ParseOptions struct {
	File string
	Raw  bool
}

// NewParseCommand creates the parse command.
func NewParseCommand() *cobra.Command {
	opts := &ParseOptions{}

	cmd := &cobra.Command{
		Use:   "parse [prompt...]",
		Short: "Parse prompts and print their trees",
		Long: `Parse one or more weighted prompts and print the resulting trees.

Prompts are given as arguments (joined with spaces into a single prompt),
read line by line from a file with --file, or read line by line from stdin
when no arguments are given.`,
		Example: `  # Parse a prompt given as arguments
  promptc parse fire 2.0(flames)

  # Parse every line of a file
  promptc parse --file prompts.txt

  # Parse from stdin
  echo 'a forest "in summer".swap("in winter")' | promptc parse

  # Show the raw tree with attention scopes intact
  promptc parse --raw "+(pretty flowers)"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "Read prompts from file, one per line (- for stdin)")
	cmd.Flags().BoolVar(&opts.Raw, "raw", false, "Print the raw tree without flattening")

	return cmd
}

func runParse(cmd *cobra.Command, args []string, opts *ParseOptions) error {
	cc := NewCommandContext(cmd)

	lines, err := collectInputs(cmd, args, opts.File)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return fmt.Errorf("no prompts to parse")
	}

	cc.Logger.Debug("parsing prompts", "count", len(lines), "raw", opts.Raw)

	// Parse lines concurrently; rendering stays in input order.
	results := make([]*prompt.Conjunction, len(lines))
	g, _ := errgroup.WithContext(cmd.Context())
	g.SetLimit(runtime.NumCPU())
	for i, line := range lines {
		i, line := i, line
		g.Go(func() error {
			conj, err := parseLine(cc.Parser, line, opts.Raw)
			if err != nil {
				return fmt.Errorf("line %d: %w", i+1, err)
			}
			results[i] = conj
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, conj := range results {
		if err := cc.Renderer.Tree(conj); err != nil {
			return err
		}
	}
	return nil
}

func parseLine(p *prompt.Parser, line string, raw bool) (*prompt.Conjunction, error) {
	if raw {
		return p.ParseRaw(line)
	}
	return p.Parse(line)
}

// collectInputs resolves the prompts to parse. Arguments win over --file;
// with neither, stdin is read line by line.
func collectInputs(cmd *cobra.Command, args []string, file string) ([]string, error) {
	if len(args) > 0 {
		return []string{strings.Join(args, " ")}, nil
	}

	var r io.Reader
	switch {
	case file == "" || file == "-":
		r = cmd.InOrStdin()
	default:
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("failed to open prompts file: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}
	return readLines(r)
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read prompts: %w", err)
	}
	return lines, nil
}
