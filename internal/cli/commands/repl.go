package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/luminal-labs/promptc/internal/cli/output"
	"github.com/luminal-labs/promptc/pkg/prompt"
	"github.com/spf13/cobra"
)

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "repl",
		Aliases: []string{"shell"},
		Short:   "Interactive prompt parsing shell",
		Long: `Start an interactive shell that parses each line as a weighted prompt
and prints the resulting tree.`,
		RunE: runREPL,
	}
}

func runREPL(cmd *cobra.Command, _ []string) error {
	cc := NewCommandContext(cmd)

	historyFile := ""
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(home, ".promptc_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "promptc> ",
		HistoryFile:     historyFile,
		AutoComplete:    newREPLCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "promptc REPL")
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	// REPL state mutated by dot-commands
	raw := false

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".") {
			if line == ".quit" || line == ".exit" {
				break
			}
			handleDotCommand(cmd, cc, line, &raw)
			continue
		}

		conj, err := parseLine(cc.Parser, line, raw)
		if err != nil {
			cc.Renderer.Error(err)
			continue
		}
		if err := cc.Renderer.Tree(conj); err != nil {
			cc.Renderer.Error(err)
		}
	}

	return nil
}

func handleDotCommand(cmd *cobra.Command, cc *CommandContext, line string, raw *bool) {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".help":
		printREPLHelp(cmd.OutOrStdout())

	case ".raw":
		*raw = !*raw
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "raw mode: %v\n", *raw)

	case ".output":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Usage: .output <auto|text|json|yaml>")
			return
		}
		cc.Renderer = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(parts[1]))

	case ".bases":
		if len(parts) != 3 {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Usage: .bases <plus> <minus>")
			return
		}
		plus, err1 := strconv.ParseFloat(parts[1], 64)
		minus, err2 := strconv.ParseFloat(parts[2], 64)
		if err1 != nil || err2 != nil || plus <= 0 || minus <= 0 {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Bases must be positive numbers")
			return
		}
		cc.Parser = prompt.NewParserWithBases(plus, minus)
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "bases: +%g -%g\n", plus, minus)

	case ".clear":
		fmt.Print("\033[H\033[2J")

	default:
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Unknown command: %s (type .help for commands)\n", command)
	}
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help                 Show this help message
  .raw                  Toggle raw output (attention scopes intact)
  .output <mode>        Set output mode (auto|text|json|yaml)
  .bases <plus> <minus> Set the '+' and '-' attention bases
  .clear                Clear the screen
  .quit / .exit         Exit the REPL

Tips:
  - Every other line is parsed as a weighted prompt
  - Use arrow keys to navigate history
`
	_, _ = fmt.Fprintln(w, help)
}

func newREPLCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".raw"),
		readline.PcItem(".output",
			readline.PcItem("auto"),
			readline.PcItem("text"),
			readline.PcItem("json"),
			readline.PcItem("yaml"),
		),
		readline.PcItem(".bases"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}
