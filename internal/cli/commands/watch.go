package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// debounceDelay coalesces the bursts of events editors emit on save.
const debounceDelay = 100 * time.Millisecond

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	raw := false

	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Re-parse a prompts file whenever it changes",
		Long: `Watch a file of prompts (one per line) and print the parsed trees
every time the file changes. Useful while iterating on prompt wording.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args[0], raw)
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print raw trees without flattening")

	return cmd
}

func runWatch(cmd *cobra.Command, path string, raw bool) error {
	cc := NewCommandContext(cmd)

	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(absPath); err != nil {
		return fmt.Errorf("cannot watch %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory: editors often replace the file on save, which
	// drops a watch registered on the file itself.
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(absPath), err)
	}

	if err := parseFile(cmd, cc, absPath, raw); err != nil {
		cc.Renderer.Error(err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (Ctrl+C to stop)\n", path)

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		return watchLoop(ctx, cmd, cc, watcher, absPath, raw)
	})
	return g.Wait()
}

func watchLoop(ctx context.Context, cmd *cobra.Command, cc *CommandContext, watcher *fsnotify.Watcher, absPath string, raw bool) error {
	var debounce *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != absPath {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(debounceDelay)
			} else {
				debounce.Reset(debounceDelay)
			}
			fire = debounce.C

		case <-fire:
			fire = nil
			cc.Logger.Debug("file changed, re-parsing", "path", absPath)
			if err := parseFile(cmd, cc, absPath, raw); err != nil {
				cc.Renderer.Error(err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch error: %w", err)
		}
	}
}

func parseFile(cmd *cobra.Command, cc *CommandContext, path string, raw bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	lines, err := readLines(f)
	if err != nil {
		return err
	}

	for i, line := range lines {
		conj, err := parseLine(cc.Parser, line, raw)
		if err != nil {
			return fmt.Errorf("line %d: %w", i+1, err)
		}
		if err := cc.Renderer.Tree(conj); err != nil {
			return err
		}
	}
	return nil
}
