package commands

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/luminal-labs/promptc/internal/cli/config"
	"github.com/luminal-labs/promptc/internal/cli/output"
	"github.com/luminal-labs/promptc/pkg/prompt"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Parser   *prompt.Parser
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the loaded configuration.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Parser:   prompt.NewParserWithBases(cfg.PlusBase, cfg.MinusBase),
		Renderer: r,
	}
}

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to
// environment variables.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	// Fallback: read from environment with defaults
	return &config.Config{
		PlusBase:     getEnvFloat("PROMPTC_PLUS_BASE", config.DefaultPlusBase),
		MinusBase:    getEnvFloat("PROMPTC_MINUS_BASE", config.DefaultMinusBase),
		Verbose:      os.Getenv("PROMPTC_VERBOSE") == "true",
		OutputFormat: os.Getenv("PROMPTC_OUTPUT"),
	}
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
