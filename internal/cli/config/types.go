// Package config provides configuration management for the promptc CLI.
//
// Configuration is layered. Precedence from highest to lowest: command-line
// flags, PROMPTC_* environment variables, an optional promptc.yaml file,
// built-in defaults.
package config

// Config holds all CLI configuration options.
type Config struct {
	PlusBase     float64 `koanf:"plus_base"`
	MinusBase    float64 `koanf:"minus_base"`
	Verbose      bool    `koanf:"verbose"`
	OutputFormat string  `koanf:"output"`
}

// Default configuration values.
const (
	DefaultPlusBase  = 1.1
	DefaultMinusBase = 0.9
	DefaultOutput    = "auto" // Auto-detect: TTY=text, non-TTY=json
)
