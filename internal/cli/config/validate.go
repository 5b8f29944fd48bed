package config

import "fmt"

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.PlusBase <= 0 {
		return fmt.Errorf("plus_base must be positive, got %g", c.PlusBase)
	}
	if c.MinusBase <= 0 {
		return fmt.Errorf("minus_base must be positive, got %g", c.MinusBase)
	}
	switch c.OutputFormat {
	case "", "auto", "text", "json", "yaml":
	default:
		return fmt.Errorf("unknown output format %q (want auto|text|json|yaml)", c.OutputFormat)
	}
	return nil
}
