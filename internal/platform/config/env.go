package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ParseEnv loads configuration from environment variables into target.
//
// Every tool in this repository reads its defaults from CRMOPS_* variables
// before flag parsing, so operators can bake connection settings into the
// shell environment and only pass per-run flags.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
