package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// parseEnv overlays Config with GLUEAUTH_* environment variables. Unset
// variables leave the current value in place. Malformed values panic, the
// same way malformed files and flags do.
func parseEnv(config *Config) {
	if err := env.Parse(config); err != nil {
		panic(fmt.Errorf("parse env: %w", err))
	}
}
