package config

import (
	"time"

	"github.com/dmitrijs2005/glueauth/internal/cryptox"
)

// Config holds runtime settings for the GlueAuth CLI.
//
// Fields:
//   - ServerURL: base URL of the server API, including the API prefix.
//   - DatabasePath: SQLite file holding the sealed identity.
//   - Iterations: PBKDF2 work factor for vault and PIN keys.
//   - RequestTimeout: per-request HTTP deadline.
//   - OnlineCheckInterval: how often the client probes server reachability.
type Config struct {
	ServerURL           string        `env:"GLUEAUTH_SERVER_URL"`
	DatabasePath        string        `env:"GLUEAUTH_DATABASE_PATH"`
	Iterations          int           `env:"GLUEAUTH_KDF_ITERATIONS"`
	RequestTimeout      time.Duration `env:"GLUEAUTH_REQUEST_TIMEOUT"`
	OnlineCheckInterval time.Duration `env:"GLUEAUTH_ONLINE_CHECK_INTERVAL"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:3000/api"
	c.DatabasePath = "glueauth.db"
	c.Iterations = cryptox.DefaultIterations
	c.RequestTimeout = 10 * time.Second
	c.OnlineCheckInterval = 3 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// a file (if present), the environment and command-line flags. Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
