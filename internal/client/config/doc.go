// Package config loads runtime configuration for the GlueAuth CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON or YAML file (see parseFile) selected via flags: -c or -config.
//  3. GLUEAUTH_* environment variables (see parseEnv).
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the server API
//	-f string   path of the local SQLite database
//	-n int      PBKDF2 iterations for the vault and PIN keys
//	-i int      online status check interval (seconds)
//
// # File schema
//
// Durations use timex.Duration, so values can be either strings like "3s" or
// integer nanoseconds:
//
//	{
//	  "server_url": "http://127.0.0.1:3000/api",
//	  "database_path": "glueauth.db",
//	  "kdf_iterations": 524288,
//	  "request_timeout": "10s",
//	  "online_check_interval": "3s"
//	}
package config
