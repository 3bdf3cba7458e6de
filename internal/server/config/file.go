package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/glueauth/internal/flagx"
	"github.com/dmitrijs2005/glueauth/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the DTO for JSON and YAML configuration files. Durations use
// timex.Duration so both "15m" and integer nanoseconds are accepted. Zero
// values leave the corresponding Config field untouched.
type FileConfig struct {
	EndpointAddrHTTP      string         `json:"endpoint_addr_http" yaml:"endpoint_addr_http"`
	APIPrefix             string         `json:"api_prefix" yaml:"api_prefix"`
	DatabaseDSN           string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey             string         `json:"secret_key" yaml:"secret_key"`
	BaseKey               string         `json:"base_key" yaml:"base_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration" yaml:"token_validity_duration"`
	SessionTTL            timex.Duration `json:"session_ttl" yaml:"session_ttl"`
	SessionStore          string         `json:"session_store" yaml:"session_store"`
	CookiePath            string         `json:"cookie_path" yaml:"cookie_path"`
	CookieSecure          *bool          `json:"cookie_secure" yaml:"cookie_secure"`
	RequestTimeout        timex.Duration `json:"request_timeout" yaml:"request_timeout"`
	RateLimitRPS          float64        `json:"rate_limit_rps" yaml:"rate_limit_rps"`
	RateLimitBurst        int            `json:"rate_limit_burst" yaml:"rate_limit_burst"`
	MaxProofBodyBytes     int64          `json:"max_proof_body_bytes" yaml:"max_proof_body_bytes"`
	LogLevel              string         `json:"log_level" yaml:"log_level"`
	S3RootUser            string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword        string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket              string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region              string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint        string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
}

// parseFile loads configuration values from the file named by -c/-config.
// Files ending in .yaml or .yml are decoded as YAML, everything else as JSON.
// If the file cannot be read or decoded, the function panics.
func parseFile(config *Config) {

	// try flags
	configFile := flagx.ConfigFileFlag()

	// nothing to load
	if configFile == "" {
		return
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		panic(err)
	}

	c := &FileConfig{}
	switch strings.ToLower(filepath.Ext(configFile)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *FileConfig) apply(config *Config) {
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.APIPrefix, c.APIPrefix)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.BaseKey, c.BaseKey)
	setString(&config.SessionStore, c.SessionStore)
	setString(&config.CookiePath, c.CookiePath)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	if c.TokenValidityDuration.Duration > 0 {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	if c.SessionTTL.Duration > 0 {
		config.SessionTTL = c.SessionTTL.Duration
	}
	if c.RequestTimeout.Duration > 0 {
		config.RequestTimeout = c.RequestTimeout.Duration
	}
	if c.CookieSecure != nil {
		config.CookieSecure = *c.CookieSecure
	}
	if c.RateLimitRPS > 0 {
		config.RateLimitRPS = c.RateLimitRPS
	}
	if c.RateLimitBurst > 0 {
		config.RateLimitBurst = c.RateLimitBurst
	}
	if c.MaxProofBodyBytes > 0 {
		config.MaxProofBodyBytes = c.MaxProofBodyBytes
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
