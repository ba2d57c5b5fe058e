// Package config defines the stub backend configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/abgdnv/storefront/pkg/configloader"
)

var _ configloader.Validator = (*Config)(nil)

// Config is the top-level stub backend configuration.
type Config struct {
	HTTPServer HTTPConfig     `koanf:"server"`
	Log        LogConfig      `koanf:"log"`
	PProf      PProfConfig    `koanf:"pprof"`
	Catalog    CatalogConfig  `koanf:"catalog"`
	Shutdown   ShutdownConfig `koanf:"shutdown"`
}

// HTTPConfig has the configuration for the HTTP server.
type HTTPConfig struct {
	Port           int `koanf:"port"`
	MaxHeaderBytes int `koanf:"maxHeaderBytes"`
	Timeout        struct {
		Read       time.Duration `koanf:"read"`
		Write      time.Duration `koanf:"write"`
		Idle       time.Duration `koanf:"idle"`
		ReadHeader time.Duration `koanf:"readHeader"`
	} `koanf:"timeout"`
}

// LogConfig has the logging configuration.
type LogConfig struct {
	Level string `koanf:"level"`
}

// PProfConfig has the pprof server configuration.
type PProfConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// CatalogConfig has the catalog serving configuration.
type CatalogConfig struct {
	// PageSize is the default page size when the request does not carry one.
	PageSize int `koanf:"pageSize"`
	// SeedFile optionally points at a JSON file with catalog records loaded
	// at startup.
	SeedFile string `koanf:"seedFile"`
}

// ShutdownConfig has the graceful shutdown configuration.
type ShutdownConfig struct {
	Timeout time.Duration `koanf:"timeout"`
}

// Load reads the configuration from config.yaml, .env, and environment
// variables prefixed with STOREFRONT_.
func Load() (*Config, error) {
	return configloader.Load[*Config]("storefront")
}

// String returns a printable summary of the configuration.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("\n--- HTTP Server ---\n")
	b.WriteString(fmt.Sprintf("  port: %d\n", c.HTTPServer.Port))
	b.WriteString(fmt.Sprintf("  timeout.read: %v\n", c.HTTPServer.Timeout.Read))
	b.WriteString(fmt.Sprintf("  timeout.write: %v\n", c.HTTPServer.Timeout.Write))
	b.WriteString("\n--- Catalog ---\n")
	b.WriteString(fmt.Sprintf("  pageSize: %d\n", c.Catalog.PageSize))
	b.WriteString(fmt.Sprintf("  seedFile: %s\n", c.Catalog.SeedFile))
	b.WriteString("\n--- Log ---\n")
	b.WriteString(fmt.Sprintf("  level: %s\n", c.Log.Level))
	b.WriteString("\n--- PProf ---\n")
	b.WriteString(fmt.Sprintf("  enabled: %t\n", c.PProf.Enabled))
	b.WriteString(fmt.Sprintf("  addr: %s\n", c.PProf.Addr))
	b.WriteString("\n--- Shutdown ---\n")
	b.WriteString(fmt.Sprintf("  timeout: %v\n", c.Shutdown.Timeout))
	return b.String()
}

// Validate checks if the configuration values are valid.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("configuration is empty")
	}
	if c.HTTPServer.Port <= 0 || c.HTTPServer.Port > 65535 {
		return fmt.Errorf("invalid HTTP server port: %d", c.HTTPServer.Port)
	}
	if c.HTTPServer.Timeout.Read <= 0 {
		return fmt.Errorf("invalid HTTP server read timeout: %v", c.HTTPServer.Timeout.Read)
	}
	if c.HTTPServer.Timeout.Write <= 0 {
		return fmt.Errorf("invalid HTTP server write timeout: %v", c.HTTPServer.Timeout.Write)
	}
	if c.HTTPServer.Timeout.Idle <= 0 {
		return fmt.Errorf("invalid HTTP server idle timeout: %v", c.HTTPServer.Timeout.Idle)
	}
	if c.HTTPServer.Timeout.ReadHeader <= 0 {
		return fmt.Errorf("invalid HTTP server read header timeout: %v", c.HTTPServer.Timeout.ReadHeader)
	}
	if c.Catalog.PageSize <= 0 {
		return fmt.Errorf("invalid catalog page size: %d", c.Catalog.PageSize)
	}
	if c.PProf.Enabled && c.PProf.Addr == "" {
		return fmt.Errorf("pprof is enabled but no address is configured")
	}
	if c.Shutdown.Timeout <= 0 {
		return fmt.Errorf("invalid shutdown timeout: %v", c.Shutdown.Timeout)
	}
	return nil
}
