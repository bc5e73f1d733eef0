// Package config defines the server's runtime configuration and loads
// it the way the teacher's own internal/config package does: viper
// sourcing from flags/env/file, decoded into a typed struct via
// mapstructure tags.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// TransportKind selects which concrete transport.Transport cmd/mcpserve wires up.
type TransportKind string

const (
	TransportStdio   TransportKind = "stdio"
	TransportHTTPSSE TransportKind = "httpsse"
)

// ServerConfig is the full set of knobs the server binary accepts,
// bound from flags, environment variables (MCP_SERVER_ prefix) and an
// optional config file, in that order of override (spec.md's ambient
// config stack, not part of the core library itself).
type ServerConfig struct {
	Transport    TransportKind `mapstructure:"transport"`
	ListenAddr   string        `mapstructure:"listen_addr"`
	ServerName   string        `mapstructure:"server_name"`
	ServerVersion string       `mapstructure:"server_version"`

	ProtocolVersion string `mapstructure:"protocol_version"`

	InstructionsFile string `mapstructure:"instructions_file"`
	Instructions     string `mapstructure:"instructions"`

	LogLevel string `mapstructure:"log_level"`

	CapabilityTools     bool `mapstructure:"capability_tools"`
	CapabilityPrompts   bool `mapstructure:"capability_prompts"`
	CapabilityResources bool `mapstructure:"capability_resources"`
	CapabilityLogging   bool `mapstructure:"capability_logging"`
	ListChanged         bool `mapstructure:"list_changed"`

	PageSize int `mapstructure:"page_size"`
}

// Defaults returns the configuration used when no flag, environment
// variable or config file overrides a field.
func Defaults() ServerConfig {
	return ServerConfig{
		Transport:           TransportStdio,
		ListenAddr:          ":8765",
		ServerName:          "go-mcpserver",
		ServerVersion:       "0.1.0",
		ProtocolVersion:     "2024-11-05",
		LogLevel:            "info",
		CapabilityTools:     true,
		CapabilityPrompts:   true,
		CapabilityResources: false,
		CapabilityLogging:   true,
		ListChanged:         true,
		PageSize:            50,
	}
}

// Load builds a viper instance seeded with Defaults, layers in an
// optional config file and MCP_SERVER_-prefixed environment variables,
// and decodes the result into a ServerConfig.
func Load(configFile string) (ServerConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("mcp_server")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := Defaults()
	v.SetDefault("transport", string(defaults.Transport))
	v.SetDefault("listen_addr", defaults.ListenAddr)
	v.SetDefault("server_name", defaults.ServerName)
	v.SetDefault("server_version", defaults.ServerVersion)
	v.SetDefault("protocol_version", defaults.ProtocolVersion)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("capability_tools", defaults.CapabilityTools)
	v.SetDefault("capability_prompts", defaults.CapabilityPrompts)
	v.SetDefault("capability_resources", defaults.CapabilityResources)
	v.SetDefault("capability_logging", defaults.CapabilityLogging)
	v.SetDefault("list_changed", defaults.ListChanged)
	v.SetDefault("page_size", defaults.PageSize)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return ServerConfig{}, fmt.Errorf("config: failed to read %q: %w", configFile, err)
		}
	}

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return ServerConfig{}, fmt.Errorf("config: failed to decode: %w", err)
	}
	return cfg, nil
}
