// Package config loads process-wide transport configuration: the
// dispatcher's listen address and TLS setting, the CloudEvents spec
// version in effect, and the component configuration layer (the
// process-wide ce-override map) read by every outbound call.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the transport-wide process configuration.
type Config struct {
	// ListenAddr is the address the dispatcher's HTTP server binds, e.g.
	// ":8080".
	ListenAddr string `mapstructure:"listen_addr"`

	// TLS selects https as the outbound producer's scheme.
	TLS bool `mapstructure:"tls"`

	// Version is the CloudEvents spec version ("0.1", "0.2", or "0.3").
	Version string `mapstructure:"version"`

	// BasePath is prefixed to every consumer's service path to form its
	// effective path.
	BasePath string `mapstructure:"base_path"`

	// DefaultContentType is read from configuration but not passed to the
	// producer: an outbound request whose message and sink both leave
	// content type unset is sent without a Content-Type header.
	DefaultContentType string `mapstructure:"default_content_type"`

	// EnvironmentFile is the path to the YAML service-definition
	// catalogue loaded via env.Load.
	EnvironmentFile string `mapstructure:"environment_file"`

	// Overrides is the component configuration layer: the process-wide
	// ce-override map, layer (b) of the producer's override precedence.
	Overrides map[string]string `mapstructure:"ce_override"`
}

func (c Config) setDefaults() Config {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.Version == "" {
		c.Version = "0.3"
	}
	return c
}

// InitViper initializes viper with the configuration file and environment
// variable overrides. If configFile is empty, viper searches
// knative-http-core.yaml/.yml in the current directory and
// /etc/knative-http-core, tolerating none being found; an explicit
// configFile that does not exist surfaces as an error from Load instead.
func InitViper(configFile string) {
	v := viper.GetViper()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("knative-http-core")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/knative-http-core")
	}

	v.SetEnvPrefix("KNATIVE_HTTP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// ConfigFileUsed returns the path viper resolved its configuration file
// to, or "" if none was found.
func ConfigFileUsed() string {
	return viper.GetViper().ConfigFileUsed()
}

// Load reads the configuration file (if any), applies environment
// variable overrides, and returns the resulting Config with defaults
// filled in.
func Load() (*Config, error) {
	v := viper.GetViper()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg = cfg.setDefaults()
	return &cfg, nil
}
