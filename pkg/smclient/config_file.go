package smclient

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/tidewater-io/smapi/pkg/smapi"
)

// envPrefix namespaces the environment overrides: SMAPI_HOST, SMAPI_USERNAME,
// SMAPI_PASSWORD, and so on.
const envPrefix = "SMAPI"

// fileConfig is the on-disk shape of a client configuration. Credentials are
// kept flat so the file stays hand-editable.
type fileConfig struct {
	Host        string        `mapstructure:"host" yaml:"host"`
	Port        int           `mapstructure:"port" yaml:"port,omitempty"`
	Username    string        `mapstructure:"username" yaml:"username,omitempty"`
	Password    string        `mapstructure:"password" yaml:"password,omitempty"`
	AccessToken string        `mapstructure:"access_token" yaml:"access_token,omitempty"`
	VerifyTLS   bool          `mapstructure:"verify_tls" yaml:"verify_tls"`
	CACertPath  string        `mapstructure:"ca_cert_path" yaml:"ca_cert_path,omitempty"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout,omitempty"`
	RetryMax    int           `mapstructure:"retry_max" yaml:"retry_max,omitempty"`
	Debug       bool          `mapstructure:"debug" yaml:"debug,omitempty"`
	UserAgent   string        `mapstructure:"user_agent" yaml:"user_agent,omitempty"`
}

// LoadConfig reads a client configuration from a YAML file, with environment
// variables taking precedence over file values. An empty path reads only the
// environment, so a fully env-driven setup needs no file at all.
func LoadConfig(path string) (*smapi.Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetDefault("verify_tls", true)

	// Bind explicitly so env-only keys resolve without a file present.
	for _, key := range []string{
		"host", "port", "username", "password", "access_token",
		"verify_tls", "ca_cert_path", "timeout", "retry_max",
		"debug", "user_agent",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("binding environment for %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	var file fileConfig

	if err := v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	return &smapi.Config{
		Host:        file.Host,
		Port:        file.Port,
		Username:    file.Username,
		Password:    file.Password,
		AccessToken: file.AccessToken,
		VerifyTLS:   file.VerifyTLS,
		CACertPath:  file.CACertPath,
		Timeout:     file.Timeout,
		RetryMax:    file.RetryMax,
		Debug:       file.Debug,
		UserAgent:   file.UserAgent,
	}, nil
}

// SaveConfig writes the configuration to a YAML file, creating parent
// directories as needed. The file is written with owner-only permissions
// because it may carry credentials.
func SaveConfig(config *smapi.Config, path string) error {
	if config == nil {
		return smapi.ErrConfigRequired
	}

	file := fileConfig{
		Host:        config.Host,
		Port:        config.Port,
		Username:    config.Username,
		Password:    config.Password,
		AccessToken: config.AccessToken,
		VerifyTLS:   config.VerifyTLS,
		CACertPath:  config.CACertPath,
		Timeout:     config.Timeout,
		RetryMax:    config.RetryMax,
		Debug:       config.Debug,
		UserAgent:   config.UserAgent,
	}

	data, err := yaml.Marshal(&file)
	if err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file %s: %w", path, err)
	}

	return nil
}
