package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Defaults matching the hosted deployment.
const (
	DefaultModel   = "meta-llama/Llama-3.3-70B-Instruct-Turbo-Free"
	DefaultBaseURL = "https://api.together.xyz/v1"
	DefaultDataDir = "."
)

// Config holds everything both front ends need: the completion-service
// credentials and the directory where transcripts and profiles accumulate.
type Config struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
	Timeout int    `mapstructure:"timeout"` // seconds, whole-request
	DataDir string `mapstructure:"data_dir"`

	Server ServerConfig `mapstructure:"server"`
}

// ServerConfig configures the HTTP front end.
type ServerConfig struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	EnableCORS bool   `mapstructure:"enable_cors"`
	Debug      bool   `mapstructure:"debug"`
}

// Load reads configuration in precedence order: flags bound by the caller,
// environment (TAFAHOM_* and TOGETHER_API_KEY, .env honored), then
// tafahom-config.json from $HOME or the working directory, then defaults.
func Load() (*Config, error) {
	// The original deployment keeps its key in a .env file.
	_ = godotenv.Load()

	v := viper.GetViper()
	v.SetConfigName("tafahom-config")
	v.SetConfigType("json")
	v.AddConfigPath("$HOME")
	v.AddConfigPath(".")

	v.SetDefault("model", DefaultModel)
	v.SetDefault("base_url", DefaultBaseURL)
	v.SetDefault("data_dir", DefaultDataDir)
	v.SetDefault("timeout", 120)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.enable_cors", true)
	v.SetDefault("server.debug", false)

	v.SetEnvPrefix("TAFAHOM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("TOGETHER_API_KEY")
	}

	return &cfg, nil
}

// Validate reports a missing API key before the first completion call fails.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("missing API key: set TOGETHER_API_KEY or api_key in tafahom-config.json")
	}
	return nil
}
