package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	ListenAddr     string             `toml:"listenAddr"`
	TogetherAPIKey string             `toml:"togetherAPIKey"`
	DBPath         string             `toml:"dbPath"`
	LogConfig      LogConfig          `toml:"logConfig"`
	APIEndpoints   APIEndpointsConfig `toml:"apiEndpoints"`
	Auth           AuthConfig         `toml:"auth"`
	Generation     GenerationConfig   `toml:"generation"`
	Storage        StorageConfig      `toml:"storage"`
	Quota          QuotaConfig        `toml:"quota"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"`
}

type APIEndpointsConfig struct {
	ImageGeneration string `toml:"imageGeneration"`
}

type AuthConfig struct {
	Tokens []TokenConfig `toml:"tokens"`
}

type TokenConfig struct {
	Token  string `toml:"token"`
	UserID string `toml:"userId"`
}

// GenerationConfig selects which image model the gateway targets. Each
// model carries a fixed output size; dimensions are never computed per
// request.
type GenerationConfig struct {
	Model       string  `toml:"model"` // "flash" or "pro"
	Temperature float64 `toml:"temperature"`
}

type StorageConfig struct {
	Dir           string `toml:"dir"`
	PublicBaseURL string `toml:"publicBaseURL"`
}

type QuotaConfig struct {
	MaxGenerations int `toml:"maxGenerations"`
	WindowDays     int `toml:"windowDays"`
}

// Window returns the configured quota window as a duration.
func (q QuotaConfig) Window() time.Duration {
	return time.Duration(q.WindowDays) * 24 * time.Hour
}

// ModelConfig is the resolved model selection handed to the generation
// gateway at construction time.
type ModelConfig struct {
	Model  string
	Width  int
	Height int
}

const (
	ModelFlash = "flash"
	ModelPro   = "pro"
)

// ResolveModel maps the configured model name to its fixed dimensions.
func (c *Config) ResolveModel() (ModelConfig, error) {
	switch c.Generation.Model {
	case ModelFlash, "":
		return ModelConfig{Model: "google/flash-image-2.5", Width: 864, Height: 1184}, nil
	case ModelPro:
		return ModelConfig{Model: "google/gemini-3-pro-image", Width: 896, Height: 1200}, nil
	default:
		return ModelConfig{}, fmt.Errorf("unknown generation model: %s", c.Generation.Model)
	}
}

func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.Quota.MaxGenerations == 0 {
		cfg.Quota.MaxGenerations = 1
	}
	if cfg.Quota.WindowDays == 0 {
		cfg.Quota.WindowDays = 7
	}
	if cfg.Generation.Temperature == 0 {
		cfg.Generation.Temperature = 0.1
	}
	if cfg.APIEndpoints.ImageGeneration == "" {
		cfg.APIEndpoints.ImageGeneration = "https://api.together.xyz/v1/images/generations"
	}
}

func ValidateURL(urlString string) bool {
	if urlString == "" {
		return false
	}
	if _, err := url.Parse(urlString); err != nil {
		return false
	}
	return true
}

func MaskedPrint(str string) string {
	if len(str) <= 4 {
		return strings.Repeat("*", len(str))
	}
	// only show the last 4 characters
	return strings.Repeat("*", len(str)-4) + str[len(str)-4:]
}

func PrintConfig(cfg *Config) {
	fmt.Println()
	fmt.Println("--------------------------------")
	fmt.Println("Config:")
	fmt.Printf("\tListenAddr: %s\n", cfg.ListenAddr)
	fmt.Printf("\tTogetherAPIKey: %s\n", MaskedPrint(cfg.TogetherAPIKey))
	fmt.Printf("\tDBPath: %s\n", cfg.DBPath)
	fmt.Printf("\tLogConfig: %v\n", cfg.LogConfig)
	fmt.Printf("\tAPIEndpoints: %v\n", cfg.APIEndpoints)
	fmt.Printf("\tAuthTokens: %d configured\n", len(cfg.Auth.Tokens))
	fmt.Printf("\tGeneration: %v\n", cfg.Generation)
	fmt.Printf("\tStorage: %v\n", cfg.Storage)
	fmt.Printf("\tQuota: %v\n", cfg.Quota)
	fmt.Println("--------------------------------")
	fmt.Println()
}

func ValidateConfig(cfg *Config) error {
	PrintConfig(cfg)
	if cfg.TogetherAPIKey == "" {
		return fmt.Errorf("togetherAPIKey is required")
	}
	if cfg.DBPath == "" {
		return fmt.Errorf("dbPath is required")
	}
	if cfg.APIEndpoints.ImageGeneration == "" || !ValidateURL(cfg.APIEndpoints.ImageGeneration) {
		return fmt.Errorf("apiEndpoints.imageGeneration is required and must be a valid URL")
	}
	if len(cfg.Auth.Tokens) == 0 {
		return fmt.Errorf("auth.tokens is required")
	}
	for _, t := range cfg.Auth.Tokens {
		if t.Token == "" || t.UserID == "" {
			return fmt.Errorf("auth.tokens entries must have both token and userId")
		}
	}
	if _, err := cfg.ResolveModel(); err != nil {
		return err
	}
	if cfg.Generation.Temperature < 0 || cfg.Generation.Temperature > 2 {
		return fmt.Errorf("generation.temperature must be between 0 and 2")
	}
	if cfg.Storage.Dir == "" {
		return fmt.Errorf("storage.dir is required")
	}
	if cfg.Storage.PublicBaseURL == "" || !ValidateURL(cfg.Storage.PublicBaseURL) {
		return fmt.Errorf("storage.publicBaseURL is required and must be a valid URL")
	}
	if cfg.Quota.MaxGenerations <= 0 {
		return fmt.Errorf("quota.maxGenerations must be greater than 0")
	}
	if cfg.Quota.WindowDays <= 0 {
		return fmt.Errorf("quota.windowDays must be greater than 0")
	}
	if cfg.LogConfig.Level == "" {
		return fmt.Errorf("logConfig.level is required")
	}
	if cfg.LogConfig.Format == "" {
		return fmt.Errorf("logConfig.format is required")
	}
	return nil
}
