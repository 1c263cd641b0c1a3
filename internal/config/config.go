package config

import (
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AppConfig struct {
	Port string `validate:"required,numeric"`

	// Rate provider. The token is checked when a fetch happens, not at startup.
	ElToqueToken   string
	ElToqueBaseURL string `validate:"required,url"`
	SameDayWindow  bool

	// Vision extraction.
	OpenAIAPIKey    string
	OpenAIModel     string `validate:"required"`
	OpenAIMaxTokens int    `validate:"gt=0"`

	// Province estimation.
	ProvinceStrategy  string `validate:"oneof=static vision"`
	ProvinceImageURL  string `validate:"omitempty,url"`
	ProvinceImagePath string

	// Quote cache and warm-up.
	CacheTTL        time.Duration `validate:"gt=0,lte=1h"`
	CacheMaxEntries int           `validate:"gte=0"`
	RefreshInterval time.Duration `validate:"gte=0"`

	// HTTPTimeout bounds outbound calls; 0 leaves the client default.
	HTTPTimeout time.Duration `validate:"gte=0"`

	LogProduction bool
}

var validate = validator.New()

// Load reads configuration from .env and the environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("EL_TOQUE_API_TOKEN", "")
	v.SetDefault("EL_TOQUE_BASE_URL", "https://tasas.eltoque.com/v1/trmi")
	v.SetDefault("EL_TOQUE_SAME_DAY_WINDOW", false)
	v.SetDefault("OPENAI_API_KEY", "")
	v.SetDefault("OPENAI_MODEL", "gpt-4o")
	v.SetDefault("OPENAI_MAX_TOKENS", 2000)
	v.SetDefault("PROVINCE_STRATEGY", "static")
	v.SetDefault("PROVINCE_IMAGE_URL", "")
	v.SetDefault("PROVINCE_IMAGE_PATH", "assets/provinces.png")
	v.SetDefault("RATE_CACHE_TTL", "1h")
	v.SetDefault("RATE_CACHE_MAX_ENTRIES", 256)
	v.SetDefault("RATE_REFRESH_INTERVAL", "50m")
	v.SetDefault("HTTP_TIMEOUT", "0s")
	v.SetDefault("LOG_PRODUCTION", true)
	v.AutomaticEnv()

	cfg := &AppConfig{
		Port:              v.GetString("PORT"),
		ElToqueToken:      v.GetString("EL_TOQUE_API_TOKEN"),
		ElToqueBaseURL:    v.GetString("EL_TOQUE_BASE_URL"),
		SameDayWindow:     v.GetBool("EL_TOQUE_SAME_DAY_WINDOW"),
		OpenAIAPIKey:      v.GetString("OPENAI_API_KEY"),
		OpenAIModel:       v.GetString("OPENAI_MODEL"),
		OpenAIMaxTokens:   v.GetInt("OPENAI_MAX_TOKENS"),
		ProvinceStrategy:  v.GetString("PROVINCE_STRATEGY"),
		ProvinceImageURL:  v.GetString("PROVINCE_IMAGE_URL"),
		ProvinceImagePath: v.GetString("PROVINCE_IMAGE_PATH"),
		CacheMaxEntries:   v.GetInt("RATE_CACHE_MAX_ENTRIES"),
		LogProduction:     v.GetBool("LOG_PRODUCTION"),
	}

	var err error
	if cfg.CacheTTL, err = parseDuration(v, "RATE_CACHE_TTL"); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = parseDuration(v, "RATE_REFRESH_INTERVAL"); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = parseDuration(v, "HTTP_TIMEOUT"); err != nil {
		return nil, err
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.ElToqueToken == "" {
		log.Printf("WARN: EL_TOQUE_API_TOKEN is not set; rate fetches will fail")
	}
	if cfg.ProvinceStrategy == "vision" && cfg.OpenAIAPIKey == "" {
		log.Printf("WARN: OPENAI_API_KEY is not set; province breakdown will be empty")
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
