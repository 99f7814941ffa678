package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers supported by the file store.
const (
	StorageDriverLocal      = "local"
	StorageDriverCloudinary = "cloudinary"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	EventSubjectPrefix     string
	JWTSecret              string
	JWTRefreshSecret       string
	AccessTokenTTL         time.Duration
	RefreshTokenTTL        time.Duration
	StorageDriver          string
	MediaRoot              string
	MediaURL               string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	CatalogCacheTTL        time.Duration
	UploadMaxSizeMB        int
	PhotoMaxDimension      int
	SubmitRateLimit        int
	SubmitRateWindow       time.Duration
	AdminEmail             string
	AdminPassword          string
	SeedEnabled            bool
	SeedToken              string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("EXAM")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Art Exam API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("database.url", "sqlite://exam.db")
	v.SetDefault("events.subject_prefix", "exam")
	v.SetDefault("jwt.access_ttl", "1h")
	v.SetDefault("jwt.refresh_ttl", "168h")
	v.SetDefault("storage.driver", StorageDriverLocal)
	v.SetDefault("media.root", "media")
	v.SetDefault("media.url", "/media")
	v.SetDefault("cloudinary.folder", "exam")
	v.SetDefault("catalog.cache_ttl", "5m")
	v.SetDefault("upload.max_size_mb", 10)
	v.SetDefault("photo.max_dimension", 1024)
	v.SetDefault("submit.rate_limit", 30)
	v.SetDefault("submit.rate_window", "1m")
	v.SetDefault("seed.enabled", false)

	durations := map[string]time.Duration{}
	for _, key := range []string{"jwt.access_ttl", "jwt.refresh_ttl", "catalog.cache_ttl", "submit.rate_window"} {
		parsed, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", key, err)
		}
		durations[key] = parsed
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		EventSubjectPrefix:     v.GetString("events.subject_prefix"),
		JWTSecret:              v.GetString("jwt.secret"),
		JWTRefreshSecret:       v.GetString("jwt.refresh_secret"),
		AccessTokenTTL:         durations["jwt.access_ttl"],
		RefreshTokenTTL:        durations["jwt.refresh_ttl"],
		StorageDriver:          strings.ToLower(v.GetString("storage.driver")),
		MediaRoot:              v.GetString("media.root"),
		MediaURL:               v.GetString("media.url"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		CatalogCacheTTL:        durations["catalog.cache_ttl"],
		UploadMaxSizeMB:        v.GetInt("upload.max_size_mb"),
		PhotoMaxDimension:      v.GetInt("photo.max_dimension"),
		SubmitRateLimit:        v.GetInt("submit.rate_limit"),
		SubmitRateWindow:       durations["submit.rate_window"],
		AdminEmail:             v.GetString("admin.email"),
		AdminPassword:          v.GetString("admin.password"),
		SeedEnabled:            v.GetBool("seed.enabled"),
		SeedToken:              v.GetString("seed.token"),
	}

	if cfg.JWTSecret == "" || cfg.JWTRefreshSecret == "" {
		return Config{}, fmt.Errorf("jwt secrets must be provided")
	}

	switch cfg.StorageDriver {
	case StorageDriverLocal, StorageDriverCloudinary:
	default:
		return Config{}, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}

	if cfg.UploadMaxSizeMB <= 0 {
		cfg.UploadMaxSizeMB = 10
	}

	if cfg.PhotoMaxDimension <= 0 {
		cfg.PhotoMaxDimension = 1024
	}

	return cfg, nil
}
