package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// AppConfig holds configuration values. Sensitive data has no code defaults
// and must come from the config file or the environment.
type AppConfig struct {
	AppPort            string
	JWTSecret          string
	GinMode            string
	GinPath            string
	AllowedOrigins     []string
	RateLimitPerMinute int
	TokenTTLHours      int

	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string

	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string

	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool

	// Text-generation collaborator (OpenAI-compatible chat completions).
	AIBaseURL string
	AIAPIKey  string
	AIModel   string

	// Staff OAuth sign-in.
	GoogleClientID     string
	GoogleClientSecret string
	GitHubClientID     string
	GitHubClientSecret string
	OAuthRedirectBase  string
}

// fileConfig mirrors the grouped layout of config/config.json.
type fileConfig struct {
	App struct {
		Port               string   `json:"port"`
		JWTSecret          string   `json:"jwt_secret"`
		GinMode            string   `json:"gin_mode"`
		GinPath            string   `json:"gin_path"`
		AllowedOrigins     []string `json:"allowed_origins"`
		RateLimitPerMinute int      `json:"rate_limit_per_minute"`
		TokenTTLHours      int      `json:"token_ttl_hours"`
	} `json:"app"`
	Database struct {
		URI      string `json:"uri"`
		Host     string `json:"host"`
		Port     string `json:"port"`
		User     string `json:"user"`
		Password string `json:"password"`
		Name     string `json:"name"`
	} `json:"database"`
	Redis struct {
		Host     string `json:"host"`
		Port     int    `json:"port"`
		DB       int    `json:"db"`
		Password string `json:"password"`
	} `json:"redis"`
	Logging struct {
		Level      string `json:"level"`
		Path       string `json:"path"`
		MaxSizeMB  int    `json:"max_size_mb"`
		MaxBackups int    `json:"max_backups"`
		MaxAgeDays int    `json:"max_age_days"`
		Compress   bool   `json:"compress"`
	} `json:"logging"`
	AI struct {
		BaseURL string `json:"base_url"`
		APIKey  string `json:"api_key"`
		Model   string `json:"model"`
	} `json:"ai"`
	OAuth struct {
		GoogleClientID     string `json:"google_client_id"`
		GoogleClientSecret string `json:"google_client_secret"`
		GitHubClientID     string `json:"github_client_id"`
		GitHubClientSecret string `json:"github_client_secret"`
		RedirectBase       string `json:"redirect_base"`
	} `json:"oauth"`
}

var (
	cfg    AppConfig
	loaded bool
)

// Load reads configuration once during boot.
// Precedence: config/config.json -> defaults -> environment overrides.
func Load() AppConfig {
	if loaded {
		return cfg
	}

	loadJSONConfig(filepath.Join("config", "config.json"), &cfg)
	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set via config file or environment")
	}

	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

func loadJSONConfig(path string, out *AppConfig) {
	f, err := os.Open(path)
	if err != nil {
		return // missing file is fine, env can carry everything
	}
	defer f.Close()

	var fc fileConfig
	if err := json.NewDecoder(f).Decode(&fc); err != nil {
		log.Fatalf("invalid config file %s: %v", path, err)
	}

	out.AppPort = fc.App.Port
	out.JWTSecret = fc.App.JWTSecret
	out.GinMode = fc.App.GinMode
	out.GinPath = fc.App.GinPath
	out.AllowedOrigins = fc.App.AllowedOrigins
	out.RateLimitPerMinute = fc.App.RateLimitPerMinute
	out.TokenTTLHours = fc.App.TokenTTLHours

	out.DatabaseURI = fc.Database.URI
	out.DBHost = fc.Database.Host
	out.DBPort = fc.Database.Port
	out.DBUser = fc.Database.User
	out.DBPassword = fc.Database.Password
	out.DBName = fc.Database.Name

	out.RedisHost = fc.Redis.Host
	out.RedisPort = fc.Redis.Port
	out.RedisDB = fc.Redis.DB
	out.RedisPassword = fc.Redis.Password

	out.LogLevel = fc.Logging.Level
	out.LogPath = fc.Logging.Path
	out.LogMaxSizeMB = fc.Logging.MaxSizeMB
	out.LogMaxBackups = fc.Logging.MaxBackups
	out.LogMaxAgeDays = fc.Logging.MaxAgeDays
	out.LogCompress = fc.Logging.Compress

	out.AIBaseURL = fc.AI.BaseURL
	out.AIAPIKey = fc.AI.APIKey
	out.AIModel = fc.AI.Model

	out.GoogleClientID = fc.OAuth.GoogleClientID
	out.GoogleClientSecret = fc.OAuth.GoogleClientSecret
	out.GitHubClientID = fc.OAuth.GitHubClientID
	out.GitHubClientSecret = fc.OAuth.GitHubClientSecret
	out.OAuthRedirectBase = fc.OAuth.RedirectBase
}

func applyDefaults(c *AppConfig) {
	setIfEmpty(&c.AppPort, "8080")
	setIfEmpty(&c.GinMode, "release")
	setIfEmpty(&c.GinPath, "logs/gin.log")
	setIfEmpty(&c.DBHost, "127.0.0.1")
	setIfEmpty(&c.DBPort, "3306")
	setIfEmpty(&c.DBUser, "bustan")
	setIfEmpty(&c.DBName, "bustan")
	setIfEmpty(&c.RedisHost, "127.0.0.1")
	setIfEmpty(&c.LogLevel, "info")
	setIfEmpty(&c.LogPath, "logs/app.log")
	setIfEmpty(&c.AIBaseURL, "https://api.openai.com/v1")
	setIfEmpty(&c.AIModel, "gpt-4o-mini")
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 60
	}
	if c.TokenTTLHours == 0 {
		c.TokenTTLHours = 72
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
}

func applyEnvOverrides(c *AppConfig) {
	overrideString(&c.AppPort, "APP_PORT")
	overrideString(&c.JWTSecret, "JWT_SECRET")
	overrideString(&c.GinMode, "GIN_MODE")
	overrideString(&c.DatabaseURI, "DATABASE_URI")
	overrideString(&c.DBHost, "DB_HOST")
	overrideString(&c.DBPort, "DB_PORT")
	overrideString(&c.DBUser, "DB_USER")
	overrideString(&c.DBPassword, "DB_PASSWORD")
	overrideString(&c.DBName, "DB_NAME")
	overrideString(&c.RedisHost, "REDIS_HOST")
	overrideInt(&c.RedisPort, "REDIS_PORT")
	overrideInt(&c.RedisDB, "REDIS_DB")
	overrideString(&c.RedisPassword, "REDIS_PASSWORD")
	overrideString(&c.LogLevel, "LOG_LEVEL")
	overrideString(&c.LogPath, "LOG_PATH")
	overrideString(&c.AIBaseURL, "AI_BASE_URL")
	overrideString(&c.AIAPIKey, "AI_API_KEY")
	overrideString(&c.AIModel, "AI_MODEL")
	overrideString(&c.GoogleClientID, "GOOGLE_CLIENT_ID")
	overrideString(&c.GoogleClientSecret, "GOOGLE_CLIENT_SECRET")
	overrideString(&c.GitHubClientID, "GITHUB_CLIENT_ID")
	overrideString(&c.GitHubClientSecret, "GITHUB_CLIENT_SECRET")
	overrideString(&c.OAuthRedirectBase, "OAUTH_REDIRECT_BASE")
	overrideInt(&c.RateLimitPerMinute, "RATE_LIMIT_PER_MINUTE")

	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		parts := strings.Split(v, ",")
		origins := make([]string, 0, len(parts))
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				origins = append(origins, s)
			}
		}
		if len(origins) > 0 {
			c.AllowedOrigins = origins
		}
	}
}

func setIfEmpty(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func overrideInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
