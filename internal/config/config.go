package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Backends selectable with BACKEND.
const (
	BackendAppwrite = "appwrite"
	BackendMemory   = "memory"
)

// AppwriteConfig locates the hosted backend resources.
type AppwriteConfig struct {
	Endpoint             string
	ProjectID            string
	APIKey               string
	DatabaseID           string
	UsersCollectionID    string
	PostsCollectionID    string
	ArticlesCollectionID string
	StorageID            string
}

// ModerationConfig holds the Sightengine settings.
type ModerationConfig struct {
	APIUser   string
	APISecret string
	Endpoint  string
	Threshold float64
	Disabled  bool
}

// Config holds the application configuration.
type Config struct {
	Appwrite            AppwriteConfig
	Moderation          ModerationConfig
	LogLevel            string
	Backend             string
	PublicURL           string
	SessionSecret       string
	CookieSecret        string
	DatabaseURL         string
	RecoveryRedirectURL string
	CORSAllowedOrigins  []string
	SessionTTL          time.Duration
	Port                int
	RateLimitPerMinute  int
	LogPretty           bool
	TrustProxy          bool
}

// Load loads configuration from environment variables or sets defaults.
func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	logPretty, err := strconv.ParseBool(getEnv("LOG_PRETTY", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_PRETTY: %w", err)
	}

	threshold, err := strconv.ParseFloat(getEnv("MODERATION_THRESHOLD", "0.6"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid MODERATION_THRESHOLD: %w", err)
	}

	moderationDisabled, err := strconv.ParseBool(getEnv("MODERATION_DISABLED", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid MODERATION_DISABLED: %w", err)
	}

	sessionTTL, err := time.ParseDuration(getEnv("SESSION_TTL", "720h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}

	rateLimit, err := strconv.Atoi(getEnv("RATE_LIMIT_PER_MINUTE", "120"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE: %w", err)
	}

	trustProxy, err := strconv.ParseBool(getEnv("TRUST_PROXY", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid TRUST_PROXY: %w", err)
	}

	cfg := &Config{
		Port:      port,
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: logPretty,
		Backend:   strings.ToLower(getEnv("BACKEND", BackendAppwrite)),
		PublicURL: strings.TrimSuffix(getEnv("PUBLIC_URL", fmt.Sprintf("http://localhost:%d", port)), "/"),
		Appwrite: AppwriteConfig{
			Endpoint:             getEnv("APPWRITE_ENDPOINT", "https://cloud.appwrite.io/v1"),
			ProjectID:            getEnv("APPWRITE_PROJECT_ID", ""),
			APIKey:               getEnv("APPWRITE_API_KEY", ""),
			DatabaseID:           getEnv("APPWRITE_DATABASE_ID", ""),
			UsersCollectionID:    getEnv("APPWRITE_USER_COLLECTION_ID", ""),
			PostsCollectionID:    getEnv("APPWRITE_POSTS_COLLECTION_ID", ""),
			ArticlesCollectionID: getEnv("APPWRITE_ARTICLES_COLLECTION_ID", ""),
			StorageID:            getEnv("APPWRITE_STORAGE_ID", ""),
		},
		Moderation: ModerationConfig{
			APIUser:   getEnv("SIGHTENGINE_API_USER", ""),
			APISecret: getEnv("SIGHTENGINE_API_SECRET", ""),
			Endpoint:  getEnv("SIGHTENGINE_ENDPOINT", "https://api.sightengine.com/1.0/check.json"),
			Threshold: threshold,
			Disabled:  moderationDisabled,
		},
		SessionSecret:       getEnv("SESSION_SECRET", ""),
		SessionTTL:          sessionTTL,
		CookieSecret:        getEnv("COOKIE_SECRET", ""),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		CORSAllowedOrigins:  splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		RateLimitPerMinute:  rateLimit,
		TrustProxy:          trustProxy,
		RecoveryRedirectURL: getEnv("RECOVERY_REDIRECT_URL", ""),
	}

	if cfg.Backend == BackendMemory {
		cfg.applyMemoryDefaults()
	}
	return cfg, nil
}

// applyMemoryDefaults fills in collection names for the in-process backend.
func (c *Config) applyMemoryDefaults() {
	c.Appwrite.Endpoint = c.PublicURL + "/dev/v1"
	setDefault(&c.Appwrite.ProjectID, "local")
	setDefault(&c.Appwrite.DatabaseID, "local")
	setDefault(&c.Appwrite.UsersCollectionID, "users")
	setDefault(&c.Appwrite.PostsCollectionID, "posts")
	setDefault(&c.Appwrite.ArticlesCollectionID, "articles")
	setDefault(&c.Appwrite.StorageID, "media")
	setDefault(&c.RecoveryRedirectURL, c.PublicURL+"/reset-password")
}

// Validate reports every missing or out-of-range setting.
func (c *Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535"))
	}

	switch c.Backend {
	case BackendAppwrite:
		required := map[string]string{
			"APPWRITE_ENDPOINT":               c.Appwrite.Endpoint,
			"APPWRITE_PROJECT_ID":             c.Appwrite.ProjectID,
			"APPWRITE_API_KEY":                c.Appwrite.APIKey,
			"APPWRITE_DATABASE_ID":            c.Appwrite.DatabaseID,
			"APPWRITE_USER_COLLECTION_ID":     c.Appwrite.UsersCollectionID,
			"APPWRITE_POSTS_COLLECTION_ID":    c.Appwrite.PostsCollectionID,
			"APPWRITE_ARTICLES_COLLECTION_ID": c.Appwrite.ArticlesCollectionID,
			"APPWRITE_STORAGE_ID":             c.Appwrite.StorageID,
			"SESSION_SECRET":                  c.SessionSecret,
			"COOKIE_SECRET":                   c.CookieSecret,
			"RECOVERY_REDIRECT_URL":           c.RecoveryRedirectURL,
		}
		for _, key := range sortedKeys(required) {
			if required[key] == "" {
				errs = append(errs, fmt.Errorf("%s is required", key))
			}
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("BACKEND must be %q or %q, got %q", BackendAppwrite, BackendMemory, c.Backend))
	}

	if !c.Moderation.Disabled && (c.Moderation.APIUser == "" || c.Moderation.APISecret == "") {
		errs = append(errs, fmt.Errorf("SIGHTENGINE_API_USER and SIGHTENGINE_API_SECRET are required unless MODERATION_DISABLED=true"))
	}
	if c.Moderation.Threshold <= 0 || c.Moderation.Threshold > 1 {
		errs = append(errs, fmt.Errorf("MODERATION_THRESHOLD must be in (0, 1]"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("SESSION_TTL must be positive"))
	}
	if c.RateLimitPerMinute <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive"))
	}

	return errors.Join(errs...)
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
