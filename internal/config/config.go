package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// HTTP Server
	Port string

	// Backend API
	APIBaseURL string
	APITimeout time.Duration

	// Backend selection: "rest" talks to the real API, "memory" runs an
	// in-process stand-in for local development.
	Backend string

	// Identity provider
	AuthLoginURL string
	// AppBaseURL is this app's own public URL; the provider redirects back
	// to the landing page with the one-time token in the fragment.
	AppBaseURL string

	// Rate limiting for mutation requests
	RateLimitPerMinute int

	// Logging
	LogLevel string
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:               getEnv("PORT", "8080"),
		APIBaseURL:         getEnv("API_BASE_URL", "http://localhost:8000"),
		APITimeout:         getEnvDuration("API_TIMEOUT", 10*time.Second),
		Backend:            getEnv("BACKEND", "rest"),
		AuthLoginURL:       getEnv("AUTH_LOGIN_URL", "https://auth.emergentagent.com/"),
		AppBaseURL:         getEnv("APP_BASE_URL", "http://localhost:8080"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.Backend {
	case "rest", "memory":
	default:
		errs = append(errs, fmt.Sprintf("invalid backend '%s': must be one of [rest memory]", c.Backend))
	}

	if c.Backend == "rest" {
		if err := validateHTTPURL(c.APIBaseURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid API base URL '%s': %v", c.APIBaseURL, err))
		}
	}
	if err := validateHTTPURL(c.AuthLoginURL); err != nil {
		errs = append(errs, fmt.Sprintf("invalid auth login URL '%s': %v", c.AuthLoginURL, err))
	}
	if err := validateHTTPURL(c.AppBaseURL); err != nil {
		errs = append(errs, fmt.Sprintf("invalid app base URL '%s': %v", c.AppBaseURL, err))
	}

	if c.APITimeout < time.Second {
		errs = append(errs, fmt.Sprintf("invalid API timeout %v: must be at least 1 second", c.APITimeout))
	} else if c.APITimeout > time.Minute {
		errs = append(errs, fmt.Sprintf("invalid API timeout %v: must be at most 1 minute", c.APITimeout))
	}

	if c.RateLimitPerMinute < 1 {
		errs = append(errs, fmt.Sprintf("invalid rate limit %d: must be at least 1", c.RateLimitPerMinute))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// ReturnURL is where the identity provider should send the visitor back.
// It must be a page that runs the fragment handshake script, since the
// session id comes back in the URL fragment and never reaches the server.
func (c *Config) ReturnURL() string {
	return strings.TrimRight(c.AppBaseURL, "/") + "/"
}

// LoginRedirectURL is the outbound provider URL carrying the return address.
func (c *Config) LoginRedirectURL() string {
	u := c.AuthLoginURL
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + "redirect=" + url.QueryEscape(c.ReturnURL())
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme '%s' must be 'http' or 'https'", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
