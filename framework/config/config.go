package config

import (
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/joho/godotenv"
)

// Config is the central typed configuration struct.
type Config struct {
	App AppConfig

	// Values holds every key read from the env files, with the process
	// environment taking precedence.
	Values map[string]string
}

type AppConfig struct {
	Name     string
	Env      string // local | production | testing
	Debug    bool
	Port     string
	LogLevel string // debug | info | warn | error
}

// Load reads .env (if present) and populates a Config from environment variables.
// Call once at bootstrap: cfg := config.Load()
func Load(envFiles ...string) *Config {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	return &Config{
		App: AppConfig{
			Name:     env("APP_NAME", "Injector"),
			Env:      env("APP_ENV", "local"),
			Debug:    envBool("APP_DEBUG", true),
			Port:     env("APP_PORT", "8000"),
			LogLevel: env("LOG_LEVEL", "info"),
		},
		Values: values(files),
	}
}

// values collects the keys of every readable env file. Missing files are skipped.
func values(files []string) map[string]string {
	out := make(map[string]string)
	for _, f := range files {
		read, err := godotenv.Read(f)
		if err != nil {
			continue
		}
		for k, v := range read {
			out[k] = env(k, v)
		}
	}
	return out
}

// Params exposes Values under parameter names, APP_PORT → appPort, ready to
// be bound as "$appPort" value bindings.
func (c *Config) Params() map[string]string {
	out := make(map[string]string, len(c.Values))
	for k, v := range c.Values {
		out[ParamName(k)] = v
	}
	return out
}

// Get returns Values[key], then the environment, then defaultVal.
func (c *Config) Get(key, defaultVal string) string {
	if v, ok := c.Values[key]; ok && v != "" {
		return v
	}
	return env(key, defaultVal)
}

// ParamName converts an env key to a lower-camel parameter name:
// APP_PORT → appPort, DB_HOST_NAME → dbHostName.
func ParamName(key string) string {
	var b strings.Builder
	for i, part := range strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == '-' || r == '.' }) {
		part = strings.ToLower(part)
		if i > 0 {
			r := []rune(part)
			r[0] = unicode.ToUpper(r[0])
			part = string(r)
		}
		b.WriteString(part)
	}
	return b.String()
}

// Get returns a raw env value, falling back to defaultVal.
func Get(key, defaultVal string) string {
	return env(key, defaultVal)
}

// GetInt returns an int env value.
func GetInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

// GetBool returns a bool env value.
func GetBool(key string, defaultVal bool) bool {
	return envBool(key, defaultVal)
}

// ── helpers ─────────────────────────────────────────────────────────────────

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
