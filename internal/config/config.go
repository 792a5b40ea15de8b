package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix           = "ADVOCATE"
	defaultHTTPAddress  = "0.0.0.0:8080"
	defaultStoreDriver  = StoreDriverREST
	defaultDatabasePath = "advocate.db"
	defaultLogLevel     = "info"
	defaultLogFormat    = "json"
	defaultCookieName   = "advocate_session"
	defaultSessionTTL   = 720
	defaultRelayTimeout = 10
	defaultSiteName     = "Advocate Prince Gupta"
	defaultSiteAuthor   = "Adv. Prince Gupta"
	defaultConsoleIdle  = 120
)

// Supported store backends.
const (
	StoreDriverREST   = "rest"
	StoreDriverSQLite = "sqlite"
)

// AppConfig captures runtime configuration for the site server.
type AppConfig struct {
	HTTPAddress string

	StoreDriver   string
	StoreURL      string
	StoreAPIKey   string
	DatabasePath  string
	StoreTimeout  time.Duration
	AllowedOrigin []string

	SessionSigningSecret string
	SessionCookieName    string
	SessionTTL           time.Duration
	SessionSecureCookie  bool
	ConsoleIdleTimeout   time.Duration

	RelayEndpoint string
	RelayTimeout  time.Duration

	SiteName   string
	SiteAuthor string

	LogLevel  string
	LogFormat string
	LogFile   string
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("http.allowed_origins", []string{"*"})
	configViper.SetDefault("store.driver", defaultStoreDriver)
	configViper.SetDefault("store.url", "")
	configViper.SetDefault("store.api_key", "")
	configViper.SetDefault("store.timeout_seconds", 15)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("session.cookie_name", defaultCookieName)
	configViper.SetDefault("session.ttl_minutes", defaultSessionTTL)
	configViper.SetDefault("session.secure_cookie", false)
	configViper.SetDefault("console.idle_minutes", defaultConsoleIdle)
	configViper.SetDefault("relay.endpoint", "")
	configViper.SetDefault("relay.timeout_seconds", defaultRelayTimeout)
	configViper.SetDefault("site.name", defaultSiteName)
	configViper.SetDefault("site.author", defaultSiteAuthor)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("log.format", defaultLogFormat)
	configViper.SetDefault("log.file", "")
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:          configViper.GetString("http.address"),
		AllowedOrigin:        configViper.GetStringSlice("http.allowed_origins"),
		StoreDriver:          strings.ToLower(strings.TrimSpace(configViper.GetString("store.driver"))),
		StoreURL:             strings.TrimSpace(configViper.GetString("store.url")),
		StoreAPIKey:          strings.TrimSpace(configViper.GetString("store.api_key")),
		StoreTimeout:         time.Duration(configViper.GetInt("store.timeout_seconds")) * time.Second,
		DatabasePath:         configViper.GetString("database.path"),
		SessionSigningSecret: configViper.GetString("session.signing_secret"),
		SessionCookieName:    configViper.GetString("session.cookie_name"),
		SessionTTL:           time.Duration(configViper.GetInt("session.ttl_minutes")) * time.Minute,
		SessionSecureCookie:  configViper.GetBool("session.secure_cookie"),
		ConsoleIdleTimeout:   time.Duration(configViper.GetInt("console.idle_minutes")) * time.Minute,
		RelayEndpoint:        strings.TrimSpace(configViper.GetString("relay.endpoint")),
		RelayTimeout:         time.Duration(configViper.GetInt("relay.timeout_seconds")) * time.Second,
		SiteName:             configViper.GetString("site.name"),
		SiteAuthor:           configViper.GetString("site.author"),
		LogLevel:             configViper.GetString("log.level"),
		LogFormat:            configViper.GetString("log.format"),
		LogFile:              strings.TrimSpace(configViper.GetString("log.file")),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

// Missing store credentials are not validated here: the data layer runs in
// degraded mode instead of refusing to start.
func (c AppConfig) validate() error {
	if strings.TrimSpace(c.SessionSigningSecret) == "" {
		return fmt.Errorf("session.signing_secret is required")
	}
	if strings.TrimSpace(c.SessionCookieName) == "" {
		return fmt.Errorf("session.cookie_name is required")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session.ttl_minutes must be positive")
	}
	switch c.StoreDriver {
	case StoreDriverREST:
	case StoreDriverSQLite:
		if strings.TrimSpace(c.DatabasePath) == "" {
			return fmt.Errorf("database.path is required for the sqlite store")
		}
	default:
		return fmt.Errorf("store.driver %q is not supported", c.StoreDriver)
	}
	return nil
}
