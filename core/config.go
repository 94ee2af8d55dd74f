package core

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

const (
	DefaultAppStoreBaseURL   = "https://api.appstoreconnect.apple.com/v1"
	DefaultAppStoreAudience  = "appstoreconnect-v1"
	DefaultAppStorePlatform  = "IOS"
	DefaultGooglePlayBaseURL = "https://androidpublisher.googleapis.com/androidpublisher/v3/applications"
	DefaultGoogleTokenURL    = "https://oauth2.googleapis.com/token"
	GooglePlayPublisherScope = "https://www.googleapis.com/auth/androidpublisher"
)

var GooglePlayTracks = []string{"internal", "alpha", "beta", "production"}

var journalDrivers = []string{"", "sqlite3", "postgres"}

type AppStoreConfig struct {
	KeyPath  string `koanf:"key_path" mapstructure:"key_path" yaml:"key_path"`
	IssuerID string `koanf:"issuer_id" mapstructure:"issuer_id" yaml:"issuer_id"`
	AppID    string `koanf:"app_id" mapstructure:"app_id" yaml:"app_id"`
	Platform string `koanf:"platform" mapstructure:"platform" yaml:"platform"`
	BaseURL  string `koanf:"base_url" mapstructure:"base_url" yaml:"base_url"`
}

type GooglePlayConfig struct {
	KeyPath     string `koanf:"key_path" mapstructure:"key_path" yaml:"key_path"`
	PackageName string `koanf:"package_name" mapstructure:"package_name" yaml:"package_name"`
	Track       string `koanf:"track" mapstructure:"track" yaml:"track"`
	BaseURL     string `koanf:"base_url" mapstructure:"base_url" yaml:"base_url"`
	TokenURL    string `koanf:"token_url" mapstructure:"token_url" yaml:"token_url"`
}

type HTTPConfig struct {
	TimeoutSeconds    int     `koanf:"timeout_seconds" mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	RequestsPerSecond float64 `koanf:"requests_per_second" mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `koanf:"burst" mapstructure:"burst" yaml:"burst"`
}

func (c HTTPConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// JournalConfig enables the run journal when DSN is set.
type JournalConfig struct {
	Driver string `koanf:"driver" mapstructure:"driver" yaml:"driver"`
	DSN    string `koanf:"dsn" mapstructure:"dsn" yaml:"dsn"`
}

func (c JournalConfig) Enabled() bool {
	return strings.TrimSpace(c.DSN) != ""
}

type Config struct {
	AppStore   AppStoreConfig   `koanf:"app_store" mapstructure:"app_store" yaml:"app_store"`
	GooglePlay GooglePlayConfig `koanf:"google_play" mapstructure:"google_play" yaml:"google_play"`
	HTTP       HTTPConfig       `koanf:"http" mapstructure:"http" yaml:"http"`
	Journal    JournalConfig    `koanf:"journal" mapstructure:"journal" yaml:"journal"`
	LogLevel   string           `koanf:"log_level" mapstructure:"log_level" yaml:"log_level"`
}

func DefaultConfig() Config {
	return Config{
		AppStore: AppStoreConfig{
			Platform: DefaultAppStorePlatform,
			BaseURL:  DefaultAppStoreBaseURL,
		},
		GooglePlay: GooglePlayConfig{
			BaseURL:  DefaultGooglePlayBaseURL,
			TokenURL: DefaultGoogleTokenURL,
		},
		HTTP: HTTPConfig{
			TimeoutSeconds:    30,
			RequestsPerSecond: 5,
			Burst:             5,
		},
		Journal: JournalConfig{
			Driver: "sqlite3",
		},
		LogLevel: "info",
	}
}

// Validate checks values that are invalid regardless of the platform in use.
// Platform specific requirements are checked by ValidateAppStore and
// ValidateGooglePlay when a store is built.
func (c Config) Validate() error {
	if c.HTTP.TimeoutSeconds < 0 {
		return fmt.Errorf("core: http.timeout_seconds must not be negative")
	}
	if c.HTTP.RequestsPerSecond < 0 {
		return fmt.Errorf("core: http.requests_per_second must not be negative")
	}
	if track := strings.TrimSpace(c.GooglePlay.Track); track != "" && !slices.Contains(GooglePlayTracks, track) {
		return fmt.Errorf("core: google_play.track %q is invalid, expected one of %s", track, strings.Join(GooglePlayTracks, ", "))
	}
	if !slices.Contains(journalDrivers, strings.TrimSpace(c.Journal.Driver)) {
		return fmt.Errorf("core: journal.driver %q is not supported", c.Journal.Driver)
	}
	return nil
}

func (c Config) ValidateAppStore() error {
	if strings.TrimSpace(c.AppStore.KeyPath) == "" {
		return BadInputError("core: app_store.key_path is required")
	}
	if strings.TrimSpace(c.AppStore.IssuerID) == "" {
		return BadInputError("core: app_store.issuer_id is required")
	}
	if strings.TrimSpace(c.AppStore.AppID) == "" {
		return BadInputError("core: app_store.app_id is required")
	}
	return nil
}

func (c Config) ValidateGooglePlay() error {
	if strings.TrimSpace(c.GooglePlay.KeyPath) == "" {
		return BadInputError("core: google_play.key_path is required")
	}
	if strings.TrimSpace(c.GooglePlay.PackageName) == "" {
		return BadInputError("core: google_play.package_name is required")
	}
	if strings.TrimSpace(c.GooglePlay.Track) == "" {
		return BadInputError("core: google_play.track is required")
	}
	return nil
}
