package core

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/goliatone/go-config/cfgx"
	opts "github.com/goliatone/go-options"
	"gopkg.in/yaml.v3"
)

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

// YAMLConfigLoader reads a YAML document into a raw map. A missing file
// yields an empty map when Optional is set.
type YAMLConfigLoader struct {
	Path     string
	Optional bool
}

func (l YAMLConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	path := strings.TrimSpace(l.Path)
	if path == "" {
		return map[string]any{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if l.Optional && os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("core: read config %s: %w", path, err)
	}
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("core: parse config %s: %w", path, err)
	}
	return raw, nil
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// GoOptionsResolver layers defaults < config file < runtime flags.
type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			configToLayerMap(defaults, true),
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			configToLayerMap(loaded, false),
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			configToLayerMap(runtime, false),
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

// LoadConfig resolves the effective configuration from the YAML file at path
// (optional) and the runtime overrides.
func LoadConfig(ctx context.Context, path string, runtime Config) (Config, error) {
	defaults := DefaultConfig()
	provider := NewCfgxConfigProvider(YAMLConfigLoader{Path: path, Optional: true})
	loaded, err := provider.Load(ctx, defaults)
	if err != nil {
		return Config{}, err
	}
	return GoOptionsResolver{}.Resolve(defaults, loaded, runtime)
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	put := func(section map[string]any, key string, value any, zero bool) {
		if includeZero || !zero {
			section[key] = value
		}
	}

	appStore := map[string]any{}
	put(appStore, "key_path", cfg.AppStore.KeyPath, cfg.AppStore.KeyPath == "")
	put(appStore, "issuer_id", cfg.AppStore.IssuerID, cfg.AppStore.IssuerID == "")
	put(appStore, "app_id", cfg.AppStore.AppID, cfg.AppStore.AppID == "")
	put(appStore, "platform", cfg.AppStore.Platform, cfg.AppStore.Platform == "")
	put(appStore, "base_url", cfg.AppStore.BaseURL, cfg.AppStore.BaseURL == "")

	googlePlay := map[string]any{}
	put(googlePlay, "key_path", cfg.GooglePlay.KeyPath, cfg.GooglePlay.KeyPath == "")
	put(googlePlay, "package_name", cfg.GooglePlay.PackageName, cfg.GooglePlay.PackageName == "")
	put(googlePlay, "track", cfg.GooglePlay.Track, cfg.GooglePlay.Track == "")
	put(googlePlay, "base_url", cfg.GooglePlay.BaseURL, cfg.GooglePlay.BaseURL == "")
	put(googlePlay, "token_url", cfg.GooglePlay.TokenURL, cfg.GooglePlay.TokenURL == "")

	httpSection := map[string]any{}
	put(httpSection, "timeout_seconds", cfg.HTTP.TimeoutSeconds, cfg.HTTP.TimeoutSeconds == 0)
	put(httpSection, "requests_per_second", cfg.HTTP.RequestsPerSecond, cfg.HTTP.RequestsPerSecond == 0)
	put(httpSection, "burst", cfg.HTTP.Burst, cfg.HTTP.Burst == 0)

	journal := map[string]any{}
	put(journal, "driver", cfg.Journal.Driver, cfg.Journal.Driver == "")
	put(journal, "dsn", cfg.Journal.DSN, cfg.Journal.DSN == "")

	for key, section := range map[string]map[string]any{
		"app_store":   appStore,
		"google_play": googlePlay,
		"http":        httpSection,
		"journal":     journal,
	} {
		if includeZero || len(section) > 0 {
			layer[key] = section
		}
	}
	put(layer, "log_level", cfg.LogLevel, cfg.LogLevel == "")
	return layer
}
