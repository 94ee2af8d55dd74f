package freitool

import (
	"context"

	"github.com/andersonfds/freitool/core"
)

type Config = core.Config

type AppStoreConfig = core.AppStoreConfig
type GooglePlayConfig = core.GooglePlayConfig
type HTTPConfig = core.HTTPConfig
type JournalConfig = core.JournalConfig

type ReleaseStore = core.ReleaseStore
type RunEntry = core.RunEntry
type RunFilter = core.RunFilter
type RunStatus = core.RunStatus

const (
	PlatformIOS     = core.PlatformAppStore
	PlatformAndroid = core.PlatformGooglePlay
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

// LoadConfig layers defaults, the optional YAML file at path and runtime.
func LoadConfig(ctx context.Context, path string, runtime Config) (Config, error) {
	return core.LoadConfig(ctx, path, runtime)
}
