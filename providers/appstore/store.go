package appstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/andersonfds/freitool/core"
	glog "github.com/goliatone/go-logger/glog"
)

type StoreConfig struct {
	AppID    string
	Platform string
	Logger   core.Logger
}

// Store applies release intents to one App Store app.
type Store struct {
	provider core.CredentialProvider
	client   *Client
	appID    string
	platform string
	logger   core.Logger
}

func NewStore(provider core.CredentialProvider, client *Client, cfg StoreConfig) *Store {
	platform := strings.ToUpper(strings.TrimSpace(cfg.Platform))
	if platform == "" {
		platform = core.DefaultAppStorePlatform
	}
	return &Store{
		provider: provider,
		client:   client,
		appID:    strings.TrimSpace(cfg.AppID),
		platform: platform,
		logger:   glog.Ensure(cfg.Logger),
	}
}

func (*Store) Platform() string {
	return core.PlatformAppStore
}

func (s *Store) Target() string {
	return s.appID
}

// SetNotes patches the "what's new" text of the localization of version that
// matches locale. An empty locale selects the only localization, if there is
// exactly one.
func (s *Store) SetNotes(ctx context.Context, locale string, version string, text string) error {
	version = strings.TrimSpace(version)
	if version == "" {
		return core.BadInputError("appstore: version is required")
	}
	credential, err := s.obtain(ctx)
	if err != nil {
		return err
	}

	target, err := s.resolveVersion(ctx, credential, version)
	if err != nil {
		return err
	}

	localizations, err := s.client.ListLocalizations(ctx, credential, target.ID)
	if err != nil {
		return s.fail(err, "list localizations")
	}
	localization, err := selectLocalization(localizations, locale)
	if err != nil {
		return err
	}
	core.MarkStep(ctx, core.StepLocalizationResolved)
	core.LogStep(ctx, s.logger, "appstore: localization resolved", map[string]any{
		"version_id":      target.ID,
		"localization_id": localization.ID,
		"locale":          localization.Locale,
	})

	if err := s.client.PatchWhatsNew(ctx, credential, localization.ID, text); err != nil {
		return s.fail(err, "patch localization")
	}
	core.MarkStep(ctx, core.StepPatched)
	return nil
}

// CreateVersion creates version for the app after checking it does not exist.
func (s *Store) CreateVersion(ctx context.Context, version string) error {
	version = strings.TrimSpace(version)
	if err := ValidateVersionString(version); err != nil {
		return err
	}
	credential, err := s.obtain(ctx)
	if err != nil {
		return err
	}

	existing, err := s.client.ListVersions(ctx, credential, s.appID, version)
	if err != nil {
		return s.fail(err, "list versions")
	}
	if len(existing) > 0 {
		return core.ResolutionError(
			core.ErrorVersionAlreadyExists,
			fmt.Sprintf("appstore: version %s already exists for app %s", version, s.appID),
			map[string]any{"app_id": s.appID, "version": version},
		)
	}

	created, err := s.client.CreateVersion(ctx, credential, s.appID, s.platform, version)
	if err != nil {
		return s.fail(err, "create version")
	}
	core.MarkStep(ctx, core.StepCreated)
	core.LogStep(ctx, s.logger, "appstore: version created", map[string]any{
		"version_id": created.ID,
		"version":    version,
		"platform":   s.platform,
	})
	return nil
}

// ValidateVersionString accepts one to three dot separated numeric
// components without pre-release or build suffixes.
func ValidateVersionString(version string) error {
	version = strings.TrimSpace(version)
	if version == "" {
		return core.BadInputError("appstore: version is required")
	}
	if strings.HasPrefix(version, "v") || strings.HasPrefix(version, "V") {
		return core.BadInputError(fmt.Sprintf("appstore: version %q must not have a v prefix", version))
	}
	parsed, err := semver.NewVersion(version)
	if err != nil {
		return core.BadInputError(fmt.Sprintf("appstore: version %q is not a valid version string", version))
	}
	if parsed.Prerelease() != "" || parsed.Metadata() != "" {
		return core.BadInputError(fmt.Sprintf("appstore: version %q must not carry pre-release or build metadata", version))
	}
	return nil
}

func (s *Store) obtain(ctx context.Context) (core.Credential, error) {
	if s.provider == nil || s.client == nil {
		return core.Credential{}, core.InternalError("appstore: store is not configured")
	}
	if s.appID == "" {
		return core.Credential{}, core.BadInputError("appstore: app id is required")
	}
	credential, err := s.provider.Obtain(ctx)
	if err != nil {
		return core.Credential{}, core.WithStep(err, "obtain credential")
	}
	core.MarkStep(ctx, core.StepAuthenticated)
	return credential, nil
}

func (s *Store) resolveVersion(ctx context.Context, credential core.Credential, version string) (Version, error) {
	versions, err := s.client.ListVersions(ctx, credential, s.appID, version)
	if err != nil {
		return Version{}, s.fail(err, "list versions")
	}
	if len(versions) != 1 {
		return Version{}, core.ResolutionError(
			core.ErrorAmbiguousOrMissingVersion,
			fmt.Sprintf("appstore: expected exactly one version %s for app %s, found %d", version, s.appID, len(versions)),
			map[string]any{"app_id": s.appID, "version": version, "matches": len(versions)},
		)
	}
	core.MarkStep(ctx, core.StepVersionResolved)
	return versions[0], nil
}

// fail invalidates the cached credential on 401 so the next call remints.
func (s *Store) fail(err error, step string) error {
	if core.IsUnauthorized(err) {
		s.provider.Invalidate()
	}
	return core.WithStep(err, step)
}

func selectLocalization(localizations []Localization, locale string) (Localization, error) {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		if len(localizations) == 1 {
			return localizations[0], nil
		}
		return Localization{}, core.ResolutionError(
			core.ErrorAmbiguousOrMissingLocalization,
			fmt.Sprintf("appstore: locale is required when the version has %d localizations", len(localizations)),
			map[string]any{"matches": len(localizations)},
		)
	}

	matches := make([]Localization, 0, 1)
	for _, localization := range localizations {
		if strings.EqualFold(strings.TrimSpace(localization.Locale), locale) {
			matches = append(matches, localization)
		}
	}
	if len(matches) != 1 {
		return Localization{}, core.ResolutionError(
			core.ErrorAmbiguousOrMissingLocalization,
			fmt.Sprintf("appstore: expected exactly one localization %s, found %d", locale, len(matches)),
			map[string]any{"locale": locale, "matches": len(matches)},
		)
	}
	return matches[0], nil
}

var (
	_ core.ReleaseStore  = (*Store)(nil)
	_ core.ReleaseTarget = (*Store)(nil)
)
