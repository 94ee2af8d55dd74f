package googleplay

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/andersonfds/freitool/core"
	glog "github.com/goliatone/go-logger/glog"
)

type StoreConfig struct {
	PackageName string
	Track       string
	Logger      core.Logger
}

// Store applies release intents to one track of one package. Every call
// opens its own edit session and commits it only after the mutation
// succeeded. Abandoned sessions expire on the vendor side.
type Store struct {
	provider    core.CredentialProvider
	client      *Client
	packageName string
	track       string
	logger      core.Logger
}

func NewStore(provider core.CredentialProvider, client *Client, cfg StoreConfig) *Store {
	return &Store{
		provider:    provider,
		client:      client,
		packageName: strings.TrimSpace(cfg.PackageName),
		track:       strings.TrimSpace(cfg.Track),
		logger:      glog.Ensure(cfg.Logger),
	}
}

func (*Store) Platform() string {
	return core.PlatformGooglePlay
}

func (s *Store) Target() string {
	return s.packageName + "/" + s.track
}

// CreateVersion adds a draft release named version to the track. Any
// existing release with that name, whatever its status, aborts the session.
func (s *Store) CreateVersion(ctx context.Context, version string) error {
	version = strings.TrimSpace(version)
	if version == "" {
		return core.BadInputError("googleplay: version is required")
	}
	credential, editID, current, err := s.openTrack(ctx)
	if err != nil {
		return err
	}

	for _, release := range current.Releases {
		if release.Name == version {
			return core.ResolutionError(
				core.ErrorVersionAlreadyExists,
				fmt.Sprintf("googleplay: release %s already exists on track %s with status %s", version, s.track, release.Status),
				map[string]any{"package": s.packageName, "track": s.track, "version": version, "status": string(release.Status)},
			)
		}
	}

	return s.mutateAndCommit(ctx, credential, editID, core.Release{
		Name:   version,
		Status: core.ReleaseStatusDraft,
	})
}

// SetNotes replaces the release notes of the draft release named version
// with a single note for locale. Status, name and version codes are kept.
// The locale is required here: an empty locale meaning "the only
// localization" is an App Store behavior and is rejected as bad input.
func (s *Store) SetNotes(ctx context.Context, locale string, version string, text string) error {
	notes := core.LocalizedNotes{Locale: locale, Text: text}
	if strings.TrimSpace(notes.Locale) == "" {
		return core.BadInputError("googleplay: locale is required for release notes")
	}
	version = strings.TrimSpace(version)
	if version == "" {
		return core.BadInputError("googleplay: version is required")
	}
	credential, editID, current, err := s.openTrack(ctx)
	if err != nil {
		return err
	}

	release, err := s.selectDraft(current, version)
	if err != nil {
		return err
	}
	core.MarkStep(ctx, core.StepVersionResolved)

	return s.mutateAndCommit(ctx, credential, editID, core.Release{
		VersionCodes: slices.Clone(release.VersionCodes),
		ReleaseNotes: []core.ReleaseNote{notes.ReleaseNote()},
		Status:       release.Status,
		Name:         release.Name,
	})
}

func (s *Store) openTrack(ctx context.Context) (core.Credential, string, core.Track, error) {
	if s.provider == nil || s.client == nil {
		return core.Credential{}, "", core.Track{}, core.InternalError("googleplay: store is not configured")
	}
	if s.packageName == "" {
		return core.Credential{}, "", core.Track{}, core.BadInputError("googleplay: package name is required")
	}
	if !slices.Contains(core.GooglePlayTracks, s.track) {
		return core.Credential{}, "", core.Track{}, core.BadInputError(
			fmt.Sprintf("googleplay: track %q is invalid, expected one of %s", s.track, strings.Join(core.GooglePlayTracks, ", ")),
		)
	}

	credential, err := s.provider.Obtain(ctx)
	if err != nil {
		return core.Credential{}, "", core.Track{}, core.WithStep(err, "obtain credential")
	}
	core.MarkStep(ctx, core.StepAuthenticated)

	edit, err := s.client.CreateEdit(ctx, credential, s.packageName)
	if err != nil {
		return core.Credential{}, "", core.Track{}, s.fail(err, "create edit")
	}
	core.MarkStep(ctx, core.StepSessionOpen)
	core.LogStep(ctx, s.logger, "googleplay: edit opened", map[string]any{
		"package": s.packageName,
		"edit_id": edit.ID,
	})

	current, err := s.client.GetTrack(ctx, credential, s.packageName, edit.ID, s.track)
	if err != nil {
		return core.Credential{}, "", core.Track{}, s.fail(err, "get track")
	}
	return credential, edit.ID, current, nil
}

func (s *Store) mutateAndCommit(ctx context.Context, credential core.Credential, editID string, release core.Release) error {
	_, err := s.client.UpdateTrack(ctx, credential, s.packageName, editID, core.Track{
		Track:    s.track,
		Releases: []core.Release{release},
	})
	if err != nil {
		return s.fail(err, "update track")
	}
	core.MarkStep(ctx, core.StepMutated)

	if err := s.client.CommitEdit(ctx, credential, s.packageName, editID); err != nil {
		return s.fail(err, "commit edit")
	}
	core.MarkStep(ctx, core.StepCommitted)
	core.LogStep(ctx, s.logger, "googleplay: edit committed", map[string]any{
		"package": s.packageName,
		"track":   s.track,
		"edit_id": editID,
		"release": release.Name,
	})
	return nil
}

func (s *Store) selectDraft(track core.Track, version string) (core.Release, error) {
	matches := make([]core.Release, 0, 1)
	for _, release := range track.Releases {
		if release.Status == core.ReleaseStatusDraft && release.Name == version {
			matches = append(matches, release)
		}
	}
	switch len(matches) {
	case 0:
		return core.Release{}, core.ResolutionError(
			core.ErrorReleaseNotEditable,
			fmt.Sprintf("googleplay: no draft release %s on track %s", version, s.track),
			map[string]any{"package": s.packageName, "track": s.track, "version": version},
		)
	case 1:
		return matches[0], nil
	default:
		return core.Release{}, core.ResolutionError(
			core.ErrorAmbiguousOrMissingVersion,
			fmt.Sprintf("googleplay: %d draft releases named %s on track %s", len(matches), version, s.track),
			map[string]any{"package": s.packageName, "track": s.track, "version": version, "matches": len(matches)},
		)
	}
}

// fail invalidates the cached credential on 401 so the next call re-exchanges.
func (s *Store) fail(err error, step string) error {
	if core.IsUnauthorized(err) {
		s.provider.Invalidate()
	}
	return core.WithStep(err, step)
}

var (
	_ core.ReleaseStore  = (*Store)(nil)
	_ core.ReleaseTarget = (*Store)(nil)
)
