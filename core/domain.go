package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	PlatformAppStore   = "ios"
	PlatformGooglePlay = "android"
)

const (
	OperationSetNotes      = "set_notes"
	OperationCreateVersion = "create_version"
)

// Credential is a signed bearer token and the instant it stops being valid.
// Providers replace it wholesale on refresh.
type Credential struct {
	Token     string
	ExpiresAt time.Time
}

func (c Credential) Valid(now time.Time) bool {
	return strings.TrimSpace(c.Token) != "" && c.ExpiresAt.After(now)
}

func (c Credential) AuthorizationHeader() string {
	return "Bearer " + c.Token
}

// TokenGrant is the result of exchanging a signed assertion for a bearer token.
type TokenGrant struct {
	AccessToken string
	TokenType   string
	ExpiresIn   time.Duration
}

type ReleaseStatus string

const (
	ReleaseStatusUnspecified ReleaseStatus = "statusUnspecified"
	ReleaseStatusDraft       ReleaseStatus = "draft"
	ReleaseStatusInProgress  ReleaseStatus = "inProgress"
	ReleaseStatusHalted      ReleaseStatus = "halted"
	ReleaseStatusCompleted   ReleaseStatus = "completed"
)

func (s ReleaseStatus) Valid() bool {
	switch s {
	case ReleaseStatusUnspecified,
		ReleaseStatusDraft,
		ReleaseStatusInProgress,
		ReleaseStatusHalted,
		ReleaseStatusCompleted:
		return true
	default:
		return false
	}
}

func (s *ReleaseStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("core: release status must be a string: %w", err)
	}
	status := ReleaseStatus(raw)
	if !status.Valid() {
		return fmt.Errorf("core: unknown release status %q", raw)
	}
	*s = status
	return nil
}

type ReleaseNote struct {
	Language string `json:"language"`
	Text     string `json:"text"`
}

// Release is one entry of a Google Play track.
type Release struct {
	VersionCodes []string      `json:"versionCodes,omitempty"`
	ReleaseNotes []ReleaseNote `json:"releaseNotes,omitempty"`
	Status       ReleaseStatus `json:"status"`
	Name         string        `json:"name"`
}

// Track is a named release lane. Updating a track replaces its whole release
// collection.
type Track struct {
	Track    string    `json:"track"`
	Releases []Release `json:"releases"`
}

// LocalizedNotes is a release-notes text for one locale.
type LocalizedNotes struct {
	Locale string
	Text   string
}

func (n LocalizedNotes) ReleaseNote() ReleaseNote {
	return ReleaseNote{Language: strings.TrimSpace(n.Locale), Text: n.Text}
}
