package command

import (
	"strings"

	"github.com/andersonfds/freitool/core"
)

const (
	TypeSetNotes      = "freitool.command.release.set_notes"
	TypeCreateVersion = "freitool.command.release.create_version"
)

// SetNotesMessage replaces the release notes of Version for Locale.
type SetNotesMessage struct {
	Platform string
	Locale   string
	Version  string
	Text     string
}

func (SetNotesMessage) Type() string { return TypeSetNotes }

func (m SetNotesMessage) Validate() error {
	if err := validatePlatform(m.Platform); err != nil {
		return err
	}
	if strings.TrimSpace(m.Version) == "" {
		return commandValidationError("version", "version is required")
	}
	if strings.TrimSpace(m.Text) == "" {
		return commandValidationError("text", "release notes text is required")
	}
	return nil
}

type CreateVersionMessage struct {
	Platform string
	Version  string
}

func (CreateVersionMessage) Type() string { return TypeCreateVersion }

func (m CreateVersionMessage) Validate() error {
	if err := validatePlatform(m.Platform); err != nil {
		return err
	}
	if strings.TrimSpace(m.Version) == "" {
		return commandValidationError("version", "version is required")
	}
	return nil
}

// ReleaseResult is stored in the go-command result collector after a
// successful command.
type ReleaseResult struct {
	Platform  string `json:"platform"`
	Operation string `json:"operation"`
	Target    string `json:"target,omitempty"`
	Version   string `json:"version"`
	Locale    string `json:"locale,omitempty"`
}

func validatePlatform(platform string) error {
	switch strings.TrimSpace(platform) {
	case core.PlatformAppStore, core.PlatformGooglePlay:
		return nil
	case "":
		return commandValidationError("platform", "platform is required")
	default:
		return commandValidationError("platform", "platform must be ios or android")
	}
}
