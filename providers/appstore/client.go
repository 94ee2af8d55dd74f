// Package appstore talks to the App Store Connect API and implements the iOS
// release store on top of it.
package appstore

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/andersonfds/freitool/core"
	"github.com/andersonfds/freitool/transport"
)

const (
	opListVersions      = "appstore.list_versions"
	opListLocalizations = "appstore.list_localizations"
	opPatchWhatsNew     = "appstore.patch_whats_new"
	opCreateVersion     = "appstore.create_version"
)

// Client issues one App Store Connect request per method. It never retries.
type Client struct {
	transport core.TransportAdapter
	baseURL   string
}

func NewClient(adapter core.TransportAdapter, baseURL string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = core.DefaultAppStoreBaseURL
	}
	return &Client{transport: adapter, baseURL: baseURL}
}

// ListVersions returns the versions of appID whose version string equals
// version exactly.
func (c *Client) ListVersions(ctx context.Context, credential core.Credential, appID string, version string) ([]Version, error) {
	req, err := transport.JSONRequest(http.MethodGet, c.endpoint("apps", appID, resourceVersions), credential, nil)
	if err != nil {
		return nil, err
	}
	req.Query = map[string]string{"filter[versionString]": version}

	var payload versionListResponse
	if err := c.exchange(ctx, opListVersions, req, &payload); err != nil {
		return nil, err
	}
	versions := make([]Version, 0, len(payload.Data))
	for _, item := range payload.Data {
		if strings.TrimSpace(item.ID) == "" {
			return nil, core.TransportError(nil, opListVersions+": version resource without id")
		}
		versions = append(versions, item.toVersion())
	}
	return versions, nil
}

func (c *Client) ListLocalizations(ctx context.Context, credential core.Credential, versionID string) ([]Localization, error) {
	req, err := transport.JSONRequest(http.MethodGet, c.endpoint(resourceVersions, versionID, resourceVersionLocalizations), credential, nil)
	if err != nil {
		return nil, err
	}

	var payload localizationListResponse
	if err := c.exchange(ctx, opListLocalizations, req, &payload); err != nil {
		return nil, err
	}
	localizations := make([]Localization, 0, len(payload.Data))
	for _, item := range payload.Data {
		if strings.TrimSpace(item.ID) == "" {
			return nil, core.TransportError(nil, opListLocalizations+": localization resource without id")
		}
		localizations = append(localizations, item.toLocalization())
	}
	return localizations, nil
}

// PatchWhatsNew replaces the "what's new" text of one localization.
func (c *Client) PatchWhatsNew(ctx context.Context, credential core.Credential, localizationID string, text string) error {
	req, err := transport.JSONRequest(http.MethodPatch, c.endpoint(resourceVersionLocalizations, localizationID), credential, localizationPatchRequest{
		Data: localizationPatchData{
			Type:       resourceVersionLocalizations,
			ID:         localizationID,
			Attributes: whatsNewAttributes{WhatsNew: text},
		},
	})
	if err != nil {
		return err
	}
	return c.exchange(ctx, opPatchWhatsNew, req, nil)
}

func (c *Client) CreateVersion(ctx context.Context, credential core.Credential, appID string, platform string, version string) (Version, error) {
	req, err := transport.JSONRequest(http.MethodPost, c.endpoint(resourceVersions), credential, versionCreateRequest{
		Data: versionCreateData{
			Type: resourceVersions,
			Attributes: versionAttributes{
				Platform:      platform,
				VersionString: version,
			},
			Relationships: versionRelationships{
				App: appRelationship{Data: resourceRef{Type: resourceApps, ID: appID}},
			},
		},
	})
	if err != nil {
		return Version{}, err
	}

	var payload versionSingleResponse
	if err := c.exchange(ctx, opCreateVersion, req, &payload); err != nil {
		return Version{}, err
	}
	if strings.TrimSpace(payload.Data.ID) == "" {
		return Version{}, core.TransportError(nil, opCreateVersion+": created version without id")
	}
	return payload.Data.toVersion(), nil
}

func (c *Client) exchange(ctx context.Context, operation string, req core.TransportRequest, target any) error {
	if c == nil || c.transport == nil {
		return core.InternalError(fmt.Sprintf("%s: transport is not configured", operation))
	}
	res, err := c.transport.Do(ctx, req)
	if err != nil {
		return err
	}
	if err := transport.CheckResponse(operation, res); err != nil {
		return err
	}
	if target == nil {
		return nil
	}
	return transport.DecodeJSON(operation, res.Body, target)
}

func (c *Client) endpoint(segments ...string) string {
	escaped := make([]string, 0, len(segments))
	for _, segment := range segments {
		escaped = append(escaped, url.PathEscape(segment))
	}
	return c.baseURL + "/" + strings.Join(escaped, "/")
}
