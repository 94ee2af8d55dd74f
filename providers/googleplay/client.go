// Package googleplay talks to the Google Play Developer API and implements the
// Android release store on top of its edit sessions.
package googleplay

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andersonfds/freitool/core"
	"github.com/andersonfds/freitool/transport"
)

const jwtBearerGrantType = "urn:ietf:params:oauth:grant-type:jwt-bearer"

const (
	opExchangeAssertion = "googleplay.exchange_assertion"
	opCreateEdit        = "googleplay.create_edit"
	opGetTrack          = "googleplay.get_track"
	opUpdateTrack       = "googleplay.update_track"
	opCommitEdit        = "googleplay.commit_edit"
)

type ClientConfig struct {
	BaseURL  string
	TokenURL string
}

// Edit is an open edit session.
type Edit struct {
	ID                string `json:"id"`
	ExpiryTimeSeconds string `json:"expiryTimeSeconds,omitempty"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Client issues one Google Play request per method. It never retries.
type Client struct {
	transport core.TransportAdapter
	baseURL   string
	tokenURL  string
}

func NewClient(adapter core.TransportAdapter, cfg ClientConfig) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = core.DefaultGooglePlayBaseURL
	}
	tokenURL := strings.TrimSpace(cfg.TokenURL)
	if tokenURL == "" {
		tokenURL = core.DefaultGoogleTokenURL
	}
	return &Client{transport: adapter, baseURL: baseURL, tokenURL: tokenURL}
}

func (c *Client) TokenURL() string {
	return c.tokenURL
}

// ExchangeAssertion trades a signed service-account assertion for a bearer
// token at the token endpoint.
func (c *Client) ExchangeAssertion(ctx context.Context, assertion string) (core.TokenGrant, error) {
	form := url.Values{}
	form.Set("grant_type", jwtBearerGrantType)
	form.Set("assertion", strings.TrimSpace(assertion))
	req := core.TransportRequest{
		Method: http.MethodPost,
		URL:    c.tokenURL,
		Headers: map[string]string{
			"Content-Type": "application/x-www-form-urlencoded",
			"Accept":       "application/json",
		},
		Body: []byte(form.Encode()),
	}

	var payload tokenResponse
	if err := c.exchange(ctx, opExchangeAssertion, req, &payload); err != nil {
		return core.TokenGrant{}, err
	}
	if strings.TrimSpace(payload.AccessToken) == "" {
		return core.TokenGrant{}, core.TransportError(nil, opExchangeAssertion+": response missing access_token")
	}
	return core.TokenGrant{
		AccessToken: payload.AccessToken,
		TokenType:   payload.TokenType,
		ExpiresIn:   time.Duration(payload.ExpiresIn) * time.Second,
	}, nil
}

func (c *Client) CreateEdit(ctx context.Context, credential core.Credential, packageName string) (Edit, error) {
	req, err := transport.JSONRequest(http.MethodPost, c.endpoint(packageName, "edits"), credential, struct{}{})
	if err != nil {
		return Edit{}, err
	}
	var edit Edit
	if err := c.exchange(ctx, opCreateEdit, req, &edit); err != nil {
		return Edit{}, err
	}
	if strings.TrimSpace(edit.ID) == "" {
		return Edit{}, core.TransportError(nil, opCreateEdit+": response missing edit id")
	}
	return edit, nil
}

func (c *Client) GetTrack(ctx context.Context, credential core.Credential, packageName string, editID string, track string) (core.Track, error) {
	req, err := transport.JSONRequest(http.MethodGet, c.endpoint(packageName, "edits", editID, "tracks", track), credential, nil)
	if err != nil {
		return core.Track{}, err
	}
	var payload core.Track
	if err := c.exchange(ctx, opGetTrack, req, &payload); err != nil {
		return core.Track{}, err
	}
	return payload, nil
}

// UpdateTrack replaces the whole release collection of track.Track.
func (c *Client) UpdateTrack(ctx context.Context, credential core.Credential, packageName string, editID string, track core.Track) (core.Track, error) {
	if strings.TrimSpace(track.Track) == "" {
		return core.Track{}, core.BadInputError(opUpdateTrack + ": track name is required")
	}
	req, err := transport.JSONRequest(http.MethodPut, c.endpoint(packageName, "edits", editID, "tracks", track.Track), credential, track)
	if err != nil {
		return core.Track{}, err
	}
	var payload core.Track
	if err := c.exchange(ctx, opUpdateTrack, req, &payload); err != nil {
		return core.Track{}, err
	}
	return payload, nil
}

func (c *Client) CommitEdit(ctx context.Context, credential core.Credential, packageName string, editID string) error {
	req, err := transport.JSONRequest(http.MethodPost, c.endpoint(packageName, "edits", editID)+":commit", credential, struct{}{})
	if err != nil {
		return err
	}
	return c.exchange(ctx, opCommitEdit, req, nil)
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
