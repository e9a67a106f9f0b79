//
// Date: 2025-12-15
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Spotify Web API client used by the announcer.
//

package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	spotifyLib "github.com/zmb3/spotify/v2"
)

// Client fetches playback state for the authorized user.
type Client struct {
	httpClient *http.Client
	api        *spotifyLib.Client
	baseURL    string
	log        logrus.FieldLogger
}

// NewClient wraps an authorized HTTP client. An empty baseURL uses
// DefaultBaseURL.
func NewClient(httpClient *http.Client, baseURL string, log logrus.FieldLogger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient.Timeout == 0 {
		httpClient.Timeout = requestTimeout
	}

	return &Client{
		httpClient: httpClient,
		api:        spotifyLib.New(httpClient),
		baseURL:    baseURL,
		log:        log,
	}
}

// CurrentUser returns the display name of the authorized user.
func (c *Client) CurrentUser(ctx context.Context) (string, error) {
	user, err := c.api.CurrentUser(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get user info: %w", err)
	}
	if user.DisplayName != "" {
		return user.DisplayName, nil
	}
	return user.ID, nil
}

// CurrentlyPlaying fetches the user's playback state. Transport errors,
// error statuses, empty or malformed bodies and bodies without is_playing
// all yield the placeholder snapshot instead of an error. An error is only
// returned once ctx is done.
func (c *Client) CurrentlyPlaying(ctx context.Context) (Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+currentlyPlayingPath, nil)
	if err != nil {
		return Snapshot{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Snapshot{}, ctx.Err()
		}
		c.log.Debugf("currently playing request failed: %v", err)
		return Placeholder(), nil
	}
	defer resp.Body.Close()

	// When nothing is playing, Spotify returns 204 No Content.
	if resp.StatusCode == http.StatusNoContent {
		return Placeholder(), nil
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Warnf("currently playing returned status %d: %s", resp.StatusCode, body)
		return Placeholder(), nil
	}

	var snap Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		c.log.Debugf("failed to decode currently playing response: %v", err)
		return Placeholder(), nil
	}

	if snap.IsPlaying == nil {
		return Placeholder(), nil
	}

	return snap, nil
}
