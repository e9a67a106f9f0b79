//
// Date: 2025-12-18
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Resolves a Spotify track URL into a cross-platform song.link
// page via the Odesli API, falling back to the original URL on failure.
//

package songlink

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultBaseURL is the public Odesli links endpoint.
const DefaultBaseURL = "https://api.song.link/v1-alpha.1/links"

// linksResponse is the subset of the Odesli response we use.
type linksResponse struct {
	EntityUniqueID string `json:"entityUniqueId"`
	PageURL        string `json:"pageUrl"`
}

// Resolver looks up canonical song.link pages.
type Resolver struct {
	baseURL string
	client  *http.Client
	log     logrus.FieldLogger
}

// New creates a resolver. An empty baseURL uses DefaultBaseURL.
func New(baseURL string, log logrus.FieldLogger) *Resolver {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Resolver{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

// Lookup returns the song.link page for trackURL.
func (r *Resolver) Lookup(ctx context.Context, trackURL string) (string, error) {
	reqURL := r.baseURL + "?url=" + url.QueryEscape(trackURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("song.link request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("song.link returned status %d", resp.StatusCode)
	}

	var links linksResponse
	if err := json.NewDecoder(resp.Body).Decode(&links); err != nil {
		return "", fmt.Errorf("failed to decode song.link response: %w", err)
	}

	if links.PageURL == "" {
		return "", fmt.Errorf("song.link response has no pageUrl")
	}

	return links.PageURL, nil
}

// Resolve returns the canonical link for trackURL, or trackURL itself when
// the lookup fails.
func (r *Resolver) Resolve(ctx context.Context, trackURL string) string {
	link, err := r.Lookup(ctx, trackURL)
	if err != nil {
		r.log.Errorf("Failed to generate generic song link: %v", err)
		r.log.Infof("Returning original song link: %s", trackURL)
		return trackURL
	}
	return link
}
