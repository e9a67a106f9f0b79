//
// Date: 2025-12-18
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Mastodon status publisher.
//

package mastodon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	mastodonLib "github.com/mattn/go-mastodon"
)

// ErrServiceUnavailable marks a publish failure caused by the instance being
// temporarily unavailable (HTTP 502/503/504).
var ErrServiceUnavailable = errors.New("mastodon service unavailable")

// ErrInvalidInstance is returned for an instance that is not an http(s) URL
// or bare host name.
var ErrInvalidInstance = errors.New("invalid mastodon instance")

// Post is a single status to publish.
type Post struct {
	Text        string
	Visibility  string
	SpoilerText string
}

// Publisher posts statuses to one Mastodon account.
type Publisher struct {
	client *mastodonLib.Client
}

// InstanceURL returns the base URL for an instance given either as a full
// URL or as a bare host ("mastodon.social"), which is assumed to be https.
func InstanceURL(instance string) (string, error) {
	raw := strings.TrimSpace(instance)
	lower := strings.ToLower(raw)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		if strings.Contains(raw, "://") {
			return "", fmt.Errorf("%w: unsupported scheme in %q", ErrInvalidInstance, instance)
		}
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInstance, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return "", fmt.Errorf("%w: no host in %q", ErrInvalidInstance, instance)
	}

	return strings.TrimSuffix(u.String(), "/"), nil
}

// New creates a publisher for the given instance and access token. A bare
// host is expanded with InstanceURL.
func New(instance, accessToken string) *Publisher {
	if server, err := InstanceURL(instance); err == nil {
		instance = server
	}

	client := mastodonLib.NewClient(&mastodonLib.Config{
		Server:      instance,
		AccessToken: accessToken,
	})
	client.Timeout = 30 * time.Second

	return &Publisher{client: client}
}

// VerifyCredentials returns the account name the access token belongs to.
func (p *Publisher) VerifyCredentials(ctx context.Context) (string, error) {
	account, err := p.client.GetAccountCurrentUser(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to verify mastodon credentials: %w", classify(err))
	}
	return account.Acct, nil
}

// Publish posts a status. An empty SpoilerText posts without a content warning.
func (p *Publisher) Publish(ctx context.Context, post Post) error {
	toot := &mastodonLib.Toot{
		Status:      post.Text,
		Visibility:  post.Visibility,
		SpoilerText: post.SpoilerText,
	}

	if _, err := p.client.PostStatus(ctx, toot); err != nil {
		return fmt.Errorf("failed to post status: %w", classify(err))
	}
	return nil
}

// classify wraps gateway and availability errors in ErrServiceUnavailable.
func classify(err error) error {
	var apiErr *mastodonLib.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
		}
	}
	return err
}
