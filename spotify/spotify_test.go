//
// Date: 2025-12-15
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Unit tests for the Spotify client and authorizer.
//

package spotify

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const playingJSON = `{
	"timestamp": 1700000000000,
	"progress_ms": 30000,
	"is_playing": true,
	"currently_playing_type": "track",
	"item": {
		"name": "X",
		"duration_ms": 90000,
		"artists": [{"name": "Y"}, {"name": "Z"}],
		"external_urls": {"spotify": "https://open.spotify.com/track/abc"}
	}
}`

// testLogger returns a logger that discards output.
func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// newTestClient returns a client pointed at the given test server.
func newTestClient(server *httptest.Server) *Client {
	return NewClient(server.Client(), server.URL+"/v1/", testLogger())
}

// TestCurrentlyPlaying_Playing tests decoding of a playing track.
func TestCurrentlyPlaying_Playing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/me/player/currently-playing" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(playingJSON))
	}))
	defer server.Close()

	snap, err := newTestClient(server).CurrentlyPlaying(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if snap.Synthetic {
		t.Error("expected a real snapshot")
	}
	if snap.IsPlaying == nil || !*snap.IsPlaying {
		t.Error("expected is_playing true")
	}
	if snap.ProgressMs == nil || *snap.ProgressMs != 30000 {
		t.Errorf("unexpected progress %v", snap.ProgressMs)
	}
	if snap.CurrentlyPlayingType != "track" {
		t.Errorf("unexpected type %s", snap.CurrentlyPlayingType)
	}
	if snap.Item == nil {
		t.Fatal("expected item")
	}
	if snap.Item.Name != "X" || snap.Item.PrimaryArtist() != "Y" || snap.Item.DurationMs != 90000 {
		t.Errorf("unexpected item %+v", snap.Item)
	}
	if snap.Item.URL() != "https://open.spotify.com/track/abc" {
		t.Errorf("unexpected url %s", snap.Item.URL())
	}
}

// TestCurrentlyPlaying_MissingProgress tests that a missing progress_ms stays nil.
func TestCurrentlyPlaying_MissingProgress(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"is_playing": true, "currently_playing_type": "track", "item": null}`))
	}))
	defer server.Close()

	snap, err := newTestClient(server).CurrentlyPlaying(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Synthetic {
		t.Error("expected a real snapshot")
	}
	if snap.ProgressMs != nil {
		t.Errorf("expected nil progress, got %d", *snap.ProgressMs)
	}
	if snap.Item != nil {
		t.Error("expected nil item")
	}
}

// TestCurrentlyPlaying_Placeholder tests every response that degrades to the placeholder.
func TestCurrentlyPlaying_Placeholder(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "no content",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			},
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusBadGateway)
			},
		},
		{
			name: "unauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error":{"status":401}}`, http.StatusUnauthorized)
			},
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"is_playing": tru`))
			},
		},
		{
			name: "missing is_playing",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"progress_ms": 1000}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			snap, err := newTestClient(server).CurrentlyPlaying(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			assertPlaceholder(t, snap)
		})
	}
}

// TestCurrentlyPlaying_Unreachable tests the placeholder on a connection error.
func TestCurrentlyPlaying_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := newTestClient(server)
	server.Close()

	snap, err := client.CurrentlyPlaying(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertPlaceholder(t, snap)
}

// TestCurrentlyPlaying_Cancelled tests that a cancelled context is reported.
func TestCurrentlyPlaying_Cancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(playingJSON))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newTestClient(server).CurrentlyPlaying(ctx); err == nil {
		t.Error("expected error for cancelled context")
	}
}

// assertPlaceholder checks that snap is the not-playing placeholder.
func assertPlaceholder(t *testing.T, snap Snapshot) {
	t.Helper()

	if !snap.Synthetic {
		t.Error("expected synthetic snapshot")
	}
	if snap.IsPlaying == nil || *snap.IsPlaying {
		t.Error("expected is_playing false")
	}
	if snap.ProgressMs == nil || *snap.ProgressMs != PlaceholderProgressMs {
		t.Errorf("expected progress %d", PlaceholderProgressMs)
	}
}

// TestPrimaryArtist_NoArtists tests the empty artist list.
func TestPrimaryArtist_NoArtists(t *testing.T) {
	track := &TrackInfo{Name: "X"}
	if track.PrimaryArtist() != "" {
		t.Errorf("expected empty artist, got %s", track.PrimaryArtist())
	}
}

// newTestAuthorizer returns an authorizer using a temporary token file.
func newTestAuthorizer(t *testing.T, in string) (*Authorizer, *bytes.Buffer) {
	t.Helper()

	out := &bytes.Buffer{}
	a := NewAuthorizer(
		"client-id",
		"client-secret",
		"http://localhost:9999/callback",
		nil,
		filepath.Join(t.TempDir(), "token.json"),
		strings.NewReader(in),
		out,
		testLogger(),
	)
	return a, out
}

// TestSaveAndLoadToken tests token persistence.
func TestSaveAndLoadToken(t *testing.T) {
	a, _ := newTestAuthorizer(t, "")

	testToken := &oauth2.Token{
		AccessToken:  "test-access-token",
		TokenType:    "Bearer",
		RefreshToken: "test-refresh-token",
	}

	if err := a.SaveToken(testToken); err != nil {
		t.Fatalf("failed to save token: %v", err)
	}

	info, err := os.Stat(a.tokenFile)
	if err != nil {
		t.Fatalf("token file was not created: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("expected token file mode 0600, got %v", info.Mode().Perm())
	}

	loaded, err := a.LoadToken()
	if err != nil {
		t.Fatalf("failed to load token: %v", err)
	}
	if loaded.AccessToken != testToken.AccessToken {
		t.Errorf("expected access token %s, got %s", testToken.AccessToken, loaded.AccessToken)
	}
	if loaded.RefreshToken != testToken.RefreshToken {
		t.Errorf("expected refresh token %s, got %s", testToken.RefreshToken, loaded.RefreshToken)
	}
}

// TestLoadToken_Missing tests loading when no token file exists.
func TestLoadToken_Missing(t *testing.T) {
	a, _ := newTestAuthorizer(t, "")

	if _, err := a.LoadToken(); err == nil {
		t.Error("expected error, got nil")
	}
}

// TestLoadToken_Empty tests that an empty token is rejected.
func TestLoadToken_Empty(t *testing.T) {
	a, _ := newTestAuthorizer(t, "")

	if err := os.WriteFile(a.tokenFile, []byte(`{}`), 0o600); err != nil {
		t.Fatalf("failed to write token: %v", err)
	}
	if _, err := a.LoadToken(); err == nil {
		t.Error("expected error, got nil")
	}
}

// TestToken_UsesSavedToken tests that a saved token skips the interactive flow.
func TestToken_UsesSavedToken(t *testing.T) {
	a, out := newTestAuthorizer(t, "")

	if err := a.SaveToken(&oauth2.Token{AccessToken: "saved", RefreshToken: "refresh"}); err != nil {
		t.Fatalf("failed to save token: %v", err)
	}

	tok, err := a.Token(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.AccessToken != "saved" {
		t.Errorf("expected saved token, got %s", tok.AccessToken)
	}
	if out.Len() != 0 {
		t.Errorf("expected no prompt, got %q", out.String())
	}
}

// TestAuthorize_PromptsWithAuthURL tests the prompt and a state mismatch.
func TestAuthorize_PromptsWithAuthURL(t *testing.T) {
	a, out := newTestAuthorizer(t, "http://localhost:9999/callback?code=abc&state=wrong\n")

	_, err := a.Authorize(context.Background())
	if err == nil {
		t.Fatal("expected state mismatch error, got nil")
	}

	prompt := out.String()
	if !strings.Contains(prompt, "https://accounts.spotify.com/authorize") {
		t.Errorf("expected authorize URL in prompt, got %q", prompt)
	}
	if !strings.Contains(prompt, "client_id=client-id") {
		t.Errorf("expected client id in prompt, got %q", prompt)
	}
}

// TestExchange_Errors tests redirect URLs that cannot yield a token.
func TestExchange_Errors(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"access denied", "http://localhost:9999/callback?error=access_denied&state=" + state},
		{"missing code", "http://localhost:9999/callback?state=" + state},
		{"state mismatch", "http://localhost:9999/callback?code=abc&state=other"},
		{"not a url", "://nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := newTestAuthorizer(t, "")
			if _, err := a.Exchange(context.Background(), tt.url); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

// TestAuthorize_NoInput tests that an empty stdin fails.
func TestAuthorize_NoInput(t *testing.T) {
	a, _ := newTestAuthorizer(t, "")

	if _, err := a.Authorize(context.Background()); err == nil {
		t.Error("expected error, got nil")
	}
}
