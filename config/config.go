//
// Date: 2025-12-18
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Bot settings loaded from a YAML file, with credentials
// falling back to environment variables (and an optional .env file).
//

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/cloudmanic/spotify-toot/callback"
	"github.com/cloudmanic/spotify-toot/logging"
	"github.com/cloudmanic/spotify-toot/mastodon"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables consulted when a credential is missing from the file.
const (
	EnvSpotifyClientID     = "SPOTIFY_CLIENT_ID"
	EnvSpotifyClientSecret = "SPOTIFY_CLIENT_SECRET"
	EnvMastodonAccessToken = "MASTODON_ACCESS_TOKEN"
	EnvGeniusToken         = "GENIUS_TOKEN"
)

// ErrMissingConfig is returned when a required setting is empty.
var ErrMissingConfig = errors.New("missing required setting")

var validVisibility = map[string]bool{
	"public":   true,
	"unlisted": true,
	"private":  true,
	"direct":   true,
}

// Settings is the full bot configuration.
type Settings struct {
	LogLevel       string         `yaml:"loglevel"`
	Credentials    Credentials    `yaml:"credentials"`
	Callback       string         `yaml:"callback"`
	Scope          string         `yaml:"scope"`
	KeepAlive      bool           `yaml:"keepalive"`
	Hashtags       []string       `yaml:"hashtags"`
	PostText       string         `yaml:"post text"`
	Visibility     string         `yaml:"visibility"`
	ContentWarning ContentWarning `yaml:"Content Warning"`
}

// Credentials groups the per-service secrets.
type Credentials struct {
	Spotify  SpotifyCredentials  `yaml:"spotify"`
	Mastodon MastodonCredentials `yaml:"mastodon"`
	Genius   GeniusCredentials   `yaml:"lyrics genius"`
}

type SpotifyCredentials struct {
	ClientID     string `yaml:"client ID"`
	ClientSecret string `yaml:"client secret"`
}

type MastodonCredentials struct {
	Instance    string `yaml:"instance"`
	AccessToken string `yaml:"access token"`
}

type GeniusCredentials struct {
	Token string `yaml:"token"`
}

// ContentWarning controls the optional spoiler text attached to posts.
// Spoiler is a format template taking the song name.
type ContentWarning struct {
	Enabled bool   `yaml:"enabled"`
	Spoiler string `yaml:"spoiler"`
}

// Load reads the YAML file at path, backfills missing credentials from the
// environment and validates the result.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	return Parse(data)
}

// Parse decodes settings from YAML bytes, applies the environment fallback
// and validates.
func Parse(data []byte) (*Settings, error) {
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	s.applyEnv()

	if err := s.Validate(); err != nil {
		return nil, err
	}

	// Validate has already accepted the instance, so this cannot fail.
	s.Credentials.Mastodon.Instance, _ = mastodon.InstanceURL(s.Credentials.Mastodon.Instance)

	return &s, nil
}

// applyEnv fills empty credential fields from the environment.
func (s *Settings) applyEnv() {
	fallback(&s.Credentials.Spotify.ClientID, EnvSpotifyClientID)
	fallback(&s.Credentials.Spotify.ClientSecret, EnvSpotifyClientSecret)
	fallback(&s.Credentials.Mastodon.AccessToken, EnvMastodonAccessToken)
	fallback(&s.Credentials.Genius.Token, EnvGeniusToken)
}

func fallback(field *string, env string) {
	if *field == "" {
		*field = os.Getenv(env)
	}
}

// Validate checks the settings for values the bot cannot run without.
func (s *Settings) Validate() error {
	if _, err := logging.ParseLevel(s.LogLevel); err != nil {
		return fmt.Errorf("invalid loglevel %q: %w", s.LogLevel, err)
	}

	if s.Callback == "" {
		return fmt.Errorf("%w: callback", ErrMissingConfig)
	}
	if _, err := callback.ParseURL(s.Callback); err != nil {
		return err
	}

	if s.Credentials.Spotify.ClientID == "" || s.Credentials.Spotify.ClientSecret == "" {
		return fmt.Errorf("%w: spotify client ID and client secret (or %s and %s)",
			ErrMissingConfig, EnvSpotifyClientID, EnvSpotifyClientSecret)
	}
	if s.Credentials.Mastodon.Instance == "" {
		return fmt.Errorf("%w: mastodon instance", ErrMissingConfig)
	}
	if _, err := mastodon.InstanceURL(s.Credentials.Mastodon.Instance); err != nil {
		return err
	}
	if s.Credentials.Mastodon.AccessToken == "" {
		return fmt.Errorf("%w: mastodon access token (or %s)", ErrMissingConfig, EnvMastodonAccessToken)
	}

	if s.PostText == "" {
		return fmt.Errorf("%w: post text", ErrMissingConfig)
	}
	if rendered := fmt.Sprintf(s.PostText, "", "", "", ""); strings.Contains(rendered, "%!") {
		return fmt.Errorf("post text must take exactly four %%s slots (song, artist, link, hashtags): %q", s.PostText)
	}

	if s.ContentWarning.Enabled && s.ContentWarning.Spoiler != "" {
		if rendered := fmt.Sprintf(s.ContentWarning.Spoiler, ""); strings.Contains(rendered, "%!") {
			return fmt.Errorf("content warning spoiler must take exactly one %%s slot (song): %q", s.ContentWarning.Spoiler)
		}
	}

	if s.Visibility != "" && !validVisibility[s.Visibility] {
		return fmt.Errorf("invalid visibility %q (expected public, unlisted, private or direct)", s.Visibility)
	}

	return nil
}

// Scopes splits the configured scope string into individual scopes.
func (s *Settings) Scopes() []string {
	return strings.Fields(strings.ReplaceAll(s.Scope, ",", " "))
}

// Row is one key/value line of the settings summary.
type Row struct {
	Key   string
	Value string
}

// Summary returns the settings as display rows with secrets masked.
func (s *Settings) Summary() []Row {
	cw := "disabled"
	if s.ContentWarning.Enabled {
		cw = fmt.Sprintf("enabled (%q)", s.ContentWarning.Spoiler)
	}

	return []Row{
		{"loglevel", s.LogLevel},
		{"spotify client ID", mask(s.Credentials.Spotify.ClientID)},
		{"spotify client secret", mask(s.Credentials.Spotify.ClientSecret)},
		{"mastodon instance", s.Credentials.Mastodon.Instance},
		{"mastodon access token", mask(s.Credentials.Mastodon.AccessToken)},
		{"genius token", mask(s.Credentials.Genius.Token)},
		{"callback", s.Callback},
		{"scope", s.Scope},
		{"keepalive", fmt.Sprintf("%v", s.KeepAlive)},
		{"hashtags", strings.Join(s.Hashtags, ", ")},
		{"post text", fmt.Sprintf("%q", s.PostText)},
		{"visibility", s.Visibility},
		{"content warning", cw},
	}
}

// mask hides all but the first four characters of a secret.
func mask(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:4] + strings.Repeat("*", 8)
}
