//
// Date: 2025-12-15
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Spotify endpoints and defaults.
//

package spotify

import (
	"time"

	spotifyauth "github.com/zmb3/spotify/v2/auth"
)

const (
	DefaultTokenFile = ".spotify_token.json"

	// DefaultBaseURL is the Spotify Web API root.
	DefaultBaseURL = "https://api.spotify.com/v1/"

	currentlyPlayingPath = "me/player/currently-playing"
	requestTimeout       = 10 * time.Second
	state                = "spotify-toot-state"
)

// DefaultScopes are requested when the config does not name any.
var DefaultScopes = []string{
	spotifyauth.ScopeUserReadCurrentlyPlaying,
	spotifyauth.ScopeUserReadPlaybackState,
}
