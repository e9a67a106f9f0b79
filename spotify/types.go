//
// Date: 2025-12-15
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Playback snapshot types decoded from the currently-playing endpoint.
//

package spotify

// PlaceholderProgressMs is the progress reported by the placeholder snapshot.
const PlaceholderProgressMs = 60000

// Artist is a track artist.
type Artist struct {
	Name string `json:"name"`
}

// TrackInfo is the playing item.
type TrackInfo struct {
	Name         string            `json:"name"`
	Artists      []Artist          `json:"artists"`
	DurationMs   int64             `json:"duration_ms"`
	ExternalURLs map[string]string `json:"external_urls"`
}

// PrimaryArtist returns the first listed artist, or "" if there is none.
func (t *TrackInfo) PrimaryArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0].Name
}

// URL returns the track's Spotify link.
func (t *TrackInfo) URL() string {
	return t.ExternalURLs["spotify"]
}

// Snapshot is one currently-playing response. Pointer fields are nil when
// the response omitted them.
type Snapshot struct {
	IsPlaying            *bool      `json:"is_playing"`
	ProgressMs           *int64     `json:"progress_ms"`
	Item                 *TrackInfo `json:"item"`
	CurrentlyPlayingType string     `json:"currently_playing_type"`

	// Synthetic is set on the placeholder substituted for a failed fetch.
	Synthetic bool `json:"-"`
}

// Placeholder returns the "not playing" snapshot used when the real query
// fails or returns nothing usable.
func Placeholder() Snapshot {
	playing := false
	progress := int64(PlaceholderProgressMs)

	return Snapshot{
		IsPlaying:  &playing,
		ProgressMs: &progress,
		Synthetic:  true,
	}
}
