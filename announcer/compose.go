//
// Date: 2025-12-18
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Rendering of the announcement text and content warning.
//

package announcer

import (
	"fmt"
	"strings"

	"github.com/cloudmanic/spotify-toot/config"
)

// HashtagBlock renders each tag as "#tag" on its own line.
func HashtagBlock(tags []string) string {
	var b strings.Builder
	for _, tag := range tags {
		b.WriteString("#")
		b.WriteString(tag)
		b.WriteString("\n")
	}
	return b.String()
}

// Compose fills the post template's four slots: song, artist, link, hashtags.
func Compose(template, song, artist, link string, tags []string) string {
	return fmt.Sprintf(template, song, artist, link, HashtagBlock(tags))
}

// Spoiler renders the content warning for a song, or "" when content
// warnings are disabled.
func Spoiler(cw config.ContentWarning, song string) string {
	if !cw.Enabled || cw.Spoiler == "" {
		return ""
	}
	return fmt.Sprintf(cw.Spoiler, song)
}
