//
// Date: 2025-12-18
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: The polling loop. Each cycle fetches playback state, decides
// whether the track changed, posts an announcement, and sleeps until the
// track should be over.
//

package announcer

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/cloudmanic/spotify-toot/config"
	"github.com/cloudmanic/spotify-toot/mastodon"
	"github.com/cloudmanic/spotify-toot/spotify"
	"github.com/sirupsen/logrus"
)

const (
	// FixedInterval is the wait used when there is no track to time against.
	FixedInterval = 60 * time.Second

	// minWait bounds the adaptive wait when progress overshoots duration.
	minWait = time.Second

	trackType = "track"
)

// ErrCallbackDead is returned when the callback listener has stopped serving.
var ErrCallbackDead = errors.New("callback server not running")

// errIdle signals nothing is playing and keep-alive is off.
var errIdle = errors.New("nothing playing and keepalive disabled")

// PlaybackSource returns the current playback snapshot.
type PlaybackSource interface {
	CurrentlyPlaying(ctx context.Context) (spotify.Snapshot, error)
}

// Publisher posts a status.
type Publisher interface {
	Publish(ctx context.Context, post mastodon.Post) error
}

// LinkResolver turns a track URL into the link placed in the post.
type LinkResolver interface {
	Resolve(ctx context.Context, trackURL string) string
}

// Listener is the callback server the announcer depends on.
type Listener interface {
	Done() <-chan struct{}
	Stop()
	Wait()
}

// Announcer runs the poll/announce loop.
type Announcer struct {
	settings  *config.Settings
	source    PlaybackSource
	publisher Publisher
	links     LinkResolver
	listener  Listener
	log       logrus.FieldLogger
	sleep     func(ctx context.Context, d time.Duration) error

	lastSong string
	hasLast  bool
}

// New creates an announcer. The listener must already be started.
func New(settings *config.Settings, source PlaybackSource, publisher Publisher, links LinkResolver, listener Listener, log logrus.FieldLogger) *Announcer {
	return &Announcer{
		settings:  settings,
		source:    source,
		publisher: publisher,
		links:     links,
		listener:  listener,
		log:       log,
		sleep:     sleepContext,
	}
}

// LastSong returns the most recently announced track name.
func (a *Announcer) LastSong() (string, bool) {
	return a.lastSong, a.hasLast
}

// Run loops until nothing is playing with keep-alive off, ctx is cancelled,
// or the listener dies. The first two stop the listener and return nil;
// the last returns ErrCallbackDead.
func (a *Announcer) Run(ctx context.Context) error {
	for {
		wait, err := a.Step(ctx)
		switch {
		case errors.Is(err, ErrCallbackDead):
			return err
		case errors.Is(err, errIdle):
			a.shutdown()
			return nil
		case err != nil:
			a.log.Infof("Stopping: %v", err)
			a.shutdown()
			return nil
		}

		if err := a.sleep(ctx, wait); err != nil {
			a.log.Infof("Stopping: %v", err)
			a.shutdown()
			return nil
		}
	}
}

// Step runs one cycle and returns how long to wait before the next one.
func (a *Announcer) Step(ctx context.Context) (time.Duration, error) {
	snap, err := a.source.CurrentlyPlaying(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		a.log.Debugf("Playback fetch failed, using placeholder: %v", err)
		snap = spotify.Placeholder()
	}
	a.log.WithField("synthetic", snap.Synthetic).Debugf("snapshot: %s", describe(snap))

	if snap.IsPlaying == nil {
		a.log.Error(`Missing entry "is_playing"`)
		return FixedInterval, nil
	}

	if snap.ProgressMs == nil {
		a.log.Warn(`Missing entry for "progress_ms"`)
		return FixedInterval, nil
	}

	if !*snap.IsPlaying {
		a.log.Error("Spotify isn't active right now...")
		if !a.settings.KeepAlive {
			return 0, errIdle
		}
		return FixedInterval, nil
	}

	if snap.Item == nil {
		a.log.Warn(`"item" is empty (null)`)
		return FixedInterval, nil
	}

	wait := Remaining(snap.Item.DurationMs, *snap.ProgressMs)

	if snap.CurrentlyPlayingType != trackType {
		a.log.Infof("Not music playing: %s", snap.CurrentlyPlayingType)
		return wait, nil
	}

	song := snap.Item.Name
	if a.hasLast && a.lastSong == song {
		a.log.Warnf("Current song is the same as last song: %s", a.lastSong)
		return wait, nil
	}

	// A shutdown signal also stops the listener; report it as cancellation.
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if !a.listenerAlive() {
		a.log.Error("Callback server not running - exiting")
		return 0, ErrCallbackDead
	}

	a.log.Infof("sending update to mastodon: %s", song)

	link := a.links.Resolve(ctx, snap.Item.URL())
	message := Compose(a.settings.PostText, song, snap.Item.PrimaryArtist(), link, a.settings.Hashtags)

	a.log.Debugf("Posting: %s", message)
	a.publish(ctx, message, song)

	a.log.Infof("next song in %s", wait)
	a.lastSong = song
	a.hasLast = true

	return wait, nil
}

// publish posts the message. Failures are logged and never retried.
func (a *Announcer) publish(ctx context.Context, message, song string) {
	err := a.publisher.Publish(ctx, mastodon.Post{
		Text:        message,
		Visibility:  a.settings.Visibility,
		SpoilerText: Spoiler(a.settings.ContentWarning, song),
	})

	switch {
	case errors.Is(err, mastodon.ErrServiceUnavailable):
		a.log.Errorf("Failed to post on mastodon: %v", err)
	case err != nil:
		a.log.Errorf("Failed to post on mastodon (not retried): %v", err)
	}
}

// listenerAlive reports whether the callback server is still serving.
func (a *Announcer) listenerAlive() bool {
	select {
	case <-a.listener.Done():
		return false
	default:
		return true
	}
}

// shutdown stops the listener and waits for it to exit.
func (a *Announcer) shutdown() {
	a.listener.Stop()
	a.listener.Wait()
}

// Remaining is the time left in the track, used as the next poll delay.
func Remaining(durationMs, progressMs int64) time.Duration {
	wait := time.Duration(durationMs-progressMs) * time.Millisecond
	if wait < minWait {
		return minWait
	}
	return wait
}

// describe renders the interesting snapshot fields for debug logging.
func describe(snap spotify.Snapshot) string {
	playing, progress, name := "<absent>", "<absent>", "<none>"
	if snap.IsPlaying != nil {
		playing = strconv.FormatBool(*snap.IsPlaying)
	}
	if snap.ProgressMs != nil {
		progress = (time.Duration(*snap.ProgressMs) * time.Millisecond).String()
	}
	if snap.Item != nil {
		name = snap.Item.Name
	}
	return "is_playing=" + playing + " progress=" + progress + " type=" + snap.CurrentlyPlayingType + " item=" + name
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
