//
// Date: 2025-12-18
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Mastodon bot that posts the song currently playing on your
// Spotify account. It authenticates with both services, keeps the Spotify
// OAuth callback endpoint up, and announces each new track as it starts.
//

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudmanic/spotify-toot/announcer"
	"github.com/cloudmanic/spotify-toot/callback"
	"github.com/cloudmanic/spotify-toot/config"
	"github.com/cloudmanic/spotify-toot/logging"
	"github.com/cloudmanic/spotify-toot/mastodon"
	"github.com/cloudmanic/spotify-toot/songlink"
	"github.com/cloudmanic/spotify-toot/spotify"
	"github.com/sirupsen/logrus"
)

// main is the entry point for the application.
func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout))
}

// run parses flags, wires the components and returns the process exit code.
func run(args []string, stdin io.Reader, stdout io.Writer) int {
	fs := flag.NewFlagSet("spotify-toot", flag.ContinueOnError)
	configPath := fs.String("config", "", "The YAML configuration file (required)")
	tokenFile := fs.String("token-file", spotify.DefaultTokenFile, "Where the Spotify OAuth token is cached")
	check := fs.Bool("check", false, "Print the resolved settings and exit")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *configPath == "" {
		fmt.Fprintln(fs.Output(), "-config is required")
		fs.Usage()
		return 1
	}

	// Log at info until the configured level is known.
	logger, _ := logging.New("", stdout)

	settings, err := config.Load(*configPath)
	if err != nil {
		logger.Errorf("Failed to load config: %v", err)
		return 1
	}

	if *check {
		printSettingsTable(stdout, settings)
		return 0
	}

	level, err := logging.ParseLevel(settings.LogLevel)
	if err != nil {
		logger.Errorf("Failed to set up logging: %v", err)
		return 1
	}
	logger.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	endpoint, err := callback.ParseURL(settings.Callback)
	if err != nil {
		logger.Errorf("Failed to get callback URL: %v", err)
		return 1
	}

	// The listener must be up before authorizing so Spotify's redirect lands.
	listener := callback.New(endpoint, logger)
	if err := listener.Start(ctx); err != nil {
		logger.Errorf("Callback service failed to start and serve: %v", err)
		return 1
	}
	defer listener.Stop()

	logger.Info("Authenticating on Spotify")
	spotifyClient, err := authenticateSpotify(ctx, settings, *tokenFile, stdin, stdout, logger)
	if err != nil {
		logger.Errorf("Spotify authentication failed: %v", err)
		return 1
	}

	logger.Info("Authenticating on Mastodon")
	publisher := mastodon.New(settings.Credentials.Mastodon.Instance, settings.Credentials.Mastodon.AccessToken)
	if acct, err := publisher.VerifyCredentials(ctx); err != nil {
		logger.Warnf("Could not verify Mastodon account: %v", err)
	} else {
		logger.Infof("Posting as: %s", acct)
	}

	links := songlink.New("", logger)

	bot := announcer.New(settings, spotifyClient, publisher, links, listener, logger)
	if err := bot.Run(ctx); err != nil {
		logger.Errorf("Exiting: %v", err)
		return 1
	}
	return 0
}

// authenticateSpotify returns a client for the saved or freshly authorized
// token. A saved token that no longer works triggers re-authorization.
func authenticateSpotify(ctx context.Context, settings *config.Settings, tokenFile string, stdin io.Reader, stdout io.Writer, logger logrus.FieldLogger) (*spotify.Client, error) {
	authorizer := spotify.NewAuthorizer(
		settings.Credentials.Spotify.ClientID,
		settings.Credentials.Spotify.ClientSecret,
		settings.Callback,
		settings.Scopes(),
		tokenFile,
		stdin,
		stdout,
		logger,
	)

	tok, err := authorizer.Token(ctx)
	if err != nil {
		return nil, err
	}

	client := spotify.NewClient(authorizer.HTTPClient(ctx, tok), "", logger)

	user, err := client.CurrentUser(ctx)
	if err != nil {
		logger.Warnf("Token may be expired, re-authenticating: %v", err)

		tok, err = authorizer.Authorize(ctx)
		if err != nil {
			return nil, err
		}
		if err := authorizer.SaveToken(tok); err != nil {
			logger.Warnf("Failed to save token: %v", err)
		}

		client = spotify.NewClient(authorizer.HTTPClient(ctx, tok), "", logger)
		if user, err = client.CurrentUser(ctx); err != nil {
			return nil, err
		}
	}

	logger.Infof("Authenticated as: %s", user)
	return client, nil
}
