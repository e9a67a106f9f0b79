//
// Date: 2025-12-15
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Authentication logic for Spotify OAuth flow.
//

package spotify

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	spotifyauth "github.com/zmb3/spotify/v2/auth"
)

// Authorizer obtains and persists the user's Spotify token.
type Authorizer struct {
	auth      *spotifyauth.Authenticator
	tokenFile string
	in        io.Reader
	out       io.Writer
	log       logrus.FieldLogger
}

// NewAuthorizer creates an authorizer whose redirect URL is the bot's
// callback endpoint. The interactive flow prompts on out and reads from in.
func NewAuthorizer(clientID, clientSecret, redirectURI string, scopes []string, tokenFile string, in io.Reader, out io.Writer, log logrus.FieldLogger) *Authorizer {
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	if tokenFile == "" {
		tokenFile = DefaultTokenFile
	}

	return &Authorizer{
		auth: spotifyauth.New(
			spotifyauth.WithClientID(clientID),
			spotifyauth.WithClientSecret(clientSecret),
			spotifyauth.WithRedirectURL(redirectURI),
			spotifyauth.WithScopes(scopes...),
		),
		tokenFile: tokenFile,
		in:        in,
		out:       out,
		log:       log,
	}
}

// Token returns a saved token if there is one, otherwise runs the
// interactive authorization and saves the result.
func (a *Authorizer) Token(ctx context.Context) (*oauth2.Token, error) {
	tok, err := a.LoadToken()
	if err == nil {
		return tok, nil
	}
	a.log.Debugf("No usable saved token (%v), starting authorization", err)

	tok, err = a.Authorize(ctx)
	if err != nil {
		return nil, err
	}

	if err := a.SaveToken(tok); err != nil {
		a.log.Warnf("Failed to save token: %v", err)
	}
	return tok, nil
}

// Authorize prints the Spotify authorization URL and waits for the user to
// paste the URL they were redirected to, then exchanges its code.
func (a *Authorizer) Authorize(ctx context.Context) (*oauth2.Token, error) {
	fmt.Fprintln(a.out, "Please visit this URL to authenticate:")
	fmt.Fprintln(a.out, a.auth.AuthURL(state))
	fmt.Fprint(a.out, "Paste the URL you were redirected to: ")

	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return nil, fmt.Errorf("failed to read redirect URL: %w", err)
	}

	return a.Exchange(ctx, strings.TrimSpace(line))
}

// Exchange trades the code in a redirect URL for a token, checking state.
func (a *Authorizer) Exchange(ctx context.Context, redirectURL string) (*oauth2.Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, redirectURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect URL: %w", err)
	}

	tok, err := a.auth.Token(ctx, state, req)
	if err != nil {
		return nil, fmt.Errorf("couldn't get token: %w", err)
	}
	return tok, nil
}

// HTTPClient returns an HTTP client that authorizes requests with tok and
// refreshes it when it expires.
func (a *Authorizer) HTTPClient(ctx context.Context, tok *oauth2.Token) *http.Client {
	return a.auth.Client(ctx, tok)
}

// SaveToken saves the OAuth token to a file for reuse in future sessions.
func (a *Authorizer) SaveToken(token *oauth2.Token) error {
	file, err := os.OpenFile(a.tokenFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer file.Close()

	return json.NewEncoder(file).Encode(token)
}

// LoadToken reads a previously saved OAuth token from disk.
func (a *Authorizer) LoadToken() (*oauth2.Token, error) {
	file, err := os.Open(a.tokenFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var token oauth2.Token
	if err := json.NewDecoder(file).Decode(&token); err != nil {
		return nil, err
	}

	if token.AccessToken == "" && token.RefreshToken == "" {
		return nil, errors.New("saved token is empty")
	}

	return &token, nil
}
