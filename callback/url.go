//
// Date: 2025-12-18
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Parsing of the OAuth redirect URL the listener serves.
//

package callback

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const localPrefix = "http://localhost"

// ErrMalformedCallback is returned when the callback URL is not of the form
// http://localhost:<port>/<route>.
var ErrMalformedCallback = errors.New("malformed callback URL (expected http://localhost:9999/route)")

// Endpoint is the parsed form of a callback URL.
type Endpoint struct {
	Port  int
	Route string
}

// Addr returns the host:port the listener binds to.
func (e Endpoint) Addr() string {
	return fmt.Sprintf("localhost:%d", e.Port)
}

// Path returns the request path that receives the placeholder payload.
func (e Endpoint) Path() string {
	return "/" + e.Route
}

// ParseURL splits a callback URL into its port and route.
func ParseURL(raw string) (Endpoint, error) {
	if !strings.HasPrefix(raw, localPrefix) {
		return Endpoint{}, fmt.Errorf("%w: %q", ErrMalformedCallback, raw)
	}

	portAndRoute := strings.TrimPrefix(raw, localPrefix+":")
	parts := strings.Split(portAndRoute, "/")
	if len(parts) != 2 {
		return Endpoint{}, fmt.Errorf("%w: %q", ErrMalformedCallback, raw)
	}

	port, err := strconv.Atoi(parts[0])
	if err != nil || port < 0 || port > 65535 {
		return Endpoint{}, fmt.Errorf("%w: invalid port in %q", ErrMalformedCallback, raw)
	}

	return Endpoint{Port: port, Route: parts[1]}, nil
}
