package main

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// errInvalidTarget is returned for arguments that are not http(s) URLs.
var errInvalidTarget = errors.New("invalid target URL")

// normalizeTarget turns a command line argument into an absolute http(s) URL.
// A missing scheme defaults to https, and a missing path becomes "/", so that
// "example.com" and "https://example.com/" share one history.
func normalizeTarget(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty", errInvalidTarget)
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errInvalidTarget, err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", errInvalidTarget, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host in %q", errInvalidTarget, raw)
	}
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}
	u.Fragment = ""
	return u.String(), nil
}
