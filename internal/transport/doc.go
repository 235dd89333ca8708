// Package transport builds the HTTP client used to download audited pages.
//
// By default requests go out directly. A SOCKS5 proxy can be configured
// for networks where the audited site is only reachable through one; the
// proxy is verified with a bare SOCKS5 handshake before any page is
// requested so that a wrong address fails fast instead of once per URL.
package transport
