// Package pia implements the Private Internet Access collaborator pieces:
// tunnel config parsing, credential loading, account token exchange, and the
// getSignature/bindPort handshake spoken through the tunnel namespace.
//
// Handshake requests never go to a DNS-resolved address. They are pinned to
// the first-hop gateway discovered inside the namespace while still
// validating the server certificate against the tunnel hostname, so traffic
// cannot leak outside the tunnel.
package pia

import "errors"

// Protocol selects which tunnel config format to read.
type Protocol string

const (
	ProtocolOpenVPN   Protocol = "openvpn"
	ProtocolWireguard Protocol = "wireguard"
)

var (
	// ErrAuth indicates credential loading or token exchange failed.
	ErrAuth = errors.New("pia: authentication failed")
	// ErrAPIProtocol indicates a non-OK status or malformed response body.
	ErrAPIProtocol = errors.New("pia: unexpected API response")
	// ErrNetwork indicates a transport-level failure or timeout.
	ErrNetwork = errors.New("pia: network failure")
)
