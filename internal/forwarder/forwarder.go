// Package forwarder maintains provider-granted inbound port forwards for VPN
// tunnels running in network namespaces. A Forwarder owns one background
// worker that renews the lease on a fixed cadence until stopped; the
// lifecycle skeleton is generic so further provider backends only supply a
// parameters value and a renew function.
package forwarder

import (
	"errors"
	"time"
)

// DefaultRenewInterval is the provider lease-renewal window. The lease is
// reclaimed if not renewed within it.
const DefaultRenewInterval = 15 * time.Minute

// ErrCallback indicates the configured callback command exited non-zero.
// Callback failures are logged, never fatal to the session.
var ErrCallback = errors.New("callback command failed")

// Forwarder exposes a currently active forwarded port backed by a maintained
// background lease.
type Forwarder interface {
	// ForwardedPort returns the stable forwarded port. Valid from the
	// moment construction succeeds; renewals reconfirm the lease but never
	// change the value. If the provider silently reclaims the lease after
	// repeated renewal failures the value can go stale; that tradeoff keeps
	// the loop resilient and is visible through logs and metrics.
	ForwardedPort() uint16
	// Stop signals cancellation and blocks until the worker has exited.
	// Safe to call more than once. Latency is bounded by whatever external
	// call is in flight (handshake timeout, or an unbounded callback).
	Stop()
}
