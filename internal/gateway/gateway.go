// Package gateway discovers the first-hop gateway of a VPN tunnel running
// inside a network namespace.
package gateway

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/tlind/fwdlease/internal/netns"
	"github.com/tlind/fwdlease/internal/obs"
)

// ErrDiscovery indicates the gateway address could not be extracted.
var ErrDiscovery = errors.New("gateway discovery failed")

var ipv4Re = regexp.MustCompile(`\b\d{1,3}(?:\.\d{1,3}){3}\b`)

// Discover runs a single-hop trace to host inside the namespace and returns
// the first-hop IPv4 address. The first hop is the tunnel gateway; reading it
// from a trace is more portable than routing-table introspection.
func Discover(r netns.Runner, namespace, host string) (string, error) {
	if err := netns.CheckTools(r, "traceroute"); err != nil {
		return "", err
	}
	start := time.Now()
	res, err := r.Run(namespace, "traceroute", "-n", "-m", "1", host)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDiscovery, err)
	}
	obs.DiscoverySeconds.Observe(time.Since(start).Seconds())
	if !res.Success() {
		return "", fmt.Errorf("%w: traceroute exited %d: %s", ErrDiscovery, res.ExitCode, strings.TrimSpace(string(res.Stderr)))
	}
	// The gateway sits on the second output line (line 0 is the header).
	lines := strings.Split(string(res.Stdout), "\n")
	if len(lines) < 2 {
		return "", fmt.Errorf("%w: traceroute produced %d line(s), need the first hop on line 2", ErrDiscovery, len(lines))
	}
	gw := ipv4Re.FindString(lines[1])
	if gw == "" {
		return "", fmt.Errorf("%w: no IPv4 address on first-hop line %q", ErrDiscovery, strings.TrimSpace(lines[1]))
	}
	obs.Debug("gateway.discovered", obs.Fields{"namespace": namespace, "gateway": gw})
	return gw, nil
}
