package pia

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
)

// HostnameFromConfig extracts the tunnel endpoint hostname from an OpenVPN
// or WireGuard config file. The hostname is what the handshake validates the
// pinned TLS connection against.
func HostnameFromConfig(path string, proto Protocol) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read tunnel config: %w", err)
	}
	switch proto {
	case ProtocolOpenVPN:
		return openvpnRemote(string(b))
	case ProtocolWireguard:
		return wireguardEndpoint(string(b))
	default:
		return "", fmt.Errorf("unsupported protocol %q", proto)
	}
}

// openvpnRemote finds the first `remote <host> [port]` directive.
func openvpnRemote(conf string) (string, error) {
	for _, line := range strings.Split(conf, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[0] == "remote" {
			return fields[1], nil
		}
	}
	return "", fmt.Errorf("no remote directive in openvpn config")
}

// wireguardEndpoint finds the `Endpoint = host:port` line and strips the port.
func wireguardEndpoint(conf string) (string, error) {
	for _, line := range strings.Split(conf, "\n") {
		k, v, ok := strings.Cut(line, "=")
		if !ok || strings.TrimSpace(k) != "Endpoint" {
			continue
		}
		ep := strings.TrimSpace(v)
		if host, _, err := net.SplitHostPort(ep); err == nil {
			return host, nil
		}
		return ep, nil
	}
	return "", fmt.Errorf("no Endpoint in wireguard config")
}

// LoadCredentials reads an OpenVPN auth-user-pass style file: username on
// the first non-empty line, password on the second. The values are used once
// for token exchange and must not be retained or logged.
func LoadCredentials(path string) (user, pass string, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("%w: read auth file: %v", ErrAuth, err)
	}
	var vals []string
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			vals = append(vals, line)
		}
		if len(vals) == 2 {
			break
		}
	}
	if len(vals) < 2 {
		return "", "", fmt.Errorf("%w: auth file needs username and password lines", ErrAuth)
	}
	return vals[0], vals[1], nil
}

// CACertPath resolves the provider CA bundle. An explicit override wins;
// otherwise the user config dir is searched.
func CACertPath(override string) (string, error) {
	if override != "" {
		if _, err := os.Stat(override); err != nil {
			return "", fmt.Errorf("ca cert not readable: %w", err)
		}
		return override, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	p := filepath.Join(dir, "fwdlease", "ca.rsa.4096.crt")
	if _, err := os.Stat(p); err != nil {
		return "", fmt.Errorf("ca cert not found at %s: %w", p, err)
	}
	return p, nil
}
