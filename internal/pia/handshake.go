package pia

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tlind/fwdlease/internal/netns"
)

const (
	apiPort = "19999"
	// curlTimeout bounds each handshake request (curl -m, seconds).
	curlTimeout = "5"
)

// Signature holds the authorization artifacts issued once per session by
// getSignature. Signature and Payload are presented unchanged on every
// bindPort call; Port is the forwarded port decoded from the payload.
type Signature struct {
	Signature string
	Payload   string
	Port      uint16
}

// GetSignature performs the first handshake call inside the namespace. The
// connection is pinned to the discovered gateway IP via curl --connect-to
// while the certificate is still validated against hostname using the
// provider CA bundle.
func GetSignature(r netns.Runner, namespace, hostname, gatewayIP, caCert, token string) (Signature, error) {
	res, err := r.Run(namespace,
		"curl", "-s", "-m", curlTimeout,
		"--connect-to", pinArg(hostname, gatewayIP),
		"--cacert", caCert,
		"-G", "--data-urlencode", "token="+token,
		"https://"+hostname+":"+apiPort+"/getSignature",
	)
	if err != nil {
		return Signature{}, fmt.Errorf("%w: getSignature: %v", ErrNetwork, err)
	}
	if !res.Success() {
		return Signature{}, fmt.Errorf("%w: getSignature: curl exited %d: %s", ErrNetwork, res.ExitCode, strings.TrimSpace(string(res.Stderr)))
	}
	var body struct {
		Status    string `json:"status"`
		Signature string `json:"signature"`
		Payload   string `json:"payload"`
	}
	if err := json.Unmarshal(res.Stdout, &body); err != nil {
		return Signature{}, fmt.Errorf("%w: getSignature body: %v", ErrAPIProtocol, err)
	}
	if body.Status != "OK" {
		return Signature{}, fmt.Errorf("%w: getSignature status %q", ErrAPIProtocol, body.Status)
	}
	if body.Signature == "" || body.Payload == "" {
		return Signature{}, fmt.Errorf("%w: getSignature missing signature or payload", ErrAPIProtocol)
	}
	port, err := portFromPayload(body.Payload)
	if err != nil {
		return Signature{}, err
	}
	return Signature{Signature: body.Signature, Payload: body.Payload, Port: port}, nil
}

// BindPort performs (or repeats) the bind call that claims the lease. It is
// idempotent for a fixed signature/payload pair.
func BindPort(r netns.Runner, namespace, hostname, gatewayIP, caCert, payload, signature string) error {
	res, err := r.Run(namespace,
		"curl", "-Gs", "-m", curlTimeout,
		"--connect-to", pinArg(hostname, gatewayIP),
		"--cacert", caCert,
		"--data-urlencode", "payload="+payload,
		"--data-urlencode", "signature="+signature,
		"https://"+hostname+":"+apiPort+"/bindPort",
	)
	if err != nil {
		return fmt.Errorf("%w: bindPort: %v", ErrNetwork, err)
	}
	if !res.Success() {
		return fmt.Errorf("%w: bindPort: curl exited %d: %s", ErrNetwork, res.ExitCode, strings.TrimSpace(string(res.Stderr)))
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(res.Stdout, &body); err != nil {
		return fmt.Errorf("%w: bindPort body: %v", ErrAPIProtocol, err)
	}
	if body.Status != "OK" {
		return fmt.Errorf("%w: bindPort status %q", ErrAPIProtocol, body.Status)
	}
	return nil
}

// pinArg builds the curl --connect-to value `host::ip:` that forces the TCP
// connection to ip for any port while keeping host for SNI and cert checks.
func pinArg(hostname, gatewayIP string) string {
	return hostname + "::" + gatewayIP + ":"
}

// portFromPayload decodes the opaque base64 payload and extracts the port.
func portFromPayload(payload string) (uint16, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return 0, fmt.Errorf("%w: payload base64: %v", ErrAPIProtocol, err)
	}
	var decoded struct {
		Port *int `json:"port"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return 0, fmt.Errorf("%w: payload json: %v", ErrAPIProtocol, err)
	}
	if decoded.Port == nil {
		return 0, fmt.Errorf("%w: payload missing port", ErrAPIProtocol)
	}
	if *decoded.Port < 0 || *decoded.Port > 65535 {
		return 0, fmt.Errorf("%w: payload port %d out of range", ErrAPIProtocol, *decoded.Port)
	}
	return uint16(*decoded.Port), nil
}
