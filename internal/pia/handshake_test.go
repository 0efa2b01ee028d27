package pia

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/tlind/fwdlease/internal/netns"
)

// replyRunner answers every namespace command with the given body and exit
// code, recording the last argv for assertions.
type replyRunner struct {
	body string
	exit int
	argv []string
	ns   string
}

func (r *replyRunner) Run(ns string, argv ...string) (netns.Result, error) {
	r.ns = ns
	r.argv = argv
	return netns.Result{ExitCode: r.exit, Stdout: []byte(r.body)}, nil
}

func signaturePayload(t *testing.T, port int) string {
	t.Helper()
	return base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf(`{"port":%d,"expires_at":"2026-09-01T00:00:00Z"}`, port)))
}

func TestGetSignature(t *testing.T) {
	payload := signaturePayload(t, 41234)
	r := &replyRunner{body: fmt.Sprintf(`{"status":"OK","signature":"sig1","payload":"%s"}`, payload)}
	sig, err := GetSignature(r, "vpn0", "swiss.privacy.network", "10.0.0.1", "/tmp/ca.crt", "tok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig.Signature != "sig1" {
		t.Errorf("signature = %q", sig.Signature)
	}
	if sig.Payload != payload {
		t.Errorf("payload not preserved verbatim")
	}
	if sig.Port != 41234 {
		t.Errorf("port = %d, want 41234", sig.Port)
	}
}

// The request must be pinned to the discovered gateway, never DNS-resolved.
func TestGetSignaturePinsGateway(t *testing.T) {
	r := &replyRunner{body: fmt.Sprintf(`{"status":"OK","signature":"s","payload":"%s"}`, signaturePayload(t, 1))}
	if _, err := GetSignature(r, "vpn0", "host.example", "10.9.9.9", "/ca.crt", "tok"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	joined := strings.Join(r.argv, " ")
	if !strings.Contains(joined, "--connect-to host.example::10.9.9.9:") {
		t.Errorf("missing gateway pin in argv: %v", r.argv)
	}
	if !strings.Contains(joined, "--cacert /ca.crt") {
		t.Errorf("missing ca cert in argv: %v", r.argv)
	}
	if !strings.Contains(joined, "https://host.example:19999/getSignature") {
		t.Errorf("missing hostname URL in argv: %v", r.argv)
	}
	if r.ns != "vpn0" {
		t.Errorf("namespace = %q", r.ns)
	}
}

func TestGetSignatureNonOKStatus(t *testing.T) {
	r := &replyRunner{body: `{"status":"fail"}`}
	if _, err := GetSignature(r, "vpn0", "h", "g", "c", "t"); !errors.Is(err, ErrAPIProtocol) {
		t.Errorf("expected ErrAPIProtocol, got %v", err)
	}
}

func TestGetSignatureMalformedBody(t *testing.T) {
	cases := map[string]string{
		"not json":        "<html>nope</html>",
		"missing fields":  `{"status":"OK"}`,
		"bad base64":      `{"status":"OK","signature":"s","payload":"!!!not-base64!!!"}`,
		"payload no port": `{"status":"OK","signature":"s","payload":"` + base64.StdEncoding.EncodeToString([]byte(`{"expires_at":"x"}`)) + `"}`,
		"port too large":  `{"status":"OK","signature":"s","payload":"` + base64.StdEncoding.EncodeToString([]byte(`{"port":70000}`)) + `"}`,
		"port negative":   `{"status":"OK","signature":"s","payload":"` + base64.StdEncoding.EncodeToString([]byte(`{"port":-1}`)) + `"}`,
	}
	for name, body := range cases {
		r := &replyRunner{body: body}
		if _, err := GetSignature(r, "vpn0", "h", "g", "c", "t"); !errors.Is(err, ErrAPIProtocol) {
			t.Errorf("%s: expected ErrAPIProtocol, got %v", name, err)
		}
	}
}

func TestGetSignatureCurlFailure(t *testing.T) {
	r := &replyRunner{exit: 28} // curl timeout exit code
	if _, err := GetSignature(r, "vpn0", "h", "g", "c", "t"); !errors.Is(err, ErrNetwork) {
		t.Errorf("expected ErrNetwork, got %v", err)
	}
}

func TestBindPort(t *testing.T) {
	r := &replyRunner{body: `{"status":"OK"}`}
	if err := BindPort(r, "vpn0", "host.example", "10.0.0.1", "/ca.crt", "pay", "sig"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	joined := strings.Join(r.argv, " ")
	if !strings.Contains(joined, "payload=pay") || !strings.Contains(joined, "signature=sig") {
		t.Errorf("payload/signature not passed verbatim: %v", r.argv)
	}
	if !strings.Contains(joined, "--connect-to host.example::10.0.0.1:") {
		t.Errorf("missing gateway pin: %v", r.argv)
	}
	if !strings.Contains(joined, "https://host.example:19999/bindPort") {
		t.Errorf("missing bindPort URL: %v", r.argv)
	}
}

func TestBindPortNonOK(t *testing.T) {
	r := &replyRunner{body: `{"status":"fail"}`}
	if err := BindPort(r, "vpn0", "h", "g", "c", "p", "s"); !errors.Is(err, ErrAPIProtocol) {
		t.Errorf("expected ErrAPIProtocol, got %v", err)
	}
}

func TestBindPortCurlFailure(t *testing.T) {
	r := &replyRunner{exit: 7}
	if err := BindPort(r, "vpn0", "h", "g", "c", "p", "s"); !errors.Is(err, ErrNetwork) {
		t.Errorf("expected ErrNetwork, got %v", err)
	}
}
