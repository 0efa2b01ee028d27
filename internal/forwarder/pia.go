package forwarder

import (
	"context"
	"fmt"
	"time"

	"github.com/tlind/fwdlease/internal/gateway"
	"github.com/tlind/fwdlease/internal/netns"
	"github.com/tlind/fwdlease/internal/obs"
	"github.com/tlind/fwdlease/internal/pia"
)

// traceTarget is the host single-hop traced to find the tunnel gateway. Any
// resolvable host works since the trace stops at hop one.
const traceTarget = "privateinternetaccess.com"

// PIAParams is the immutable per-session state the renewal loop carries.
// Signature and Payload are issued exactly once by getSignature and reused,
// unmodified, for every renewal call.
type PIAParams struct {
	Netns     string
	Hostname  string
	Gateway   string
	CACert    string
	Signature string
	Payload   string
	Port      uint16
	Callback  string
	Interval  time.Duration
}

func (p PIAParams) NetnsName() string { return p.Netns }

func (p PIAParams) CallbackCommand() string { return p.Callback }

func (p PIAParams) LoopDelay() time.Duration {
	if p.Interval <= 0 {
		return DefaultRenewInterval
	}
	return p.Interval
}

// PIAConfig configures construction of a PIA port-forward session.
type PIAConfig struct {
	Netns      string
	ConfigPath string       // tunnel config file (openvpn or wireguard)
	Protocol   pia.Protocol // selects config format and credential handling
	AuthPath   string       // auth-user-pass style credential file
	CACert     string       // provider CA bundle; empty = default location
	Callback   string       // optional command run in the namespace with the port
	Interval   time.Duration
	Runner     netns.Runner // defaults to netns.ExecRunner
	// OnRenewed is invoked after the first bind and each successful renewal
	// with the forwarded port, e.g. to publish the lease to a registry.
	OnRenewed func(port uint16)
}

// PIASession is a running PIA port-forward lease. It embeds the lifecycle
// Handle and exposes the immutable session parameters for status reporting.
type PIASession struct {
	*Handle
	Params PIAParams
}

// NewPIA builds a PIA port-forward session: discover the gateway inside the
// namespace, resolve the tunnel hostname, exchange credentials for a token,
// acquire the signature and payload, perform the first bind, then start the
// renewal worker. Any failure before the first successful bind aborts with
// no worker spawned. The token and credentials are discarded here and never
// logged.
func NewPIA(ctx context.Context, cfg PIAConfig) (*PIASession, error) {
	r := cfg.Runner
	if r == nil {
		r = netns.ExecRunner{}
	}
	if err := netns.CheckTools(r, "traceroute", "curl"); err != nil {
		return nil, err
	}

	gw, err := gateway.Discover(r, cfg.Netns, traceTarget)
	if err != nil {
		return nil, err
	}
	obs.Info("pia.gateway", obs.Fields{"namespace": cfg.Netns, "gateway": gw})

	hostname, err := pia.HostnameFromConfig(cfg.ConfigPath, cfg.Protocol)
	if err != nil {
		return nil, err
	}
	obs.Info("pia.hostname", obs.Fields{"hostname": hostname})

	user, pass, err := pia.LoadCredentials(cfg.AuthPath)
	if err != nil {
		return nil, err
	}
	token, err := pia.ExchangeToken(ctx, user, pass)
	if err != nil {
		return nil, err
	}
	caCert, err := pia.CACertPath(cfg.CACert)
	if err != nil {
		return nil, err
	}

	sig, err := pia.GetSignature(r, cfg.Netns, hostname, gw, caCert, token)
	if err != nil {
		return nil, err
	}

	params := PIAParams{
		Netns:     cfg.Netns,
		Hostname:  hostname,
		Gateway:   gw,
		CACert:    caCert,
		Signature: sig.Signature,
		Payload:   sig.Payload,
		Port:      sig.Port,
		Callback:  cfg.Callback,
		Interval:  cfg.Interval,
	}
	renew := renewPIA(r)
	if err := renew(params); err != nil {
		return nil, fmt.Errorf("initial bind: %w", err)
	}
	runCallback(r, params.Netns, params.Callback, params.Port)
	if cfg.OnRenewed != nil {
		cfg.OnRenewed(params.Port)
	}

	h := StartLoop(r, params, params.Port, renew, cfg.OnRenewed)
	obs.Info("pia.forward.ready", obs.Fields{"namespace": cfg.Netns, "port": params.Port, "interval": params.LoopDelay().String()})
	return &PIASession{Handle: h, Params: params}, nil
}

// renewPIA returns the renew function for the loop skeleton: a bindPort call
// with the session's fixed signature/payload pair. Repeating it with
// identical parameters reconfirms the same lease and never changes the port.
func renewPIA(r netns.Runner) func(PIAParams) error {
	return func(p PIAParams) error {
		return pia.BindPort(r, p.Netns, p.Hostname, p.Gateway, p.CACert, p.Payload, p.Signature)
	}
}
