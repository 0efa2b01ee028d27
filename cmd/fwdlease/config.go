package main

import (
	"flag"
	"time"
)

// Config holds all runtime configuration derived from flags.
type Config struct {
	Netns         string
	ConfigPath    string
	Protocol      string
	AuthPath      string
	CACert        string
	Callback      string
	RenewInterval time.Duration
	StatusAddr    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Debug         bool
	GenKey        bool
}

var cfg Config

// init registers flags into the default flag set; main parses.
func init() {
	flag.StringVar(&cfg.Netns, "netns", "", "network namespace holding the VPN tunnel (required)")
	flag.StringVar(&cfg.ConfigPath, "config", "", "tunnel config file the session was started from (required)")
	flag.StringVar(&cfg.Protocol, "protocol", "wireguard", "tunnel protocol: openvpn or wireguard")
	flag.StringVar(&cfg.AuthPath, "auth", "", "credentials file, username and password on separate lines (required)")
	flag.StringVar(&cfg.CACert, "cacert", "", "provider CA bundle; default is ca.rsa.4096.crt in the user config dir")
	flag.StringVar(&cfg.Callback, "callback", "", "command run in the namespace with the forwarded port as argument on every renewal; no timeout is enforced on it")
	flag.DurationVar(&cfg.RenewInterval, "renew-interval", 15*time.Minute, "lease renewal cadence (the provider reclaims unrenewed leases)")
	flag.StringVar(&cfg.StatusAddr, "status", ":9100", "metrics, health and dashboard listen address")
	flag.StringVar(&cfg.RedisAddr, "redis", "", "redis address for the lease registry; empty disables publishing")
	flag.StringVar(&cfg.RedisPassword, "redis-password", "", "redis password")
	flag.IntVar(&cfg.RedisDB, "redis-db", 0, "redis database number")
	flag.BoolVar(&cfg.Debug, "debug", false, "enable debug logs")
	flag.BoolVar(&cfg.GenKey, "genkey", false, "generate a WireGuard keypair and exit")
}
