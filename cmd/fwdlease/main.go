package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tlind/fwdlease/internal/forwarder"
	"github.com/tlind/fwdlease/internal/obs"
	"github.com/tlind/fwdlease/internal/pia"
	"github.com/tlind/fwdlease/internal/registry"
	"github.com/tlind/fwdlease/internal/wgkey"
)

func main() {
	flag.Parse()
	if cfg.GenKey {
		kp, err := wgkey.Generate()
		if err != nil {
			obs.Error("genkey", obs.Fields{"err": err.Error()})
			os.Exit(1)
		}
		fmt.Printf("private: %s\npublic:  %s\n", kp.Private, kp.Public)
		return
	}
	if cfg.Debug {
		obs.EnableDebug(true)
	}
	if cfg.Netns == "" || cfg.ConfigPath == "" || cfg.AuthPath == "" {
		fmt.Fprintln(os.Stderr, "fwdlease: -netns, -config and -auth are required")
		flag.Usage()
		os.Exit(2)
	}
	proto := pia.Protocol(cfg.Protocol)
	if proto != pia.ProtocolOpenVPN && proto != pia.ProtocolWireguard {
		fmt.Fprintf(os.Stderr, "fwdlease: unsupported protocol %q\n", cfg.Protocol)
		os.Exit(2)
	}
	obs.Info("fwdlease.start", obs.Fields{"netns": cfg.Netns, "protocol": cfg.Protocol, "status": cfg.StatusAddr, "interval": cfg.RenewInterval.String()})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var reg *registry.Registry
	if cfg.RedisAddr != "" {
		var err error
		reg, err = registry.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RenewInterval)
		if err != nil {
			obs.Error("registry.connect", obs.Fields{"err": err.Error(), "addr": cfg.RedisAddr})
			os.Exit(1)
		}
		defer reg.Close()
	}

	status := &leaseStatus{}
	sess, err := forwarder.NewPIA(ctx, forwarder.PIAConfig{
		Netns:      cfg.Netns,
		ConfigPath: cfg.ConfigPath,
		Protocol:   proto,
		AuthPath:   cfg.AuthPath,
		CACert:     cfg.CACert,
		Callback:   cfg.Callback,
		Interval:   cfg.RenewInterval,
		OnRenewed: func(port uint16) {
			status.markRenewed()
			publishLease(reg, status)
		},
	})
	if err != nil {
		obs.Error("fwdlease.setup", obs.Fields{"err": err.Error(), "netns": cfg.Netns})
		os.Exit(1)
	}
	defer sess.Stop()
	status.setSession(cfg.Netns, sess.Params.Hostname, sess.Params.Gateway, sess.ForwardedPort())
	status.markRenewed()
	publishLease(reg, status)

	go startStatusServer(cfg.StatusAddr, status)
	obs.Info("fwdlease.ready", obs.Fields{"port": sess.ForwardedPort(), "netns": cfg.Netns})

	<-ctx.Done()
	obs.Info("fwdlease.shutdown.signal", obs.Fields{})
	sess.Stop()
	if reg != nil {
		clearCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := reg.Clear(clearCtx, cfg.Netns); err != nil {
			obs.Warn("registry.clear", obs.Fields{"err": err.Error()})
		}
	}
	obs.Info("fwdlease.shutdown.complete", obs.Fields{})
}

// publishLease writes the current lease to the registry, best effort.
func publishLease(reg *registry.Registry, status *leaseStatus) {
	if reg == nil {
		return
	}
	v := status.view()
	if !v.Active {
		return
	}
	now := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := reg.Publish(ctx, registry.Lease{
		Namespace: v.Namespace,
		Port:      v.Port,
		Hostname:  v.Hostname,
		Gateway:   v.Gateway,
		RenewedAt: now,
		ExpiresAt: now.Add(cfg.RenewInterval),
	})
	if err != nil {
		obs.Warn("registry.publish", obs.Fields{"err": err.Error()})
	}
}
