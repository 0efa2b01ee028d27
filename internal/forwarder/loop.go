package forwarder

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/tlind/fwdlease/internal/netns"
	"github.com/tlind/fwdlease/internal/obs"
)

// LoopParams is the provider-specific parameters value the renewal loop
// carries. Implementations hold whatever their renew function needs; the
// skeleton only asks for the namespace, cadence and optional callback.
type LoopParams interface {
	NetnsName() string
	LoopDelay() time.Duration
	CallbackCommand() string
}

// callbackOut receives relayed callback stdout. Swapped in tests.
var callbackOut io.Writer = os.Stdout

// Handle is the generic lifecycle object: one stop channel, one worker.
// It implements Forwarder for any provider backend started via StartLoop.
type Handle struct {
	port     uint16
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

var _ Forwarder = (*Handle)(nil)

// StartLoop spawns the renewal worker and returns its handle. Callers must
// have completed the first successful bind before starting the loop; port is
// fixed from here on. renew re-claims the lease; onRenewed (optional) is
// invoked after each successful renewal, including indirectly by callers for
// the initial bind.
func StartLoop[P LoopParams](r netns.Runner, params P, port uint16, renew func(P) error, onRenewed func(uint16)) *Handle {
	h := &Handle{
		port: port,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	obs.ActiveLeases.Inc()
	obs.LeasePort.Set(float64(port))
	go loop(h, r, params, renew, onRenewed)
	return h
}

// ForwardedPort returns the port bound at construction.
func (h *Handle) ForwardedPort() uint16 { return h.port }

// Stop signals the worker once and waits for it to exit. Idempotent.
func (h *Handle) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
	<-h.done
}

func loop[P LoopParams](h *Handle, r netns.Runner, params P, renew func(P) error, onRenewed func(uint16)) {
	defer close(h.done)
	defer obs.ActiveLeases.Dec()
	defer obs.LeasePort.Set(0)
	delay := params.LoopDelay()
	t := time.NewTimer(delay)
	defer t.Stop()
	for {
		select {
		case <-h.stop:
			// Exit immediately, no final bind.
			obs.Debug("renew.loop.stop", obs.Fields{"namespace": params.NetnsName()})
			return
		case <-t.C:
			// A failed renewal never terminates the loop; the next attempt
			// happens after the normal interval. The lease may go stale if
			// the provider already reclaimed it.
			if err := renew(params); err != nil {
				obs.RenewalFailuresTotal.Inc()
				obs.Warn("renew.failed", obs.Fields{"namespace": params.NetnsName(), "err": err.Error()})
			} else {
				obs.RenewalsTotal.Inc()
				obs.Debug("renew.ok", obs.Fields{"namespace": params.NetnsName(), "port": h.port})
				runCallback(r, params.NetnsName(), params.CallbackCommand(), h.port)
				if onRenewed != nil {
					onRenewed(h.port)
				}
			}
			t.Reset(delay)
		}
	}
}

// runCallback executes the configured command inside the namespace with the
// decimal port as its single argument, relaying stdout. Non-zero exits are
// logged as warnings only. No timeout is enforced; a hanging callback delays
// the next renewal cycle and Stop.
func runCallback(r netns.Runner, namespace, command string, port uint16) {
	if command == "" {
		return
	}
	if err := invokeCallback(r, namespace, command, port); err != nil {
		obs.CallbackFailuresTotal.Inc()
		obs.Warn("callback.failed", obs.Fields{"namespace": namespace, "command": command, "err": err.Error()})
	}
}

func invokeCallback(r netns.Runner, namespace, command string, port uint16) error {
	res, err := r.Run(namespace, command, strconv.Itoa(int(port)))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCallback, err)
	}
	if !res.Success() {
		return fmt.Errorf("%w: exit %d, stdout: %q, stderr: %q", ErrCallback, res.ExitCode, res.Stdout, res.Stderr)
	}
	if len(res.Stdout) > 0 {
		_, _ = callbackOut.Write(res.Stdout)
	}
	return nil
}
