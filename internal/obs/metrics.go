package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActiveLeases          = promauto.NewGauge(prometheus.GaugeOpts{Name: "fwdlease_active_leases", Help: "Currently maintained port-forward leases"})
	LeasePort             = promauto.NewGauge(prometheus.GaugeOpts{Name: "fwdlease_lease_port", Help: "Forwarded port of the active lease (0 when none)"})
	RenewalsTotal         = promauto.NewCounter(prometheus.CounterOpts{Name: "fwdlease_renewals_total", Help: "Successful lease renewals (bind calls)"})
	RenewalFailuresTotal  = promauto.NewCounter(prometheus.CounterOpts{Name: "fwdlease_renewal_failures_total", Help: "Failed lease renewal attempts"})
	CallbackFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{Name: "fwdlease_callback_failures_total", Help: "Callback invocations that exited non-zero"})
	ErrorsTotal           = promauto.NewCounterVec(prometheus.CounterOpts{Name: "fwdlease_errors_total", Help: "Errors by type"}, []string{"type"})
	DiscoverySeconds      = promauto.NewHistogram(prometheus.HistogramOpts{Name: "fwdlease_discovery_seconds", Help: "Gateway discovery duration", Buckets: prometheus.ExponentialBuckets(0.01, 2, 12)})
)
