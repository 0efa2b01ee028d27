package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tlind/fwdlease/internal/obs"
	"github.com/tlind/fwdlease/internal/web"
)

// leaseStatus tracks the active session for the status endpoints. Renewal
// counters here are daemon-local; prometheus carries the durable metrics.
type leaseStatus struct {
	mu        sync.Mutex
	active    bool
	namespace string
	hostname  string
	gateway   string
	port      uint16
	renewals  int64
	renewedAt time.Time
}

// LeaseView is the JSON shape served on /api/lease.
type LeaseView struct {
	Active    bool   `json:"active"`
	Namespace string `json:"namespace,omitempty"`
	Hostname  string `json:"hostname,omitempty"`
	Gateway   string `json:"gateway,omitempty"`
	Port      uint16 `json:"port,omitempty"`
	Renewals  int64  `json:"renewals"`
	RenewedAt string `json:"renewed_at,omitempty"`
	Now       string `json:"now"`
}

func (s *leaseStatus) setSession(namespace, hostname, gateway string, port uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = true
	s.namespace = namespace
	s.hostname = hostname
	s.gateway = gateway
	s.port = port
}

func (s *leaseStatus) markRenewed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	s.renewals++
	s.renewedAt = time.Now()
}

func (s *leaseStatus) view() LeaseView {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := LeaseView{
		Active:    s.active,
		Namespace: s.namespace,
		Hostname:  s.hostname,
		Gateway:   s.gateway,
		Port:      s.port,
		Renewals:  s.renewals,
		Now:       time.Now().UTC().Format(time.RFC3339),
	}
	if !s.renewedAt.IsZero() {
		v.RenewedAt = s.renewedAt.UTC().Format(time.RFC3339)
	}
	return v
}

// startStatusServer serves prometheus metrics, health and the lease status.
func startStatusServer(addr string, status *leaseStatus) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/lease", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(status.view())
	})
	mux.HandleFunc("/dashboard", func(w http.ResponseWriter, r *http.Request) {
		v := status.view()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		data := map[string]any{
			"Active":    v.Active,
			"Namespace": v.Namespace,
			"Hostname":  v.Hostname,
			"Gateway":   v.Gateway,
			"Port":      v.Port,
			"Renewals":  v.Renewals,
			"RenewedAt": v.RenewedAt,
		}
		if err := web.Render(w, "dashboard", data); err != nil {
			obs.Error("dashboard.render", obs.Fields{"err": err.Error()})
		}
	})
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		obs.Error("status.server", obs.Fields{"err": err.Error(), "addr": addr})
	}
}
