// Package registry publishes active port-forward leases to Redis so fleet
// tooling can see which namespaces currently hold a forward. Publishing is
// best effort: failures are logged and never affect the session, and keys
// carry a TTL so stale entries expire on their own when a daemon dies.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tlind/fwdlease/internal/obs"
)

// Lease is the JSON record stored per namespace.
type Lease struct {
	Namespace string    `json:"namespace"`
	Port      uint16    `json:"port"`
	Hostname  string    `json:"hostname"`
	Gateway   string    `json:"gateway"`
	RenewedAt time.Time `json:"renewed_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Registry writes lease records with a TTL of twice the renewal interval, so
// one missed renewal does not drop the entry but two do.
type Registry struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis and verifies the connection before returning.
func New(addr, password string, db int, renewInterval time.Duration) (*Registry, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return &Registry{client: rdb, ttl: 2 * renewInterval}, nil
}

// Publish upserts the lease record for its namespace.
func (r *Registry) Publish(ctx context.Context, lease Lease) error {
	data, err := json.Marshal(lease)
	if err != nil {
		return fmt.Errorf("marshal lease: %w", err)
	}
	if err := r.client.Set(ctx, leaseKey(lease.Namespace), data, r.ttl).Err(); err != nil {
		obs.ErrorsTotal.WithLabelValues("registry_publish").Inc()
		return fmt.Errorf("redis set failed: %w", err)
	}
	obs.Debug("registry.published", obs.Fields{"namespace": lease.Namespace, "port": lease.Port})
	return nil
}

// Clear removes the lease record, typically on clean shutdown.
func (r *Registry) Clear(ctx context.Context, namespace string) error {
	if err := r.client.Del(ctx, leaseKey(namespace)).Err(); err != nil {
		obs.ErrorsTotal.WithLabelValues("registry_clear").Inc()
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (r *Registry) Close() error { return r.client.Close() }

func leaseKey(namespace string) string { return "lease:" + namespace }
