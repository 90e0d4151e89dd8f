// AngelaMos | 2026
// metrics.go

// Package metrics holds the Prometheus instruments shared by the feature
// packages. Everything registers with the default registry, which the
// server exposes on /metrics.
package metrics

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

const namespace = "whome"

var (
	LinkClicksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "link_clicks_total",
			Help:      "Link visits recorded in the click ledger.",
		})

	RouteResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_resolutions_total",
			Help:      "Incoming requests by routing outcome.",
		}, []string{"outcome"})

	SessionRevocationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_revocations_total",
			Help:      "Sessions revoked from the dashboard.",
		})

	SessionStoreErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_store_errors_total",
			Help:      "Failed operations against the external session store.",
		}, []string{"op"})

	LoginAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Login attempts by result.",
		}, []string{"result"})
)

const (
	OutcomeCustomDomain = "custom_domain"
	OutcomeVanity       = "vanity"
	OutcomeApplication  = "application"
	OutcomeError        = "error"
)

func init() {
	prometheus.MustRegister(
		LinkClicksTotal,
		RouteResolutionsTotal,
		SessionRevocationsTotal,
		SessionStoreErrorsTotal,
		LoginAttemptsTotal,
	)
}

// RegisterDB exposes connection pool statistics for db under the given name.
func RegisterDB(db *sql.DB, name string) error {
	return prometheus.Register(collectors.NewDBStatsCollector(db, name))
}

// RegisterRedisPool exposes the go-redis connection pool counters.
func RegisterRedisPool(stats func() *redis.PoolStats) error {
	gauges := []struct {
		name string
		help string
		read func(*redis.PoolStats) uint32
	}{
		{"redis_pool_total_conns", "Connections in the Redis pool.", func(s *redis.PoolStats) uint32 { return s.TotalConns }},
		{"redis_pool_idle_conns", "Idle connections in the Redis pool.", func(s *redis.PoolStats) uint32 { return s.IdleConns }},
		{"redis_pool_hits", "Times a free connection was found in the pool.", func(s *redis.PoolStats) uint32 { return s.Hits }},
		{"redis_pool_misses", "Times a free connection was not found in the pool.", func(s *redis.PoolStats) uint32 { return s.Misses }},
		{"redis_pool_timeouts", "Times a wait for a connection timed out.", func(s *redis.PoolStats) uint32 { return s.Timeouts }},
	}

	for _, g := range gauges {
		collector := prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      g.name,
				Help:      g.help,
			},
			func() float64 { return float64(g.read(stats())) },
		)
		if err := prometheus.Register(collector); err != nil {
			return err
		}
	}

	return nil
}
