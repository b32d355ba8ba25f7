// Package metrics exposes the node's Prometheus instrumentation: chain
// height, mempool size, block/transaction counters, and mining throughput.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every metric the node publishes, plus the prometheus
// registry they are bound to.
type Registry struct {
	registry *prometheus.Registry

	ChainHeight       prometheus.Gauge
	ChainDifficulty   prometheus.Gauge
	BlocksCommitted   prometheus.Counter
	TransactionsTotal prometheus.Counter
	MempoolSize       prometheus.Gauge
	BlocksMined       prometheus.Counter
	HashesComputed    prometheus.Counter
	CirculatingSupply prometheus.Gauge
}

// New registers every metric against a fresh registry, so multiple node
// instances in the same process (as in tests) don't collide on the default
// global registry.
func New() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Registry{
		registry: reg,

		ChainHeight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ledger_chain_height",
			Help: "Height of the current chain tip.",
		}),
		ChainDifficulty: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ledger_chain_difficulty",
			Help: "Leading hex zeros required of a valid block hash.",
		}),
		BlocksCommitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledger_blocks_committed_total",
			Help: "Total blocks accepted onto the chain.",
		}),
		TransactionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledger_transactions_committed_total",
			Help: "Total transactions included in a committed block.",
		}),
		MempoolSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ledger_mempool_size",
			Help: "Number of transactions currently pending.",
		}),
		BlocksMined: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledger_blocks_mined_total",
			Help: "Total blocks mined by this node's own miner.",
		}),
		HashesComputed: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledger_hashes_computed_total",
			Help: "Total proof-of-work candidate hashes computed by this node's miner.",
		}),
		CirculatingSupply: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ledger_circulating_supply_satoshis",
			Help: "Total coins issued so far, including the founder allocation.",
		}),
	}
}

// Handler returns an http.Handler that serves this registry's metrics in
// the Prometheus text exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
