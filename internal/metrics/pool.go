package metrics

import "github.com/prometheus/client_golang/prometheus"

// PoolStat is the part of *pgxpool.Stat exported as metrics.
type PoolStat interface {
	AcquiredConns() int32
	IdleConns() int32
	TotalConns() int32
	MaxConns() int32
	AcquireCount() int64
	EmptyAcquireCount() int64
	CanceledAcquireCount() int64
}

// PoolStats returns the current pool statistics, or nil when no pool is open.
type PoolStats func() PoolStat

var (
	poolAcquiredDesc = prometheus.NewDesc("cinemateca_db_pool_acquired_conns", "Connections currently checked out of the pool.", nil, nil)
	poolIdleDesc     = prometheus.NewDesc("cinemateca_db_pool_idle_conns", "Idle connections in the pool.", nil, nil)
	poolTotalDesc    = prometheus.NewDesc("cinemateca_db_pool_total_conns", "Open connections in the pool.", nil, nil)
	poolMaxDesc      = prometheus.NewDesc("cinemateca_db_pool_max_conns", "Configured maximum pool size.", nil, nil)
	poolAcquiresDesc = prometheus.NewDesc("cinemateca_db_pool_acquires_total", "Successful connection acquisitions.", nil, nil)
	poolEmptyDesc    = prometheus.NewDesc("cinemateca_db_pool_empty_acquires_total", "Acquisitions that had to wait for a connection.", nil, nil)
	poolCanceledDesc = prometheus.NewDesc("cinemateca_db_pool_canceled_acquires_total", "Acquisitions canceled by their context.", nil, nil)
)

// PoolCollector exports pgxpool statistics at scrape time.
type PoolCollector struct {
	stats PoolStats
}

// NewPoolCollector returns a collector reading from stats.
func NewPoolCollector(stats PoolStats) *PoolCollector {
	return &PoolCollector{stats: stats}
}

// RegisterPool registers a PoolCollector for stats with reg.
func RegisterPool(reg prometheus.Registerer, stats PoolStats) error {
	return reg.Register(NewPoolCollector(stats))
}

func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- poolAcquiredDesc
	ch <- poolIdleDesc
	ch <- poolTotalDesc
	ch <- poolMaxDesc
	ch <- poolAcquiresDesc
	ch <- poolEmptyDesc
	ch <- poolCanceledDesc
}

func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	stat := c.stats()
	if stat == nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(poolAcquiredDesc, prometheus.GaugeValue, float64(stat.AcquiredConns()))
	ch <- prometheus.MustNewConstMetric(poolIdleDesc, prometheus.GaugeValue, float64(stat.IdleConns()))
	ch <- prometheus.MustNewConstMetric(poolTotalDesc, prometheus.GaugeValue, float64(stat.TotalConns()))
	ch <- prometheus.MustNewConstMetric(poolMaxDesc, prometheus.GaugeValue, float64(stat.MaxConns()))
	ch <- prometheus.MustNewConstMetric(poolAcquiresDesc, prometheus.CounterValue, float64(stat.AcquireCount()))
	ch <- prometheus.MustNewConstMetric(poolEmptyDesc, prometheus.CounterValue, float64(stat.EmptyAcquireCount()))
	ch <- prometheus.MustNewConstMetric(poolCanceledDesc, prometheus.CounterValue, float64(stat.CanceledAcquireCount()))
}
