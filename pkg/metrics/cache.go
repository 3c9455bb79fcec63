package metrics

import "github.com/prometheus/client_golang/prometheus"

// CacheMetrics tracks read-through cache effectiveness.
type CacheMetrics struct {
	lookups *prometheus.CounterVec
}

func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	if reg == nil {
		return &CacheMetrics{}
	}
	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Cache lookups by cache name and result (hit, miss, error).",
	}, []string{"cache", "result"})
	reg.MustRegister(lookups)
	return &CacheMetrics{lookups: lookups}
}

func (c *CacheMetrics) Hit(cache string)   { c.inc(cache, "hit") }
func (c *CacheMetrics) Miss(cache string)  { c.inc(cache, "miss") }
func (c *CacheMetrics) Error(cache string) { c.inc(cache, "error") }

func (c *CacheMetrics) inc(cache, result string) {
	if c == nil || c.lookups == nil {
		return
	}
	c.lookups.WithLabelValues(normalizeLabel(cache), result).Inc()
}
