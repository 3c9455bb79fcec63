package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "storefront"

// Registry bundles every collector the storefront binaries export.
type Registry struct {
	HTTP   *HTTPMetrics
	Orders *OrderMetrics
	Outbox *OutboxMetrics
	Cache  *CacheMetrics
	Cron   *CronJobMetrics
}

// New registers all collectors on reg. A nil reg yields no-op collectors.
func New(reg prometheus.Registerer) *Registry {
	return &Registry{
		HTTP:   NewHTTPMetrics(reg),
		Orders: NewOrderMetrics(reg),
		Outbox: NewOutboxMetrics(reg),
		Cache:  NewCacheMetrics(reg),
		Cron:   NewCronJobMetrics(reg),
	}
}
