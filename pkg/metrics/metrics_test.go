package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegistryExportsStorefrontCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.HTTP.Observe("POST", "/api/v1/orders", 201, 20*time.Millisecond)
	m.Orders.ObservePlaced("cod", "guest", 12958)
	m.Orders.IncFailed("INSUFFICIENT_STOCK")
	m.Orders.IncNumberCollision()
	m.Outbox.IncPublished("order_created")
	m.Outbox.IncDeadLettered("order_created", "max_attempts")
	m.Cache.Hit("product")
	m.Cache.Miss("product")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	checks := []struct {
		name, label, value string
	}{
		{"storefront_http_requests_total", "route", "/api/v1/orders"},
		{"storefront_orders_placed_total", "payment_method", "cod"},
		{"storefront_orders_failed_total", "code", "INSUFFICIENT_STOCK"},
		{"storefront_outbox_published_total", "event_type", "order_created"},
		{"storefront_outbox_dead_lettered_total", "reason", "max_attempts"},
		{"storefront_cache_lookups_total", "result", "hit"},
		{"storefront_cache_lookups_total", "result", "miss"},
	}
	for _, c := range checks {
		got, err := fetchCounterValue(mfs, c.name, c.label, c.value)
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if got != 1 {
			t.Fatalf("%s{%s=%s}: expected 1, got %f", c.name, c.label, c.value, got)
		}
	}

	if mf := findMetricFamily(mfs, "storefront_order_number_collisions_total"); mf == nil {
		t.Fatal("collision counter not exported")
	}
	if mf := findMetricFamily(mfs, "storefront_order_total_amount"); mf == nil || mf.GetMetric()[0].GetHistogram().GetSampleSum() != 129.58 {
		t.Fatalf("unexpected order total histogram %v", mf)
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	m := New(nil)
	m.HTTP.Observe("GET", "/", 200, time.Millisecond)
	m.Orders.ObservePlaced("cod", "user", 100)
	m.Outbox.IncFailed("order_created")
	m.Cache.Error("product")
	m.Cron.ObserveRun("job", time.Second, nil)

	var nilOrders *OrderMetrics
	nilOrders.IncNumberCollision()
}
