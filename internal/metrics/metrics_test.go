package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string, label string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetValue() == label {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	t.Fatalf("%s{%s} not found", name, label)
	return 0
}

func TestCollectorCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.MessageProcessed("repost_delete")
	c.LinkRewritten("Twitter")
	c.LinkRewritten("Twitter")
	c.PlanExecuted("reply_keep")
	c.DeliveryError("delete")
	c.StoreRetry("save_guild")
	c.CommandHandled("settings")

	tests := []struct {
		name, label string
		want        float64
	}{
		{"fixembed_messages_total", "repost_delete", 1},
		{"fixembed_rewrites_total", "Twitter", 2},
		{"fixembed_plans_total", "reply_keep", 1},
		{"fixembed_delivery_errors_total", "delete", 1},
		{"fixembed_store_retries_total", "save_guild", 1},
		{"fixembed_commands_total", "settings", 1},
	}
	for _, tt := range tests {
		if got := counterValue(t, reg, tt.name, tt.label); got != tt.want {
			t.Errorf("%s{%s} = %v, want %v", tt.name, tt.label, got, tt.want)
		}
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.LinkRewritten("Reddit")

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), `fixembed_rewrites_total{service="Reddit"} 1`) {
		t.Errorf("body missing rewrite counter:\n%s", body)
	}
}
