// Package metrics exposes the bot's Prometheus counters.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements the recorder interfaces of the fixer, delivery and
// settings packages.
type Collector struct {
	messages       *prometheus.CounterVec
	rewrites       *prometheus.CounterVec
	plans          *prometheus.CounterVec
	deliveryErrors *prometheus.CounterVec
	storeRetries   *prometheus.CounterVec
	commands       *prometheus.CounterVec
}

// NewCollector creates the counters and registers them with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fixembed_messages_total",
			Help: "Inbound messages by pipeline outcome.",
		}, []string{"outcome"}),
		rewrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fixembed_rewrites_total",
			Help: "Links rewritten per service.",
		}, []string{"service"}),
		plans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fixembed_plans_total",
			Help: "Delivery plans executed per action.",
		}, []string{"action"}),
		deliveryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fixembed_delivery_errors_total",
			Help: "Failed outbound Discord calls per operation.",
		}, []string{"op"}),
		storeRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fixembed_store_retries_total",
			Help: "Durable writes that hit a busy store.",
		}, []string{"op"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fixembed_commands_total",
			Help: "Application commands and components handled.",
		}, []string{"name"}),
	}

	reg.MustRegister(
		c.messages,
		c.rewrites,
		c.plans,
		c.deliveryErrors,
		c.storeRetries,
		c.commands,
	)
	return c
}

func (c *Collector) MessageProcessed(outcome string) {
	c.messages.WithLabelValues(outcome).Inc()
}

func (c *Collector) LinkRewritten(service string) {
	c.rewrites.WithLabelValues(service).Inc()
}

func (c *Collector) PlanExecuted(action string) {
	c.plans.WithLabelValues(action).Inc()
}

func (c *Collector) DeliveryError(op string) {
	c.deliveryErrors.WithLabelValues(op).Inc()
}

func (c *Collector) StoreRetry(op string) {
	c.storeRetries.WithLabelValues(op).Inc()
}

func (c *Collector) CommandHandled(name string) {
	c.commands.WithLabelValues(name).Inc()
}

// Handler serves the registry in the Prometheus text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
