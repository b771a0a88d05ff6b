// Package metrics holds the portal's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Registrations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portal", Name: "registrations_total", Help: "Accounts registered, by role",
	}, []string{"role"})
	Logins = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portal", Name: "logins_total", Help: "Sign-in attempts, by outcome",
	}, []string{"outcome"})
	GroupMutations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portal", Name: "group_mutations_total", Help: "Project group writes, by operation and outcome",
	}, []string{"op", "outcome"})
	NotificationsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portal", Name: "notifications_published_total", Help: "Relay events published, by type",
	}, []string{"type"})
	RealtimeClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "portal", Name: "realtime_clients", Help: "Connected realtime clients",
	})
	RealtimeDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "portal", Name: "realtime_dropped_total", Help: "Frames dropped for slow realtime clients",
	})
	HTTPErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portal", Name: "http_errors_total", Help: "Error envelopes written, by code",
	}, []string{"code"})
)

func init() {
	prometheus.MustRegister(Registrations, Logins, GroupMutations, NotificationsPublished,
		RealtimeClients, RealtimeDropped, HTTPErrors)
}

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }

// Outcome returns "ok" or "error" for use as a label value.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
