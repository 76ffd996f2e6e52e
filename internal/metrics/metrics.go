// Package metrics holds the Prometheus counters of the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "linkkeeper"

// Metrics groups every counter the handlers update.
type Metrics struct {
	AccountsRegistered prometheus.Counter
	AccountsActivated  prometheus.Counter
	Logins             *prometheus.CounterVec
	LinksCreated       prometheus.Counter
	LinkResolutions    *prometheus.CounterVec
	PasswordResets     *prometheus.CounterVec
}

// New creates the counters and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AccountsRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accounts_registered_total",
			Help:      "Accounts created by registration.",
		}),
		AccountsActivated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accounts_activated_total",
			Help:      "Accounts activated through an emailed link.",
		}),
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		LinksCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_created_total",
			Help:      "Short links created.",
		}),
		LinkResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "link_resolutions_total",
			Help:      "Short code lookups by result.",
		}, []string{"result"}),
		PasswordResets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "password_resets_total",
			Help:      "Password reset steps completed, by stage.",
		}, []string{"stage"}),
	}

	reg.MustRegister(
		m.AccountsRegistered,
		m.AccountsActivated,
		m.Logins,
		m.LinksCreated,
		m.LinkResolutions,
		m.PasswordResets,
	)

	return m
}

// Handler exposes the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
