package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counters for the reservation workflow. Registered on the default
// registry and exposed via Handler.
var (
	SubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "raidreserve_submissions_total",
		Help: "Applications registered, by raid.",
	}, []string{"raid"})

	CodeChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "raidreserve_code_checks_total",
		Help: "Access code checks, by raid and result (ok, mismatch, unset).",
	}, []string{"raid", "result"})

	AdminLoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "raidreserve_admin_logins_total",
		Help: "Operator login attempts, by result (ok, rejected).",
	}, []string{"result"})

	DeletionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "raidreserve_deletions_total",
		Help: "Applications removed individually by the operator, by raid.",
	}, []string{"raid"})
)

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
