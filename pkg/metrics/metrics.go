package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	CallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "onlyoffice", Name: "callbacks_total", Help: "Callback requests received, by document server status code."},
		[]string{"status"},
	)
	SavesApplied = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "onlyoffice", Name: "saves_applied_total", Help: "Save callbacks that replaced document content."},
	)
	SavesFailed = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "onlyoffice", Name: "saves_failed_total", Help: "Save callbacks denied or failed."},
	)
	DocumentsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "onlyoffice", Name: "documents_created_total", Help: "Document records created lazily on first access."},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "onlyoffice", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "onlyoffice", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(CallbacksTotal)
	reg.MustRegister(SavesApplied)
	reg.MustRegister(SavesFailed)
	reg.MustRegister(DocumentsCreated)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
}
