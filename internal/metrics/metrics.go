// Package metrics exposes Prometheus counters for the app's domain
// events. A process-wide default registry backs the package-level
// helpers; New exists so tests can use an isolated registry.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	doseLogs          *prometheus.CounterVec
	logins            *prometheus.CounterVec
	signups           prometheus.Counter
	remindersFired    prometheus.Counter
	assistantMessages *prometheus.CounterVec
	httpRequests      *prometheus.CounterVec
	adherenceScore    *prometheus.GaugeVec
	wsConnections     prometheus.Gauge
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

func Default() *Metrics {
	once.Do(func() {
		defaultMetrics = New()
	})
	return defaultMetrics
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		doseLogs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pillwise_dose_logs_total",
			Help: "Dose logs recorded, by status",
		}, []string{"status"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pillwise_logins_total",
			Help: "Login attempts, by result",
		}, []string{"result"}),
		signups: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pillwise_signups_total",
			Help: "Accounts created",
		}),
		remindersFired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pillwise_reminders_fired_total",
			Help: "Due-dose reminders fired",
		}),
		assistantMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pillwise_assistant_messages_total",
			Help: "Assistant chat messages stored, by role",
		}, []string{"role"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pillwise_http_requests_total",
			Help: "HTTP requests served, by method and status",
		}, []string{"method", "status"}),
		adherenceScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pillwise_adherence_score",
			Help: "Current adherence score per patient",
		}, []string{"patient_id"}),
		wsConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pillwise_ws_connections",
			Help: "Open reminder WebSocket connections",
		}),
	}

	m.registry.MustRegister(
		m.doseLogs,
		m.logins,
		m.signups,
		m.remindersFired,
		m.assistantMessages,
		m.httpRequests,
		m.adherenceScore,
		m.wsConnections,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordDoseLog(status string) {
	m.doseLogs.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordLogin(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	m.logins.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordSignup() {
	m.signups.Inc()
}

func (m *Metrics) RecordReminderFired() {
	m.remindersFired.Inc()
}

func (m *Metrics) RecordAssistantMessage(role string) {
	m.assistantMessages.WithLabelValues(role).Inc()
}

func (m *Metrics) RecordHTTPRequest(method, status string) {
	m.httpRequests.WithLabelValues(method, status).Inc()
}

func (m *Metrics) SetAdherenceScore(patientID string, score int) {
	m.adherenceScore.WithLabelValues(patientID).Set(float64(score))
}

func (m *Metrics) IncrementWSConnections() {
	m.wsConnections.Inc()
}

func (m *Metrics) DecrementWSConnections() {
	m.wsConnections.Dec()
}

func RecordDoseLog(status string) {
	Default().RecordDoseLog(status)
}

func RecordLogin(success bool) {
	Default().RecordLogin(success)
}

func RecordSignup() {
	Default().RecordSignup()
}

func RecordReminderFired() {
	Default().RecordReminderFired()
}

func RecordAssistantMessage(role string) {
	Default().RecordAssistantMessage(role)
}

func RecordHTTPRequest(method, status string) {
	Default().RecordHTTPRequest(method, status)
}

func SetAdherenceScore(patientID string, score int) {
	Default().SetAdherenceScore(patientID, score)
}

func Handler() http.Handler {
	return Default().Handler()
}
