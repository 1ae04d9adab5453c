package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gym_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gym_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	attendanceEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gym_attendance_events_total",
		Help: "Check-in, check-out, late and missed markings by result",
	}, []string{"event", "result"})

	workoutEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gym_workout_events_total",
		Help: "Workout schedule mutations by result",
	}, []string{"event", "result"})

	userEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gym_user_events_total",
		Help: "User account operations by result",
	}, []string{"event", "result"})

	reportsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gym_reports_generated_total",
		Help: "Reports generated by type",
	}, []string{"report"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveAttendance counts an attendance event such as "check_in" with its result.
func ObserveAttendance(event, result string) {
	attendanceEvents.WithLabelValues(event, result).Inc()
}

// ObserveWorkout counts a workout schedule event with its result.
func ObserveWorkout(event, result string) {
	workoutEvents.WithLabelValues(event, result).Inc()
}

// ObserveUser counts a user account event with its result.
func ObserveUser(event, result string) {
	userEvents.WithLabelValues(event, result).Inc()
}

// ObserveReport counts a generated report.
func ObserveReport(report string) {
	reportsGenerated.WithLabelValues(report).Inc()
}
