// File: control/metrics.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Prometheus collectors for bridge runtime monitoring.

package control

import "github.com/prometheus/client_golang/prometheus"

var (
	// TasksSpawned counts tasks submitted to the executor.
	TasksSpawned = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hostbridge_tasks_spawned_total",
		Help: "Total number of tasks spawned.",
	})

	// TasksCompleted counts delivered completion callbacks by outcome.
	TasksCompleted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hostbridge_tasks_completed_total",
		Help: "Total number of completed tasks.",
	}, []string{"outcome"})

	// TasksActive tracks tasks currently suspended in the executor.
	TasksActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "hostbridge_tasks_active",
		Help: "Number of in-flight tasks.",
	})

	// NotifiesFired counts readiness reports that woke a task.
	NotifiesFired = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hostbridge_reactor_notifies_total",
		Help: "Readiness notifications that fired a pending waker.",
	})

	// NotifiesSpurious counts readiness reports with no pending interest.
	NotifiesSpurious = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hostbridge_reactor_spurious_notifies_total",
		Help: "Readiness notifications with no pending waker.",
	})

	// TimerFires counts elapsed timer deadlines.
	TimerFires = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hostbridge_timer_fires_total",
		Help: "Timer deadlines fired.",
	})

	// CacheEvents counts query cache lookups by result.
	CacheEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hostbridge_query_cache_events_total",
		Help: "Query cache lookups.",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(
		TasksSpawned,
		TasksCompleted,
		TasksActive,
		NotifiesFired,
		NotifiesSpurious,
		TimerFires,
		CacheEvents,
	)
}
