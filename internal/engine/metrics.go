package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// engineMetrics counts lifecycle outcomes for the /metrics endpoint.
type engineMetrics struct {
	ReservationsCreated prometheus.Counter
	Waitlisted          prometheus.Counter
	Promotions          prometheus.Counter
	CheckIns            prometheus.Counter
	LateNoShows         prometheus.Counter
}

// metrics is package-global because promauto registers with the default
// registry; constructing it per Engine would collide in tests.
var metrics = &engineMetrics{
	ReservationsCreated: promauto.NewCounter(prometheus.CounterOpts{
		Name: "reservation_created_total",
		Help: "Total reservations admitted as pending",
	}),
	Waitlisted: promauto.NewCounter(prometheus.CounterOpts{
		Name: "reservation_waitlisted_total",
		Help: "Total requests diverted to the waitlist",
	}),
	Promotions: promauto.NewCounter(prometheus.CounterOpts{
		Name: "reservation_promotions_total",
		Help: "Total waitlist entries promoted to reservations",
	}),
	CheckIns: promauto.NewCounter(prometheus.CounterOpts{
		Name: "reservation_checkins_total",
		Help: "Total successful QR check-ins",
	}),
	LateNoShows: promauto.NewCounter(prometheus.CounterOpts{
		Name: "reservation_late_noshow_total",
		Help: "Total check-in attempts after the grace period",
	}),
}
