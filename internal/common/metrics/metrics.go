package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_events_classified_total",
			Help: "Total number of association events classified, by kind",
		},
		[]string{"kind"},
	)

	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_events_dropped_total",
			Help: "Total number of association events dropped before display or announcement",
		},
		[]string{"reason"},
	)

	GroupsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_groups_emitted_total",
			Help: "Total number of notification groups emitted by the grouper",
		},
		[]string{"kind"},
	)

	AnnouncementsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_announcements_delivered_total",
			Help: "Total number of announcements delivered, by sink",
		},
		[]string{"sink"},
	)

	AnnouncementsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_announcements_failed_total",
			Help: "Total number of announcement deliveries that failed, by sink",
		},
		[]string{"sink"},
	)

	UnreadIndicator = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notifier_unread",
			Help: "1 when the latest notification is newer than the last-seen marker",
		},
	)
)
