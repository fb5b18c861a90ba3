package announce

import "concrnt-notifier/internal/notification/classify"

// Announcement is a fully rendered notification ready for a sink.
type Announcement struct {
	ID        string        `json:"id"`
	Kind      classify.Kind `json:"kind"`
	ActorName string        `json:"actorName"`
	Title     string        `json:"title"`
	Body      string        `json:"body"`
	// ImageURL carries the reaction image rendered next to the actor name,
	// only set for reaction announcements.
	ImageURL string `json:"imageUrl,omitempty"`
	Sound    bool   `json:"sound"`
	Variant  string `json:"variant"`
}

// Variant tags understood by sinks.
const (
	VariantInfo = "info"
	// VariantPersistent stays on screen until acted on; used for prompts
	// carrying an action, not for notification rendering itself.
	VariantPersistent = "persistent"
)
