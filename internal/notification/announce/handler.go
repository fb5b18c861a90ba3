// Package announce turns realtime association events into user-facing
// announcements, one formatting branch per event kind.
package announce

import (
	"context"

	"github.com/google/uuid"

	"concrnt-notifier/internal/common/logger"
	"concrnt-notifier/internal/common/metrics"
	"concrnt-notifier/internal/concrnt"
	"concrnt-notifier/internal/notification/classify"
	"concrnt-notifier/internal/notification/summarize"
)

// Sink receives rendered announcements. Delivery failures are counted and
// logged; they never propagate back into event handling.
type Sink interface {
	Name() string
	Notify(ctx context.Context, a Announcement) error
}

type Handler struct {
	config   *Config
	messages concrnt.MessageResolver
	profiles concrnt.ProfileResolver
	sinks    []Sink
	logger   logger.Logger
}

func NewHandler(config *Config, messages concrnt.MessageResolver, profiles concrnt.ProfileResolver, log logger.Logger, sinks ...Sink) *Handler {
	return &Handler{
		config:   config,
		messages: messages,
		profiles: profiles,
		sinks:    sinks,
		logger:   log.WithFields(map[string]interface{}{"component": "announce"}),
	}
}

// HandleRealtime renders and delivers one realtime event. Every resolution
// failure skips the event: the drop is counted and logged at debug level,
// nothing surfaces to the user.
func (h *Handler) HandleRealtime(ctx context.Context, ev concrnt.RealtimeEvent) {
	if ev.Association == nil || ev.Item == nil {
		metrics.EventsDropped.WithLabelValues(summarize.DropReasonMissingItem).Inc()
		h.logger.Debug("skipping realtime event without item", map[string]interface{}{
			"timelineID": ev.TimelineID,
		})
		return
	}

	kind := classify.Classify(ev.Association.Schema)
	metrics.EventsClassified.WithLabelValues(string(kind)).Inc()

	var a *Announcement
	switch kind {
	case classify.KindReply:
		a = h.buildReply(ctx, ev)
	case classify.KindReroute:
		a = h.buildReroute(ctx, ev)
	case classify.KindLike, classify.KindReaction:
		a = h.buildFavor(ctx, ev, kind)
	case classify.KindMention:
		a = h.buildMention(ctx, ev)
	default:
		// Read access requests and unrecognized schemas appear in the
		// notification list but carry no live announcement.
		h.logger.Debug("no announcement for kind", map[string]interface{}{
			"kind":   string(kind),
			"schema": ev.Association.Schema,
		})
		return
	}

	if a == nil {
		return
	}
	h.deliver(ctx, *a)
}

func (h *Handler) buildReply(ctx context.Context, ev concrnt.RealtimeEvent) *Announcement {
	msg := h.resolveMessage(ctx, ev.Association.Target, ev.Association.Owner)
	if msg == nil {
		return nil
	}
	profile := h.resolveProfile(ctx, ev.Association.Author)
	if profile == nil {
		return nil
	}

	return &Announcement{
		ID:        uuid.New().String(),
		Kind:      classify.KindReply,
		ActorName: profile.Username,
		Title:     profile.Username + " replied to your message",
		Body:      renderBody(msg),
		Sound:     h.config.SoundEnabled,
		Variant:   h.config.Variant,
	}
}

func (h *Handler) buildReroute(ctx context.Context, ev concrnt.RealtimeEvent) *Announcement {
	// The target author comes from the realtime item's owner, not from the
	// association body.
	msg := h.resolveMessage(ctx, ev.Association.Target, ev.Item.Owner)
	if msg == nil {
		return nil
	}
	profile := h.resolveProfile(ctx, ev.Association.Author)
	if profile == nil {
		return nil
	}

	return &Announcement{
		ID:        uuid.New().String(),
		Kind:      classify.KindReroute,
		ActorName: profile.Username,
		Title:     profile.Username + " rerouted your message",
		Body:      renderBody(msg),
		Sound:     h.config.SoundEnabled,
		Variant:   h.config.Variant,
	}
}

func (h *Handler) buildFavor(ctx context.Context, ev concrnt.RealtimeEvent, kind classify.Kind) *Announcement {
	msg := h.resolveMessage(ctx, ev.Association.Target, ev.Association.Owner)
	if msg == nil {
		return nil
	}

	name := ""
	if po := ev.Association.Body.ProfileOverride; po != nil && po.Username != "" {
		name = po.Username
	} else {
		profile := h.resolveProfile(ctx, ev.Association.Author)
		if profile == nil {
			return nil
		}
		name = profile.Username
	}

	body := renderBody(msg)
	if len(msg.Media) > 0 {
		body = appendMediaRefs(body, msg.Media)
	}

	title := name + " liked your message"
	imageURL := ""
	if kind == classify.KindReaction {
		title = name + " reacted to your message"
		imageURL = ev.Association.Body.ImageURL
	}

	return &Announcement{
		ID:        uuid.New().String(),
		Kind:      kind,
		ActorName: name,
		Title:     title,
		Body:      body,
		ImageURL:  imageURL,
		Sound:     h.config.SoundEnabled,
		Variant:   h.config.Variant,
	}
}

func (h *Handler) buildMention(ctx context.Context, ev concrnt.RealtimeEvent) *Announcement {
	msg := h.resolveMessage(ctx, ev.Association.Target, ev.Association.Owner)
	if msg == nil {
		return nil
	}
	profile := h.resolveProfile(ctx, ev.Association.Author)
	if profile == nil {
		return nil
	}

	return &Announcement{
		ID:        uuid.New().String(),
		Kind:      classify.KindMention,
		ActorName: profile.Username,
		Title:     profile.Username + " mentioned you",
		Body:      renderBody(msg),
		Sound:     h.config.SoundEnabled,
		Variant:   h.config.Variant,
	}
}

func (h *Handler) resolveMessage(ctx context.Context, id, author string) *concrnt.Message {
	msg, err := h.messages.GetMessageWithAuthor(ctx, id, author)
	if err != nil || msg == nil {
		metrics.EventsDropped.WithLabelValues(summarize.DropReasonMessageUnresolved).Inc()
		h.logger.Debug("target message unresolved", map[string]interface{}{
			"messageID": id,
			"author":    author,
			"error":     err,
		})
		return nil
	}
	return msg
}

func (h *Handler) resolveProfile(ctx context.Context, actor string) *concrnt.Profile {
	profile, err := h.profiles.GetProfileBySemanticID(ctx, h.config.ProfileSemanticID, actor)
	if err != nil || profile == nil {
		metrics.EventsDropped.WithLabelValues(summarize.DropReasonProfileUnresolved).Inc()
		h.logger.Debug("actor profile unresolved", map[string]interface{}{
			"actor": actor,
			"error": err,
		})
		return nil
	}
	return profile
}

func (h *Handler) deliver(ctx context.Context, a Announcement) {
	for _, sink := range h.sinks {
		if err := sink.Notify(ctx, a); err != nil {
			metrics.AnnouncementsFailed.WithLabelValues(sink.Name()).Inc()
			h.logger.Warn("announcement delivery failed", map[string]interface{}{
				"sink":  sink.Name(),
				"kind":  string(a.Kind),
				"error": err,
			})
			continue
		}
		metrics.AnnouncementsDelivered.WithLabelValues(sink.Name()).Inc()
	}
}
