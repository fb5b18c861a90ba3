// Package realtime delivers live association events from the protocol
// bridge, which republishes its socket traffic on a Redis channel.
package realtime

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"concrnt-notifier/internal/common/logger"
	"concrnt-notifier/internal/common/metrics"
	"concrnt-notifier/internal/common/validation"
	"concrnt-notifier/internal/concrnt"
	"concrnt-notifier/internal/notification/summarize"
)

type Source struct {
	rdb       *redis.Client
	channel   string
	validator *validation.Validator
	logger    logger.Logger
	events    chan concrnt.RealtimeEvent
}

func NewSource(rdb *redis.Client, channel string, validator *validation.Validator, log logger.Logger) *Source {
	return &Source{
		rdb:       rdb,
		channel:   channel,
		validator: validator,
		logger:    log.WithFields(map[string]interface{}{"component": "realtime"}),
		events:    make(chan concrnt.RealtimeEvent, 64),
	}
}

// Events returns the live event stream. The channel closes when Run
// returns.
func (s *Source) Events() <-chan concrnt.RealtimeEvent {
	return s.events
}

// Run subscribes and pumps events until the context is cancelled.
// Malformed payloads are counted and dropped, never forwarded.
func (s *Source) Run(ctx context.Context) error {
	sub := s.rdb.Subscribe(ctx, s.channel)
	defer sub.Close()
	defer close(s.events)

	// Confirm the subscription before consuming.
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	s.logger.Info("subscribed to realtime channel", map[string]interface{}{
		"channel": s.channel,
	})

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			s.handle(ctx, []byte(msg.Payload))
		}
	}
}

func (s *Source) handle(ctx context.Context, payload []byte) {
	if err := s.validator.ValidateRealtimeEvent(payload); err != nil {
		metrics.EventsDropped.WithLabelValues(summarize.DropReasonInvalidPayload).Inc()
		s.logger.Debug("dropping invalid realtime payload", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	var ev concrnt.RealtimeEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		metrics.EventsDropped.WithLabelValues(summarize.DropReasonInvalidPayload).Inc()
		s.logger.Debug("dropping undecodable realtime payload", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	select {
	case s.events <- ev:
	case <-ctx.Done():
	}
}
