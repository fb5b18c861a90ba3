package concrnt

import "context"

// TimelineReader exposes a paginated notification timeline. Body grows as
// ReadMore appends pages; callers consume the newly appended slice since
// their last read.
type TimelineReader interface {
	Init(ctx context.Context, timelineID string, query []string, batchSize int) (hasMore bool, err error)
	ReadMore(ctx context.Context) (hasMore bool, err error)
	Reload(ctx context.Context) (hasMore bool, err error)
	Body() []TimelineItem
}

// AssociationResolver resolves a timeline pointer to its concrete
// association. A nil result with nil error means the association is gone.
type AssociationResolver interface {
	GetAssociation(ctx context.Context, id, owner string) (*AssociationEvent, error)
}

// MessageResolver resolves a target message given an author hint.
type MessageResolver interface {
	GetMessageWithAuthor(ctx context.Context, id, author string) (*Message, error)
}

// ProfileResolver resolves an actor's profile by semantic schema ID.
type ProfileResolver interface {
	GetProfileBySemanticID(ctx context.Context, semanticID, actor string) (*Profile, error)
}

// RealtimeSource delivers live association events. The channel closes when
// the source shuts down.
type RealtimeSource interface {
	Events() <-chan RealtimeEvent
}
