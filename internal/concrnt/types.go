// Package concrnt defines the data types and collaborator contracts of the
// Concrnt protocol layer this service consumes. The protocol implementation
// itself (timeline synchronization, sockets, signing) lives upstream; only
// its shapes and contracts are declared here.
package concrnt

import "time"

// Association schema URIs. Unknown schemas are valid input and classify as
// individual notifications.
const (
	SchemaReplyAssociation             = "https://schema.concrnt.world/a/reply.json"
	SchemaRerouteAssociation           = "https://schema.concrnt.world/a/reroute.json"
	SchemaLikeAssociation              = "https://schema.concrnt.world/a/like.json"
	SchemaReactionAssociation          = "https://schema.concrnt.world/a/reaction.json"
	SchemaMentionAssociation           = "https://schema.concrnt.world/a/mention.json"
	SchemaReadAccessRequestAssociation = "https://schema.concrnt.world/a/readaccessrequest.json"
)

// AssociationEvent is an append-only record of a reaction-like action
// (reply, reroute, like, emoji reaction, mention, access request) attached
// to a target resource. Created by the protocol layer; never mutated here.
type AssociationEvent struct {
	ID       string          `json:"id"`
	Schema   string          `json:"schema"`
	Target   string          `json:"target"`
	Author   string          `json:"author"` // CCID of the actor
	Owner    string          `json:"owner"`  // CCID of the target resource's owner
	SignedAt time.Time       `json:"signedAt"`
	Variant  string          `json:"variant,omitempty"` // reaction shortcode key
	Body     AssociationBody `json:"body"`
}

// AssociationBody carries the kind-specific payload.
type AssociationBody struct {
	ImageURL        string           `json:"imageUrl,omitempty"`
	ProfileOverride *ProfileOverride `json:"profileOverride,omitempty"`
}

// ProfileOverride lets an actor present a per-message identity.
type ProfileOverride struct {
	Username string `json:"username,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

// Message is the target resource an association points at.
type Message struct {
	ID        string            `json:"id"`
	Author    string            `json:"author"`
	Body      string            `json:"body"`
	EmojiDict map[string]Emoji  `json:"emojis,omitempty"`
	Media     []MediaAttachment `json:"media,omitempty"`
}

// Emoji maps a shortcode to its image.
type Emoji struct {
	ImageURL string `json:"imageURL"`
}

// MediaAttachment is an attached file on a message.
type MediaAttachment struct {
	URL     string `json:"mediaURL"`
	Type    string `json:"mediaType"`
	AltText string `json:"flag,omitempty"`
}

// Profile is an actor's display profile.
type Profile struct {
	CCID     string `json:"ccid"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// TimelineItem is a resource pointer in an ordered, paginated feed.
type TimelineItem struct {
	ResourceID string    `json:"resourceID"`
	Owner      string    `json:"owner"`
	TimelineID string    `json:"timelineID"`
	LastUpdate time.Time `json:"lastUpdate"`
}

// RealtimeEvent is an association event delivered over the live socket
// rather than a paginated fetch. Item is present only for target-bearing
// pushes; historical replays may omit it.
type RealtimeEvent struct {
	TimelineID  string            `json:"timelineID"`
	Item        *TimelineItem     `json:"item,omitempty"`
	Association *AssociationEvent `json:"association"`
}
