// Package classify maps association schemas onto the fixed set of
// notification kinds.
package classify

import "concrnt-notifier/internal/concrnt"

// Kind is the notification kind of an association event.
type Kind string

const (
	KindReply      Kind = "reply"
	KindReroute    Kind = "reroute"
	KindLike       Kind = "like"
	KindReaction   Kind = "reaction"
	KindMention    Kind = "mention"
	KindReadAccess Kind = "readaccess"

	// KindIndividual is the default bucket for schemas outside the fixed
	// set. Unknown schemas are valid input, not errors.
	KindIndividual Kind = "individual"
)

// Classify returns the kind for a schema URI. Total over all inputs.
func Classify(schema string) Kind {
	switch schema {
	case concrnt.SchemaReplyAssociation:
		return KindReply
	case concrnt.SchemaRerouteAssociation:
		return KindReroute
	case concrnt.SchemaLikeAssociation:
		return KindLike
	case concrnt.SchemaReactionAssociation:
		return KindReaction
	case concrnt.SchemaMentionAssociation:
		return KindMention
	case concrnt.SchemaReadAccessRequestAssociation:
		return KindReadAccess
	default:
		return KindIndividual
	}
}

// Summarisable reports whether events of this kind collapse into
// same-target display groups.
func Summarisable(k Kind) bool {
	return k == KindLike || k == KindReaction
}
