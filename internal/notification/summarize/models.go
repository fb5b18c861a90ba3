package summarize

import "concrnt-notifier/internal/concrnt"

// GroupKind discriminates the two group shapes.
type GroupKind string

const (
	GroupSummarised GroupKind = "summarised"
	GroupNormal     GroupKind = "normal"
)

// Group is a derived, transient aggregation of one or more association
// events sharing a grouping key. Summarised groups carry Items; normal
// groups wrap exactly one event in Item.
type Group struct {
	Key   string                     `json:"key"`
	Kind  GroupKind                  `json:"kind"`
	Items []concrnt.AssociationEvent `json:"items,omitempty"`
	Item  *concrnt.AssociationEvent  `json:"item,omitempty"`
}

// Events returns the events in the group regardless of its kind.
func (g Group) Events() []concrnt.AssociationEvent {
	if g.Kind == GroupSummarised {
		return g.Items
	}
	if g.Item != nil {
		return []concrnt.AssociationEvent{*g.Item}
	}
	return nil
}

// Drop reasons counted when an event never reaches a group or a toast.
const (
	DropReasonAssociationUnresolved = "association_unresolved"
	DropReasonMissingItem           = "missing_item"
	DropReasonMessageUnresolved     = "message_unresolved"
	DropReasonProfileUnresolved     = "profile_unresolved"
	DropReasonInvalidPayload        = "invalid_payload"
	DropReasonDuplicate             = "duplicate"
)
