package model

// RecipientType flags which state directories a transition notification
// draws role recipients from. The values are a bitmask as stored in the
// backing table: to-state is bit 1, from-state is bit 2.
type RecipientType int

const (
	RecipientNone      RecipientType = 0
	RecipientToState   RecipientType = 1
	RecipientFromState RecipientType = 2
	RecipientBoth      RecipientType = 3
)

// IncludesToState reports whether the flag targets to-state roles.
func (t RecipientType) IncludesToState() bool {
	return t&RecipientToState != 0
}

// IncludesFromState reports whether the flag targets from-state roles.
func (t RecipientType) IncludesFromState() bool {
	return t&RecipientFromState != 0
}

// NotificationRecord is one notification definition attached to a workflow
// transition. A transition owns an ordered sequence of these; order is the
// order the notifications were defined and is significant for delivery.
type NotificationRecord struct {
	WorkflowID     int64         `json:"workflow_id"`
	TransitionID   int64         `json:"transition_id"`
	NotificationID int64         `json:"notification_id"`
	Recipient      RecipientType `json:"recipient_type"`

	// Validation hints: when set and the corresponding directory contributes
	// zero recipients, the routed notification is flagged under-resourced.
	RequireFromStateRoles bool `json:"require_from_state_roles"`
	RequireToStateRoles   bool `json:"require_to_state_roles"`

	NotifyFromStateRoles bool `json:"notify_from_state_roles"`
	NotifyToStateRoles   bool `json:"notify_to_state_roles"`

	// Passed through verbatim, never deduplicated against role recipients.
	AdditionalRecipients []string `json:"additional_recipients,omitempty"`
	CCList               []string `json:"cc_list,omitempty"`
}

// ResolvedNotification is the routing result for one notification record.
// Recipient order follows directory result order for role recipients, then
// the additional recipients verbatim.
type ResolvedNotification struct {
	DispatchID     string   `json:"dispatch_id"`
	NotificationID int64    `json:"notification_id"`
	Recipients     []string `json:"recipients"`
	CC             []string `json:"cc,omitempty"`

	// Under-resourced flags: a required directory contributed no recipients.
	// Surfaced to the caller, never suppresses the notification.
	MissingFromStateRoles bool `json:"missing_from_state_roles,omitempty"`
	MissingToStateRoles   bool `json:"missing_to_state_roles,omitempty"`
}
