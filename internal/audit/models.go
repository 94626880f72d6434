package audit

import "time"

// Action names a lifecycle event worth an audit trail entry.
type Action string

const (
	ActionAccountRegistered  Action = "account.registered"
	ActionAccountVerified    Action = "account.email_verified"
	ActionStatusChanged      Action = "account.status_changed"
	ActionProfileRegistered  Action = "profile.registered"
	ActionApprovalCreated    Action = "approval.created"
	ActionApprovalApproved   Action = "approval.approved"
	ActionApprovalActivated  Action = "approval.activated"
	ActionApprovalBlocked    Action = "approval.blocked"
	ActionApprovalUnblocked  Action = "approval.unblocked"
	ActionApprovalMoreInfo   Action = "approval.more_info_requested"
)

// Event is one append-only audit record. Subject identifies the entity the
// event is about (account, profile, or request id); ActorID the caller when
// known.
type Event struct {
	Action    Action    `json:"action"`
	Subject   string    `json:"subject"`
	ActorID   string    `json:"actor_id,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
