package models

import "time"

type DecisionOutcome string

const (
	DecisionApproved DecisionOutcome = "approved"
	DecisionRejected DecisionOutcome = "rejected"
)

// ApprovalDecision is an immutable audit record of one approve/reject action
// on a payment schedule. Written once, never updated.
type ApprovalDecision struct {
	ScheduleID   string          `json:"schedule_id" bson:"schedule_id"`
	ObligationID string          `json:"obligation_id" bson:"obligation_id"`
	Outcome      DecisionOutcome `json:"outcome" bson:"outcome"`
	ActorID      string          `json:"actor_id" bson:"actor_id"`
	ActorName    string          `json:"actor_name" bson:"actor_name"`
	Reason       *string         `json:"reason,omitempty" bson:"reason,omitempty"`
	Notes        *string         `json:"notes,omitempty" bson:"notes,omitempty"`
	AutoApproved bool            `json:"auto_approved" bson:"auto_approved"`
	DecidedAt    time.Time       `json:"decided_at" bson:"decided_at"`
}

// Actor is the acting user attached to a request by the auth middleware.
// AuthorityLevel feeds the approval-threshold policy.
type Actor struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	AuthorityLevel int    `json:"authority_level"`
}

// Authority levels, lowest to highest.
const (
	AuthorityClerk    = 1
	AuthorityManager  = 2
	AuthorityDirector = 3
)
