package models

import "time"

// ActivityAction identifies the lifecycle event an activity row describes.
type ActivityAction string

const (
	ActionInternshipCreated     ActivityAction = "internship.created"
	ActionInternshipUpdated     ActivityAction = "internship.updated"
	ActionInternshipDeleted     ActivityAction = "internship.deleted"
	ActionInternshipApproved    ActivityAction = "internship.approved"
	ActionInternshipRejected    ActivityAction = "internship.rejected"
	ActionVisibilityToggled     ActivityAction = "internship.visibility_toggled"
	ActionApplicationSubmitted  ActivityAction = "application.submitted"
	ActionApplicationReviewed   ActivityAction = "application.reviewed"
	ActionPlacementAccepted     ActivityAction = "application.accepted"
	ActionWithdrawalRequested   ActivityAction = "withdrawal.requested"
	ActionWithdrawalApproved    ActivityAction = "withdrawal.approved"
	ActionWithdrawalRejected    ActivityAction = "withdrawal.rejected"
	ActionRegistrationSubmitted ActivityAction = "registration.submitted"
	ActionRegistrationApproved  ActivityAction = "registration.approved"
	ActionRegistrationRejected  ActivityAction = "registration.rejected"
	ActionLogin                 ActivityAction = "account.login"
	ActionPasswordChanged       ActivityAction = "account.password_changed"
	ActionPasswordReset         ActivityAction = "account.password_reset"
)

// ActivityLog is an observational record of a state change.
type ActivityLog struct {
	ID              string         `db:"id" json:"id"`
	ActorID         string         `db:"actor_id" json:"actor_id"`
	ActorRole       UserRole       `db:"actor_role" json:"actor_role"`
	Action          ActivityAction `db:"action" json:"action"`
	Description     string         `db:"description" json:"description"`
	RelatedEntityID string         `db:"related_entity_id" json:"related_entity_id"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
}

// ActivityFilter narrows activity log listings.
type ActivityFilter struct {
	ActorID  string
	Action   ActivityAction
	Page     int
	PageSize int
}
