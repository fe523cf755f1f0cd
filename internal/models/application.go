package models

import "time"

// ApplicationStatus represents the lifecycle of an internship application.
type ApplicationStatus string

const (
	ApplicationPending      ApplicationStatus = "Pending"
	ApplicationSuccessful   ApplicationStatus = "Successful"
	ApplicationUnsuccessful ApplicationStatus = "Unsuccessful"
	ApplicationWithdrawn    ApplicationStatus = "Withdrawn"
)

// Default withdrawal reasons recorded when the student gives none.
const (
	DefaultConfirmedWithdrawalReason = "Withdrawal after confirmation"
	DefaultWithdrawalReason          = "Withdrawal request"
)

// Application is a student's bid for a single internship. Applications are never deleted.
type Application struct {
	ID                  string            `db:"id" json:"id"`
	StudentID           string            `db:"student_id" json:"student_id"`
	InternshipID        string            `db:"internship_id" json:"internship_id"`
	Status              ApplicationStatus `db:"status" json:"status"`
	Confirmed           bool              `db:"confirmed" json:"confirmed"`
	WithdrawalRequested bool              `db:"withdrawal_requested" json:"withdrawal_requested"`
	WithdrawalReason    *string           `db:"withdrawal_reason" json:"withdrawal_reason,omitempty"`
	CreatedAt           time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time         `db:"updated_at" json:"updated_at"`
}

// Clone returns a deep copy.
func (a Application) Clone() Application {
	if a.WithdrawalReason != nil {
		reason := *a.WithdrawalReason
		a.WithdrawalReason = &reason
	}
	return a
}

// ApplicationDetail enriches an application with its posting for student listings.
type ApplicationDetail struct {
	Application
	InternshipTitle string           `json:"internship_title"`
	CompanyName     string           `json:"company_name"`
	InternshipState InternshipStatus `json:"internship_status"`
}

// WithdrawalRequestView is a pending withdrawal as presented to staff.
type WithdrawalRequestView struct {
	Application
	StudentName     string `json:"student_name"`
	InternshipTitle string `json:"internship_title"`
	CompanyName     string `json:"company_name"`
}
