package dto

import "github.com/noah-isme/placement-api/internal/models"

// CreateInternshipRequest is submitted by a representative. Dates use YYYY-MM-DD.
type CreateInternshipRequest struct {
	Title          string                 `json:"title" validate:"required,max=200"`
	Description    string                 `json:"description" validate:"required,max=4000"`
	Level          models.InternshipLevel `json:"level" validate:"required,oneof=Basic Intermediate Advanced"`
	PreferredMajor string                 `json:"preferred_major" validate:"required"`
	OpeningDate    string                 `json:"opening_date" validate:"required,datetime=2006-01-02"`
	ClosingDate    string                 `json:"closing_date" validate:"required,datetime=2006-01-02"`
	NumSlots       int                    `json:"num_slots" validate:"required,min=1,max=10"`
}

// UpdateInternshipRequest edits a Pending posting. Nil fields are left untouched.
type UpdateInternshipRequest struct {
	Title          *string                 `json:"title" validate:"omitempty,max=200"`
	Description    *string                 `json:"description" validate:"omitempty,max=4000"`
	Level          *models.InternshipLevel `json:"level" validate:"omitempty,oneof=Basic Intermediate Advanced"`
	PreferredMajor *string                 `json:"preferred_major"`
	OpeningDate    *string                 `json:"opening_date" validate:"omitempty,datetime=2006-01-02"`
	ClosingDate    *string                 `json:"closing_date" validate:"omitempty,datetime=2006-01-02"`
	NumSlots       *int                    `json:"num_slots" validate:"omitempty,min=1,max=10"`
}

// Empty reports whether the update carries no field.
func (r UpdateInternshipRequest) Empty() bool {
	return r.Title == nil && r.Description == nil && r.Level == nil && r.PreferredMajor == nil &&
		r.OpeningDate == nil && r.ClosingDate == nil && r.NumSlots == nil
}

// ApplyRequest targets a posting.
type ApplyRequest struct {
	InternshipID string `json:"internship_id" validate:"required"`
}

// WithdrawalRequest carries an optional reason.
type WithdrawalRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// ReviewApplicationRequest is a representative's decision on an application.
type ReviewApplicationRequest struct {
	Approve *bool `json:"approve" validate:"required"`
}

// DecisionRequest is a staff approve/reject decision.
type DecisionRequest struct {
	Approve *bool `json:"approve" validate:"required"`
}

// DiscoveryQuery selects the discovery mode. Without open_only the listing
// is limited to postings whose application window is open today.
type DiscoveryQuery struct {
	OpenOnly bool `form:"open_only,default=true"`
}

// InternshipReportQuery is the staff report filter as received over HTTP.
type InternshipReportQuery struct {
	Status         string `form:"status" validate:"omitempty,oneof=Pending Approved Rejected Filled"`
	PreferredMajor string `form:"major"`
	Level          string `form:"level" validate:"omitempty,oneof=Basic Intermediate Advanced"`
	CompanyName    string `form:"company"`
	ClosingBefore  string `form:"closing_before" validate:"omitempty,datetime=2006-01-02"`
	Keyword        string `form:"q" validate:"max=200"`
	SortBy         string `form:"sort" validate:"omitempty,oneof=title closing_date"`
	Page           int    `form:"page" validate:"min=0"`
	PageSize       int    `form:"page_size" validate:"min=0,max=100"`
	Format         string `form:"format" validate:"omitempty,oneof=csv pdf CSV PDF"`
}
