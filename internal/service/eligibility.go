package service

import (
	"time"

	"github.com/noah-isme/placement-api/internal/models"
	appErrors "github.com/noah-isme/placement-api/pkg/errors"
)

// IsDiscoverable decides whether a posting shows up in a student's listing.
// openOnly additionally requires today to fall strictly inside the posting window.
func IsDiscoverable(internship *models.Internship, student *models.Student, today time.Time, openOnly bool) bool {
	if !internship.Visible || internship.Status != models.InternshipApproved {
		return false
	}
	if internship.PreferredMajor != student.Major {
		return false
	}
	if !student.CanApplyForLevel(internship.Level) || internship.IsFull() {
		return false
	}
	if openOnly && !internship.IsOpenOn(today) {
		return false
	}
	return true
}

// CheckApplyEligibility runs the posting and student checks of an application in order:
// the posting must accept applications today, then the student must match it.
func CheckApplyEligibility(student *models.Student, internship *models.Internship, today time.Time) error {
	if !internship.CanApply(today) {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "internship is not accepting applications")
	}
	if !student.CanApplyForLevel(internship.Level) {
		return appErrors.Clone(appErrors.ErrIneligibleMatch, "year 1 and 2 students may only apply to Basic internships")
	}
	if internship.PreferredMajor != student.Major {
		return appErrors.Clone(appErrors.ErrIneligibleMatch, "internship prefers a different major")
	}
	return nil
}

// CheckApplicationLimit fails once a student tracks max applications.
func CheckApplicationLimit(student *models.Student, max int) error {
	if len(student.ApplicationIDs) >= max {
		return appErrors.Clone(appErrors.ErrLimitExceeded, "student has reached the application limit")
	}
	return nil
}

// CheckPostingLimit fails once a representative owns max postings.
func CheckPostingLimit(rep *models.CompanyRepresentative, max int) error {
	if len(rep.InternshipIDs) >= max {
		return appErrors.Clone(appErrors.ErrLimitExceeded, "representative has reached the internship limit")
	}
	return nil
}
