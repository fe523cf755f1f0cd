package models

import "time"

// InternshipLevel grades how demanding a posting is.
type InternshipLevel string

const (
	LevelBasic        InternshipLevel = "Basic"
	LevelIntermediate InternshipLevel = "Intermediate"
	LevelAdvanced     InternshipLevel = "Advanced"
)

// Valid reports whether the level is one of the known grades.
func (l InternshipLevel) Valid() bool {
	switch l {
	case LevelBasic, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

// InternshipStatus represents the posting lifecycle.
type InternshipStatus string

const (
	InternshipPending  InternshipStatus = "Pending"
	InternshipApproved InternshipStatus = "Approved"
	InternshipRejected InternshipStatus = "Rejected"
	InternshipFilled   InternshipStatus = "Filled"
)

// Valid reports whether the status is a known posting status.
func (s InternshipStatus) Valid() bool {
	switch s {
	case InternshipPending, InternshipApproved, InternshipRejected, InternshipFilled:
		return true
	}
	return false
}

// Internship is a posting offered by a company representative.
type Internship struct {
	ID               string           `db:"id" json:"id"`
	Title            string           `db:"title" json:"title"`
	Description      string           `db:"description" json:"description"`
	Level            InternshipLevel  `db:"level" json:"level"`
	PreferredMajor   string           `db:"preferred_major" json:"preferred_major"`
	OpeningDate      time.Time        `db:"opening_date" json:"opening_date"`
	ClosingDate      time.Time        `db:"closing_date" json:"closing_date"`
	CompanyName      string           `db:"company_name" json:"company_name"`
	RepresentativeID string           `db:"representative_id" json:"representative_id"`
	NumSlots         int              `db:"num_slots" json:"num_slots"`
	FilledSlots      int              `db:"filled_slots" json:"filled_slots"`
	Visible          bool             `db:"visible" json:"visible"`
	Status           InternshipStatus `db:"status" json:"status"`
	ApplicationIDs   []string         `db:"-" json:"application_ids,omitempty"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

// IsFull reports whether every slot has been consumed.
func (i *Internship) IsFull() bool {
	return i.FilledSlots >= i.NumSlots
}

// CanApply reports whether a student may still submit an application on today.
func (i *Internship) CanApply(today time.Time) bool {
	return i.Visible &&
		i.Status == InternshipApproved &&
		!Day(today).After(i.ClosingDate) &&
		!i.IsFull()
}

// IsOpenOn reports whether today falls strictly between the opening and closing dates.
func (i *Internship) IsOpenOn(today time.Time) bool {
	d := Day(today)
	return i.OpeningDate.Before(d) && d.Before(i.ClosingDate)
}

// WithinWindow reports whether today lies inside [OpeningDate, ClosingDate].
func (i *Internship) WithinWindow(today time.Time) bool {
	d := Day(today)
	return !d.Before(i.OpeningDate) && !d.After(i.ClosingDate)
}

// Clone returns a deep copy.
func (i Internship) Clone() Internship {
	i.ApplicationIDs = cloneIDs(i.ApplicationIDs)
	return i
}

// StudentView drops the ids of other students' applications.
func (i Internship) StudentView() Internship {
	i.ApplicationIDs = nil
	return i
}

// InternshipFilter narrows staff reports.
type InternshipFilter struct {
	Status         InternshipStatus
	PreferredMajor string
	Level          InternshipLevel
	CompanyName    string
	ClosingBefore  *time.Time
	Keyword        string
	SortBy         string
	Page           int
	PageSize       int
}

// Report sort keys.
const (
	SortByTitle       = "title"
	SortByClosingDate = "closing_date"
)

// Day truncates t to midnight UTC so dates compare by calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func cloneIDs(ids []string) []string {
	if ids == nil {
		return nil
	}
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// RemoveID returns ids without target, preserving order.
func RemoveID(ids []string, target string) []string {
	out := ids[:0:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

// ContainsID reports whether target is in ids.
func ContainsID(ids []string, target string) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}
