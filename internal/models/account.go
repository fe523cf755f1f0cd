package models

// UserRole tags which kind of account a caller holds.
type UserRole string

const (
	RoleStudent        UserRole = "STUDENT"
	RoleRepresentative UserRole = "REPRESENTATIVE"
	RoleStaff          UserRole = "STAFF"
)

// Placement limits.
const (
	MaxStudentApplications    = 3
	MaxRepresentativePostings = 5
	// MaxBasicOnlyYear is the last year of study restricted to Basic postings.
	MaxBasicOnlyYear = 2
)

// Student is an applicant.
type Student struct {
	ID                   string   `db:"id" json:"id"`
	Name                 string   `db:"name" json:"name"`
	YearOfStudy          int      `db:"year_of_study" json:"year_of_study"`
	Major                string   `db:"major" json:"major"`
	PasswordHash         string   `db:"password_hash" json:"-"`
	ApplicationIDs       []string `db:"-" json:"application_ids"`
	AcceptedInternshipID *string  `db:"accepted_internship_id" json:"accepted_internship_id,omitempty"`
}

// CanApplyForLevel reports whether the student's year permits the level.
func (s *Student) CanApplyForLevel(level InternshipLevel) bool {
	if s.YearOfStudy <= MaxBasicOnlyYear {
		return level == LevelBasic
	}
	return true
}

// HasPlacement reports whether the student already confirmed a placement.
func (s *Student) HasPlacement() bool {
	return s.AcceptedInternshipID != nil
}

// Clone returns a deep copy.
func (s Student) Clone() Student {
	s.ApplicationIDs = cloneIDs(s.ApplicationIDs)
	if s.AcceptedInternshipID != nil {
		id := *s.AcceptedInternshipID
		s.AcceptedInternshipID = &id
	}
	return s
}

// CompanyRepresentative posts internships on behalf of a company.
type CompanyRepresentative struct {
	ID            string   `db:"id" json:"id"`
	Name          string   `db:"name" json:"name"`
	CompanyName   string   `db:"company_name" json:"company_name"`
	Department    string   `db:"department" json:"department"`
	Position      string   `db:"position" json:"position"`
	Approved      bool     `db:"approved" json:"approved"`
	PasswordHash  string   `db:"password_hash" json:"-"`
	InternshipIDs []string `db:"-" json:"internship_ids"`
}

// Clone returns a deep copy.
func (r CompanyRepresentative) Clone() CompanyRepresentative {
	r.InternshipIDs = cloneIDs(r.InternshipIDs)
	return r
}

// CareerCenterStaff adjudicates postings, registrations and withdrawals.
type CareerCenterStaff struct {
	ID           string `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	Department   string `db:"department" json:"department"`
	PasswordHash string `db:"password_hash" json:"-"`
}

// Account is a closed union over the three kinds of user. Exactly one pointer
// matching Role is set.
type Account struct {
	Role           UserRole
	Student        *Student
	Representative *CompanyRepresentative
	Staff          *CareerCenterStaff
}

// ID returns the identifier of whichever account is held.
func (a Account) ID() string {
	switch a.Role {
	case RoleStudent:
		if a.Student != nil {
			return a.Student.ID
		}
	case RoleRepresentative:
		if a.Representative != nil {
			return a.Representative.ID
		}
	case RoleStaff:
		if a.Staff != nil {
			return a.Staff.ID
		}
	}
	return ""
}

// Name returns the display name of the account.
func (a Account) Name() string {
	switch a.Role {
	case RoleStudent:
		if a.Student != nil {
			return a.Student.Name
		}
	case RoleRepresentative:
		if a.Representative != nil {
			return a.Representative.Name
		}
	case RoleStaff:
		if a.Staff != nil {
			return a.Staff.Name
		}
	}
	return ""
}

// PasswordHash returns the stored bcrypt hash.
func (a Account) PasswordHash() string {
	switch a.Role {
	case RoleStudent:
		if a.Student != nil {
			return a.Student.PasswordHash
		}
	case RoleRepresentative:
		if a.Representative != nil {
			return a.Representative.PasswordHash
		}
	case RoleStaff:
		if a.Staff != nil {
			return a.Staff.PasswordHash
		}
	}
	return ""
}

// Info projects the account into the public user info shape.
func (a Account) Info() UserInfo {
	return UserInfo{ID: a.ID(), Name: a.Name(), Role: a.Role}
}
