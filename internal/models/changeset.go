package models

// ChangeSet lists every entity touched by one successful operation.
type ChangeSet struct {
	Internships              []Internship
	Applications             []Application
	Students                 []Student
	Representatives          []CompanyRepresentative
	Staff                    []CareerCenterStaff
	RemovedInternshipIDs     []string
	RemovedRepresentativeIDs []string
}

// Empty reports whether the change set carries nothing.
func (c ChangeSet) Empty() bool {
	return len(c.Internships) == 0 &&
		len(c.Applications) == 0 &&
		len(c.Students) == 0 &&
		len(c.Representatives) == 0 &&
		len(c.Staff) == 0 &&
		len(c.RemovedInternshipIDs) == 0 &&
		len(c.RemovedRepresentativeIDs) == 0
}
