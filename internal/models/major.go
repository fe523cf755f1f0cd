package models

// Majors lists every programme a student can be enrolled in and a posting can prefer.
var Majors = []string{
	"Computer Science",
	"Computer Engineering",
	"Mechanical Engineering",
	"Electrical & Electronics Engineering",
	"Bio Engineering",
	"Chemical Engineering",
	"Business",
	"Aerospace Engineering",
	"Accounting",
	"Economics",
	"Art",
}

// IsKnownMajor reports whether major is in the catalogue. Comparison is exact.
func IsKnownMajor(major string) bool {
	for _, m := range Majors {
		if m == major {
			return true
		}
	}
	return false
}
