package model

// Grade is one of the fixed grade levels a class or subject can target.
type Grade string

// Grades lists the accepted grade levels in school order.
var Grades = []Grade{
	"Pre KG", "LKG", "UKG",
	"Class 1", "Class 2", "Class 3", "Class 4", "Class 5",
	"Class 6", "Class 7", "Class 8", "Class 9", "Class 10",
}

// Valid reports whether g is one of Grades.
func (g Grade) Valid() bool {
	for _, v := range Grades {
		if g == v {
			return true
		}
	}
	return false
}

// Rank is g's position in Grades. Unknown grades rank after all known ones.
func (g Grade) Rank() int {
	for i, v := range Grades {
		if g == v {
			return i
		}
	}
	return len(Grades)
}
