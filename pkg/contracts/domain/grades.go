package domain

// GradeLetters lists the letter grades from best to worst, matching the
// band order used by LetterGrade.
var GradeLetters = []string{"A+", "A", "B+", "B", "C+", "C", "D", "F"}

// LetterGrade converts a mark to a letter grade given the maximum
// possible mark. Bands are percentage based: A+ from 95%, then 10-point
// steps down to D at 35%, with F below that.
func LetterGrade(mark, maxMark float64) string {
	if maxMark <= 0 {
		return "F"
	}
	percentage := mark / maxMark * 100

	switch {
	case percentage >= 95:
		return "A+"
	case percentage >= 85:
		return "A"
	case percentage >= 75:
		return "B+"
	case percentage >= 65:
		return "B"
	case percentage >= 55:
		return "C+"
	case percentage >= 45:
		return "C"
	case percentage >= 35:
		return "D"
	default:
		return "F"
	}
}
