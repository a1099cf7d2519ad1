package eligibility

import (
	"sort"

	"github.com/noah-isme/scholarship-api/internal/models"
)

// Ranked pairs a scholarship with its match score.
type Ranked struct {
	Scholarship models.Scholarship
	Score       int
}

// Rank orders scholarships by score descending, then earlier deadline, then
// lower ID, so equal inputs always produce the same order.
func Rank(student models.Student, scholarships []models.Scholarship) []Ranked {
	ranked := make([]Ranked, 0, len(scholarships))
	for _, scholarship := range scholarships {
		ranked = append(ranked, Ranked{Scholarship: scholarship, Score: Score(student, scholarship)})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.Scholarship.ApplicationDeadline.Equal(b.Scholarship.ApplicationDeadline) {
			return a.Scholarship.ApplicationDeadline.Before(b.Scholarship.ApplicationDeadline)
		}
		return a.Scholarship.ID < b.Scholarship.ID
	})

	return ranked
}
