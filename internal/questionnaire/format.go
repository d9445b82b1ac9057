package questionnaire

import (
	"fmt"

	"geoportal-service/internal/domain"
)

const (
	LevelHigh   = "high"
	LevelMedium = "medium"
	LevelLow    = "low"
)

// MatchLevel buckets a match percentage for display.
func MatchLevel(pct int) string {
	switch {
	case pct >= 80:
		return LevelHigh
	case pct >= 50:
		return LevelMedium
	default:
		return LevelLow
	}
}

// FormatMatchPercentage renders a percentage as "N% Match".
func FormatMatchPercentage(pct int) string {
	return fmt.Sprintf("%d%% Match", pct)
}

// IsComplete reports whether answers covers total questions, each with a selected option.
func IsComplete(answers []domain.UserAnswer, total int) bool {
	if len(answers) != total {
		return false
	}
	for _, a := range answers {
		if a.QuestionID == "" || a.SelectedOptionID == "" {
			return false
		}
	}
	return true
}
