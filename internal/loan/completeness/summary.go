package completeness

import "staff-loans/internal/models"

type Indicator string

const (
	IndicatorLow    Indicator = "low"
	IndicatorMedium Indicator = "medium"
	IndicatorHigh   Indicator = "high"
)

// IndicatorFor buckets a score for progress colouring.
func IndicatorFor(score models.CompletenessScore) Indicator {
	switch {
	case score.Overall < 33:
		return IndicatorLow
	case score.Overall < 75:
		return IndicatorMedium
	default:
		return IndicatorHigh
	}
}

// Summary is the dashboard header for one staff member's loans.
type Summary struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Accepted int `json:"accepted"`
}

// Summarize counts applications. A loan is pending while it has not been
// accepted and is still incomplete.
func Summarize(apps []*models.LoanApplication) Summary {
	var s Summary
	for _, app := range apps {
		if app == nil {
			continue
		}
		s.Total++
		if app.Status == models.StatusAccepted {
			s.Accepted++
			continue
		}
		if !IsComplete(ScoreApplication(app)) {
			s.Pending++
		}
	}
	return s
}
