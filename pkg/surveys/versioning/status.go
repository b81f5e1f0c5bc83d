package versioning

import (
	"time"

	surveyTypes "github.com/BryanM518/Backend-Encuestas/pkg/surveys/types"
)

// DeriveStatus computes the lifecycle status from the survey's boundary
// timestamps. It is a pure function of the clock; whether and when the
// result is written back to the store is the caller's decision.
func DeriveStatus(survey surveyTypes.Survey, now time.Time) string {
	if survey.EndDate != nil && now.After(*survey.EndDate) {
		return surveyTypes.SURVEY_STATUS_CLOSED
	}
	if survey.StartDate != nil && !now.Before(*survey.StartDate) {
		return surveyTypes.SURVEY_STATUS_PUBLISHED
	}
	return surveyTypes.SURVEY_STATUS_CREATED
}
