package stats

import (
	"fmt"

	"github.com/BryanM518/Backend-Encuestas/pkg/utils"

	surveyTypes "github.com/BryanM518/Backend-Encuestas/pkg/surveys/types"
)

const (
	FILTER_OPERATOR_EQUALS                = "equals"
	FILTER_OPERATOR_LESS_THAN             = "less_than"
	FILTER_OPERATOR_GREATER_THAN          = "greater_than"
	FILTER_OPERATOR_LESS_THAN_OR_EQUAL    = "less_than_or_equal"
	FILTER_OPERATOR_GREATER_THAN_OR_EQUAL = "greater_than_or_equal"
)

var validFilterOperators = []string{
	FILTER_OPERATOR_EQUALS,
	FILTER_OPERATOR_LESS_THAN,
	FILTER_OPERATOR_GREATER_THAN,
	FILTER_OPERATOR_LESS_THAN_OR_EQUAL,
	FILTER_OPERATOR_GREATER_THAN_OR_EQUAL,
}

// ResponseFilter restricts aggregation to responses whose numeric answer
// for QuestionID satisfies the operator against Value. Filters are only
// legal against number questions; ValidateFilters enforces this before
// aggregation.
type ResponseFilter struct {
	QuestionID string  `json:"questionId"`
	Operator   string  `json:"operator"`
	Value      float64 `json:"value"`
}

// ValidateFilters checks operators and referenced question types. It must
// be called before Aggregate; the aggregator itself does not re-check.
func ValidateFilters(survey surveyTypes.Survey, filters []ResponseFilter) error {
	for _, f := range filters {
		if !utils.ContainsString(validFilterOperators, f.Operator) {
			return &surveyTypes.ValidationError{Msg: fmt.Sprintf("invalid filter operator: %s", f.Operator)}
		}
		q, ok := survey.GetQuestion(f.QuestionID)
		if !ok || q.Type != surveyTypes.QUESTION_TYPE_NUMBER_INPUT {
			return &surveyTypes.ValidationError{Msg: fmt.Sprintf("filter for question %s is not of type %s", f.QuestionID, surveyTypes.QUESTION_TYPE_NUMBER_INPUT)}
		}
	}
	return nil
}

func filterMatches(f ResponseFilter, answer surveyTypes.AnswerValue) bool {
	v, ok := answer.Float()
	if !ok {
		return false
	}
	switch f.Operator {
	case FILTER_OPERATOR_EQUALS:
		return v == f.Value
	case FILTER_OPERATOR_LESS_THAN:
		return v < f.Value
	case FILTER_OPERATOR_GREATER_THAN:
		return v > f.Value
	case FILTER_OPERATOR_LESS_THAN_OR_EQUAL:
		return v <= f.Value
	case FILTER_OPERATOR_GREATER_THAN_OR_EQUAL:
		return v >= f.Value
	}
	return false
}

// passesFilters is the AND of all filters; responses failing any filter
// are excluded from aggregation entirely.
func passesFilters(answers map[string]surveyTypes.AnswerValue, filters []ResponseFilter) bool {
	for _, f := range filters {
		if !filterMatches(f, answers[f.QuestionID]) {
			return false
		}
	}
	return true
}
