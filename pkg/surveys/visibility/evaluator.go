// Package visibility decides whether a question may legitimately carry an
// answer, based on its visibility condition and the rest of the
// respondent's answers.
package visibility

import (
	"strings"

	surveyTypes "github.com/BryanM518/Backend-Encuestas/pkg/surveys/types"
)

// Evaluate computes whether the condition holds for the given answer set.
// An absent reference answer is treated as an empty value. Unknown
// operators evaluate false, matching the conservative validator below.
//
// For the in/not_in operators a scalar reference answer is split on commas
// before membership testing. This is a compatibility shim for legacy
// multi-select answers stored as a single joined string, not a designed
// semantic; list answers are matched element-wise.
func Evaluate(cond surveyTypes.VisibilityCondition, answers map[string]surveyTypes.AnswerValue) bool {
	ref := answers[cond.QuestionID]
	value := cond.ValueString()

	switch cond.Operator {
	case surveyTypes.CONDITION_OPERATOR_EQUALS:
		return ref.String() == value
	case surveyTypes.CONDITION_OPERATOR_NOT_EQUALS:
		return ref.String() != value
	case surveyTypes.CONDITION_OPERATOR_IN:
		return containsValue(ref, value)
	case surveyTypes.CONDITION_OPERATOR_NOT_IN:
		return !containsValue(ref, value)
	}
	return false
}

func containsValue(ref surveyTypes.AnswerValue, value string) bool {
	if ref.Kind == surveyTypes.AnswerKindList {
		for _, item := range ref.List {
			if item == value {
				return true
			}
		}
		return false
	}
	for _, token := range strings.Split(ref.String(), ",") {
		if token == value {
			return true
		}
	}
	return false
}

// ValidateSubmission checks every conditioned question of the survey and
// fails with a VisibilityError if an answer is present for a question
// whose condition evaluates false. It never requires an answer to be
// present; requiredness is the calling layer's concern.
func ValidateSubmission(survey surveyTypes.Survey, answers map[string]surveyTypes.AnswerValue) error {
	for _, q := range survey.Questions {
		if q.VisibleIf == nil {
			continue
		}
		if Evaluate(*q.VisibleIf, answers) {
			continue
		}
		if _, answered := answers[q.ID]; answered {
			return &surveyTypes.VisibilityError{
				QuestionID:   q.ID,
				QuestionText: truncateQuestionText(q.Text),
			}
		}
	}
	return nil
}

func truncateQuestionText(text string) string {
	runes := []rune(text)
	if len(runes) > 50 {
		return string(runes[:50]) + "..."
	}
	return text
}
