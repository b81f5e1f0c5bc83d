package visibility

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	surveyTypes "github.com/BryanM518/Backend-Encuestas/pkg/surveys/types"
)

func answersFrom(raw map[string]any) map[string]surveyTypes.AnswerValue {
	return surveyTypes.ParseAnswerMap(raw)
}

func TestEvaluate(t *testing.T) {
	t.Run("equals matches", func(t *testing.T) {
		cond := surveyTypes.VisibilityCondition{QuestionID: "q1", Operator: surveyTypes.CONDITION_OPERATOR_EQUALS, Value: "yes"}
		if !Evaluate(cond, answersFrom(map[string]any{"q1": "yes"})) {
			t.Error("should evaluate true")
		}
		if Evaluate(cond, answersFrom(map[string]any{"q1": "no"})) {
			t.Error("should evaluate false")
		}
	})

	t.Run("equals with numeric answer", func(t *testing.T) {
		cond := surveyTypes.VisibilityCondition{QuestionID: "q1", Operator: surveyTypes.CONDITION_OPERATOR_EQUALS, Value: "5"}
		if !Evaluate(cond, answersFrom(map[string]any{"q1": 5})) {
			t.Error("should evaluate true for numeric 5 against '5'")
		}
		if !Evaluate(cond, answersFrom(map[string]any{"q1": 5.0})) {
			t.Error("should evaluate true for float 5.0 against '5'")
		}
	})

	t.Run("absent reference answer compares as empty", func(t *testing.T) {
		cond := surveyTypes.VisibilityCondition{QuestionID: "missing", Operator: surveyTypes.CONDITION_OPERATOR_EQUALS, Value: ""}
		if !Evaluate(cond, answersFrom(map[string]any{})) {
			t.Error("absent answer should equal empty string")
		}

		cond.Operator = surveyTypes.CONDITION_OPERATOR_NOT_EQUALS
		if Evaluate(cond, answersFrom(map[string]any{})) {
			t.Error("absent answer should not be not_equals empty string")
		}
	})

	t.Run("not_equals is the complement of equals", func(t *testing.T) {
		answerSets := []map[string]any{
			{"q1": "yes"},
			{"q1": "no"},
			{"q1": 3},
			{},
		}
		for _, raw := range answerSets {
			answers := answersFrom(raw)
			eq := Evaluate(surveyTypes.VisibilityCondition{QuestionID: "q1", Operator: surveyTypes.CONDITION_OPERATOR_EQUALS, Value: "yes"}, answers)
			neq := Evaluate(surveyTypes.VisibilityCondition{QuestionID: "q1", Operator: surveyTypes.CONDITION_OPERATOR_NOT_EQUALS, Value: "yes"}, answers)
			if eq == neq {
				t.Errorf("equals and not_equals should disagree for answers %v", raw)
			}
		}
	})

	t.Run("in with list answer", func(t *testing.T) {
		cond := surveyTypes.VisibilityCondition{QuestionID: "q2", Operator: surveyTypes.CONDITION_OPERATOR_IN, Value: "blue"}
		if !Evaluate(cond, answersFrom(map[string]any{"q2": []any{"red", "blue"}})) {
			t.Error("should find blue in list answer")
		}
		if Evaluate(cond, answersFrom(map[string]any{"q2": []any{"red", "green"}})) {
			t.Error("should not find blue")
		}
	})

	t.Run("in splits comma separated scalar answers", func(t *testing.T) {
		cond := surveyTypes.VisibilityCondition{QuestionID: "q2", Operator: surveyTypes.CONDITION_OPERATOR_IN, Value: "blue"}
		if !Evaluate(cond, answersFrom(map[string]any{"q2": "red,blue,green"})) {
			t.Error("should find blue in comma separated scalar")
		}
		if Evaluate(cond, answersFrom(map[string]any{"q2": "red,light blue"})) {
			t.Error("blue is not a token of red,light blue")
		}
	})

	t.Run("not_in is the complement of in", func(t *testing.T) {
		answerSets := []map[string]any{
			{"q2": []any{"red", "blue"}},
			{"q2": []any{"red"}},
			{"q2": "red,blue"},
			{"q2": "blue"},
			{},
		}
		for _, raw := range answerSets {
			answers := answersFrom(raw)
			in := Evaluate(surveyTypes.VisibilityCondition{QuestionID: "q2", Operator: surveyTypes.CONDITION_OPERATOR_IN, Value: "blue"}, answers)
			notIn := Evaluate(surveyTypes.VisibilityCondition{QuestionID: "q2", Operator: surveyTypes.CONDITION_OPERATOR_NOT_IN, Value: "blue"}, answers)
			if in == notIn {
				t.Errorf("in and not_in should disagree for answers %v", raw)
			}
		}
	})

	t.Run("unknown operator evaluates false", func(t *testing.T) {
		cond := surveyTypes.VisibilityCondition{QuestionID: "q1", Operator: "contains", Value: "yes"}
		if Evaluate(cond, answersFrom(map[string]any{"q1": "yes"})) {
			t.Error("unknown operator should evaluate false")
		}
	})
}

func testSurvey() surveyTypes.Survey {
	return surveyTypes.Survey{
		Title: "Test survey",
		Questions: []surveyTypes.Question{
			{ID: "q1", Type: surveyTypes.QUESTION_TYPE_MULTIPLE_CHOICE, Text: "Do you own a car?", Options: []string{"yes", "no"}},
			{
				ID: "q2", Type: surveyTypes.QUESTION_TYPE_TEXT_INPUT, Text: "Which model?",
				VisibleIf: &surveyTypes.VisibilityCondition{QuestionID: "q1", Operator: surveyTypes.CONDITION_OPERATOR_EQUALS, Value: "yes"},
			},
		},
	}
}

func TestValidateSubmission(t *testing.T) {
	t.Run("visible question answered", func(t *testing.T) {
		err := ValidateSubmission(testSurvey(), answersFrom(map[string]any{"q1": "yes", "q2": "a fast one"}))
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("hidden question answered", func(t *testing.T) {
		err := ValidateSubmission(testSurvey(), answersFrom(map[string]any{"q1": "no", "q2": "a fast one"}))
		var visErr *surveyTypes.VisibilityError
		if !errors.As(err, &visErr) {
			t.Fatalf("expected visibility error, got: %v", err)
		}
		if visErr.QuestionID != "q2" {
			t.Errorf("unexpected question id: %s", visErr.QuestionID)
		}
	})

	t.Run("hidden question left unanswered", func(t *testing.T) {
		err := ValidateSubmission(testSurvey(), answersFrom(map[string]any{"q1": "no"}))
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("long question text is truncated in the error", func(t *testing.T) {
		survey := testSurvey()
		survey.Questions[1].Text = strings.Repeat("x", 80)

		err := ValidateSubmission(survey, answersFrom(map[string]any{"q1": "no", "q2": "answer"}))
		var visErr *surveyTypes.VisibilityError
		if !errors.As(err, &visErr) {
			t.Fatalf("expected visibility error, got: %v", err)
		}
		want := strings.Repeat("x", 50) + "..."
		if visErr.QuestionText != want {
			t.Errorf("unexpected truncated text: %s", visErr.QuestionText)
		}
		if !strings.Contains(visErr.Error(), "should not be visible") {
			t.Errorf("unexpected error message: %s", visErr.Error())
		}
	})

	t.Run("truncation counts characters, not bytes", func(t *testing.T) {
		survey := testSurvey()
		survey.Questions[1].Text = strings.Repeat("x", 49) + "ó" + strings.Repeat("y", 30)

		err := ValidateSubmission(survey, answersFrom(map[string]any{"q1": "no", "q2": "answer"}))
		var visErr *surveyTypes.VisibilityError
		if !errors.As(err, &visErr) {
			t.Fatalf("expected visibility error, got: %v", err)
		}
		if !utf8.ValidString(visErr.QuestionText) {
			t.Errorf("truncated text is not valid UTF-8: %q", visErr.QuestionText)
		}
		want := strings.Repeat("x", 49) + "ó..."
		if visErr.QuestionText != want {
			t.Errorf("unexpected truncated text: %q", visErr.QuestionText)
		}
	})

	t.Run("text of exactly 50 characters is not truncated", func(t *testing.T) {
		survey := testSurvey()
		survey.Questions[1].Text = strings.Repeat("ñ", 50)

		err := ValidateSubmission(survey, answersFrom(map[string]any{"q1": "no", "q2": "answer"}))
		var visErr *surveyTypes.VisibilityError
		if !errors.As(err, &visErr) {
			t.Fatalf("expected visibility error, got: %v", err)
		}
		if visErr.QuestionText != survey.Questions[1].Text {
			t.Errorf("50-character text should be kept whole: %q", visErr.QuestionText)
		}
	})

	t.Run("unconditioned questions are never rejected", func(t *testing.T) {
		err := ValidateSubmission(testSurvey(), answersFrom(map[string]any{"q1": "maybe"}))
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
