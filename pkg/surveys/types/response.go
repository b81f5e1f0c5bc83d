package types

import (
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SurveyResponse struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	SurveyID       string             `bson:"surveyId" json:"surveyId"`
	ResponderEmail string             `bson:"responderEmail,omitempty" json:"responderEmail,omitempty"`
	Answers        map[string]any     `bson:"answers" json:"answers"`
	SubmittedAt    time.Time          `bson:"submittedAt" json:"submittedAt"`
}

// AnswerMap converts the raw answer document into tagged answer values.
func (r SurveyResponse) AnswerMap() map[string]AnswerValue {
	return ParseAnswerMap(r.Answers)
}

type AnswerKind int

const (
	AnswerKindEmpty AnswerKind = iota
	AnswerKindScalar
	AnswerKindNumber
	AnswerKindList
)

// AnswerValue is the tagged form of a single answer: a string, a number or
// a list of strings. Raw documents carry answers as untyped values; they
// are converted exactly once, at the service boundary.
type AnswerValue struct {
	Kind   AnswerKind
	Scalar string
	Number float64
	List   []string
}

func ParseAnswerValue(v any) AnswerValue {
	switch val := v.(type) {
	case nil:
		return AnswerValue{Kind: AnswerKindEmpty}
	case string:
		return AnswerValue{Kind: AnswerKindScalar, Scalar: val}
	case bool:
		return AnswerValue{Kind: AnswerKindScalar, Scalar: strconv.FormatBool(val)}
	case float64:
		return AnswerValue{Kind: AnswerKindNumber, Number: val}
	case float32:
		return AnswerValue{Kind: AnswerKindNumber, Number: float64(val)}
	case int:
		return AnswerValue{Kind: AnswerKindNumber, Number: float64(val)}
	case int32:
		return AnswerValue{Kind: AnswerKindNumber, Number: float64(val)}
	case int64:
		return AnswerValue{Kind: AnswerKindNumber, Number: float64(val)}
	case []string:
		items := make([]string, len(val))
		copy(items, val)
		return AnswerValue{Kind: AnswerKindList, List: items}
	case []any:
		return listAnswerValue(val)
	case primitive.A:
		return listAnswerValue(val)
	default:
		return AnswerValue{Kind: AnswerKindEmpty}
	}
}

func listAnswerValue(items []any) AnswerValue {
	list := make([]string, len(items))
	for i, item := range items {
		list[i] = ParseAnswerValue(item).String()
	}
	return AnswerValue{Kind: AnswerKindList, List: list}
}

func ParseAnswerMap(answers map[string]any) map[string]AnswerValue {
	out := make(map[string]AnswerValue, len(answers))
	for k, v := range answers {
		out[k] = ParseAnswerValue(v)
	}
	return out
}

// String returns the stringified answer; lists join their elements with a
// comma, absent values stringify empty.
func (a AnswerValue) String() string {
	switch a.Kind {
	case AnswerKindScalar:
		return a.Scalar
	case AnswerKindNumber:
		return strconv.FormatFloat(a.Number, 'f', -1, 64)
	case AnswerKindList:
		return strings.Join(a.List, ",")
	default:
		return ""
	}
}

// Float parses the answer as a number. Lists and empty values never parse.
func (a AnswerValue) Float() (float64, bool) {
	switch a.Kind {
	case AnswerKindNumber:
		return a.Number, true
	case AnswerKindScalar:
		f, err := strconv.ParseFloat(strings.TrimSpace(a.Scalar), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func (a AnswerValue) IsEmpty() bool {
	return a.Kind == AnswerKindEmpty
}
