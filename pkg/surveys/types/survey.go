package types

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	QUESTION_TYPE_TEXT_INPUT         = "text_input"
	QUESTION_TYPE_MULTIPLE_CHOICE    = "multiple_choice"
	QUESTION_TYPE_SATISFACTION_SCALE = "satisfaction_scale"
	QUESTION_TYPE_NUMBER_INPUT       = "number_input"
	QUESTION_TYPE_CHECKBOX_GROUP     = "checkbox_group"
)

const (
	SURVEY_STATUS_CREATED   = "created"
	SURVEY_STATUS_PUBLISHED = "published"
	SURVEY_STATUS_CLOSED    = "closed"
)

const (
	CONDITION_OPERATOR_EQUALS     = "equals"
	CONDITION_OPERATOR_NOT_EQUALS = "not_equals"
	CONDITION_OPERATOR_IN         = "in"
	CONDITION_OPERATOR_NOT_IN     = "not_in"
)

const QUESTION_TEXT_MAX_LENGTH = 500

type Survey struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Questions   []Question         `bson:"questions" json:"questions"`
	CreatorID   string             `bson:"creatorId,omitempty" json:"creatorId,omitempty"`
	IsPublic    bool               `bson:"isPublic" json:"isPublic"`
	Status      string             `bson:"status,omitempty" json:"status,omitempty"`
	StartDate   *time.Time         `bson:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate     *time.Time         `bson:"endDate,omitempty" json:"endDate,omitempty"`

	// Theming, opaque to the analytics core
	BrandColor   string `bson:"brandColor,omitempty" json:"brandColor,omitempty"`
	BrandLogoURL string `bson:"brandLogoUrl,omitempty" json:"brandLogoUrl,omitempty"`
	BrandFont    string `bson:"brandFont,omitempty" json:"brandFont,omitempty"`

	Version    int    `bson:"version" json:"version"`
	ParentID   string `bson:"parentId,omitempty" json:"parentId,omitempty"`
	IsTemplate bool   `bson:"isTemplate,omitempty" json:"isTemplate,omitempty"`

	// Derived from ParentID/ID when the document is saved, used for chain
	// queries and the unique (rootId, version) index.
	RootID string `bson:"rootId,omitempty" json:"-"`

	CreatedAt time.Time `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt time.Time `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

func (s Survey) GetQuestion(questionID string) (Question, bool) {
	for _, q := range s.Questions {
		if q.ID == questionID {
			return q, true
		}
	}
	return Question{}, false
}

type Question struct {
	ID         string               `bson:"id" json:"id"`
	Type       string               `bson:"type" json:"type"`
	Text       string               `bson:"text" json:"text"`
	Options    []string             `bson:"options,omitempty" json:"options,omitempty"`
	IsRequired bool                 `bson:"isRequired" json:"isRequired"`
	VisibleIf  *VisibilityCondition `bson:"visibleIf,omitempty" json:"visibleIf,omitempty"`
}

func questionTypeNeedsOptions(qType string) bool {
	return qType == QUESTION_TYPE_MULTIPLE_CHOICE || qType == QUESTION_TYPE_CHECKBOX_GROUP
}

func isKnownQuestionType(qType string) bool {
	switch qType {
	case QUESTION_TYPE_TEXT_INPUT,
		QUESTION_TYPE_MULTIPLE_CHOICE,
		QUESTION_TYPE_SATISFACTION_SCALE,
		QUESTION_TYPE_NUMBER_INPUT,
		QUESTION_TYPE_CHECKBOX_GROUP:
		return true
	}
	return false
}

// NewQuestion builds a question and enforces the construction invariants:
// known type, non-empty bounded text, options present for choice types and
// absent for everything else.
func NewQuestion(id string, qType string, text string, options []string, isRequired bool, visibleIf *VisibilityCondition) (Question, error) {
	q := Question{
		ID:         id,
		Type:       qType,
		Text:       text,
		Options:    options,
		IsRequired: isRequired,
		VisibleIf:  visibleIf,
	}
	if err := q.Validate(); err != nil {
		return Question{}, err
	}
	if !questionTypeNeedsOptions(qType) {
		q.Options = nil
	}
	return q, nil
}

// Validate checks the question invariants on an already populated value,
// e.g. one decoded from a stored or submitted document.
func (q Question) Validate() error {
	if !isKnownQuestionType(q.Type) {
		return &ValidationError{Msg: fmt.Sprintf("unknown question type: %s", q.Type)}
	}
	if q.Text == "" {
		return &ValidationError{Msg: "question text must not be empty"}
	}
	if len(q.Text) > QUESTION_TEXT_MAX_LENGTH {
		return &ValidationError{Msg: fmt.Sprintf("question text must not exceed %d characters", QUESTION_TEXT_MAX_LENGTH)}
	}
	if questionTypeNeedsOptions(q.Type) && len(q.Options) == 0 {
		return &ValidationError{Msg: fmt.Sprintf("question type %s requires a non-empty option list", q.Type)}
	}
	if q.VisibleIf != nil {
		if err := q.VisibleIf.Normalize(); err != nil {
			return err
		}
	}
	return nil
}

type VisibilityCondition struct {
	QuestionID string `bson:"questionId" json:"questionId"`
	Operator   string `bson:"operator" json:"operator"`
	Value      any    `bson:"value" json:"value"`
}

func isKnownConditionOperator(op string) bool {
	switch op {
	case CONDITION_OPERATOR_EQUALS,
		CONDITION_OPERATOR_NOT_EQUALS,
		CONDITION_OPERATOR_IN,
		CONDITION_OPERATOR_NOT_IN:
		return true
	}
	return false
}

// Normalize coerces the comparison value to string or []string. Any other
// shape is a construction error, there is no silent fallback here.
func (c *VisibilityCondition) Normalize() error {
	if !isKnownConditionOperator(c.Operator) {
		return &ValidationError{Msg: fmt.Sprintf("unknown condition operator: %s", c.Operator)}
	}
	switch v := c.Value.(type) {
	case nil:
		c.Value = ""
	case string:
		// already normalized
	case []string:
		// already normalized
	case []any:
		items := make([]string, len(v))
		for i, item := range v {
			items[i] = ParseAnswerValue(item).String()
		}
		c.Value = items
	case primitive.A:
		items := make([]string, len(v))
		for i, item := range v {
			items[i] = ParseAnswerValue(item).String()
		}
		c.Value = items
	default:
		av := ParseAnswerValue(c.Value)
		if av.Kind != AnswerKindScalar && av.Kind != AnswerKindNumber {
			return &ValidationError{Msg: fmt.Sprintf("condition value must be a string or a list of strings, got %T", c.Value)}
		}
		c.Value = av.String()
	}
	return nil
}

// ValueString returns the comparison value in its string form; list values
// stringify as the comma join of their elements.
func (c VisibilityCondition) ValueString() string {
	switch v := c.Value.(type) {
	case string:
		return v
	case []string:
		return strings.Join(v, ",")
	default:
		return ParseAnswerValue(c.Value).String()
	}
}
