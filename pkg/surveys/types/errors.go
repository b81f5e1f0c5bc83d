package types

import "fmt"

// ValidationError signals malformed input at a model or request boundary:
// bad identifiers, unknown operators, filters against the wrong question
// type.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// VisibilityError signals a submission carrying an answer for a question
// whose visibility condition evaluates false.
type VisibilityError struct {
	QuestionID   string
	QuestionText string
}

func (e *VisibilityError) Error() string {
	return fmt.Sprintf("question '%s' should not be visible for the provided answers", e.QuestionText)
}

type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

type AuthorizationError struct {
	Msg string
}

func (e *AuthorizationError) Error() string {
	if e.Msg == "" {
		return "not authorized"
	}
	return e.Msg
}
