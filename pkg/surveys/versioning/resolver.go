// Package versioning resolves and derives survey version chains: all
// surveys sharing one resolved root identifier form a chain, and editing
// or cloning a survey appends a new chain member instead of mutating in
// place.
package versioning

import (
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/BryanM518/Backend-Encuestas/pkg/surveys/identifier"

	surveyTypes "github.com/BryanM518/Backend-Encuestas/pkg/surveys/types"
)

// ResolveRoot returns the chain root identifier: the survey's parent if it
// has one, otherwise its own identifier.
func ResolveRoot(survey surveyTypes.Survey) string {
	if survey.ParentID != "" {
		return survey.ParentID
	}
	return survey.ID.Hex()
}

// LatestVersion returns the chain member with the highest version number.
func LatestVersion(chain []surveyTypes.Survey) (surveyTypes.Survey, bool) {
	if len(chain) == 0 {
		return surveyTypes.Survey{}, false
	}
	latest := chain[0]
	for _, s := range chain[1:] {
		if s.Version > latest.Version {
			latest = s
		}
	}
	return latest, true
}

// MaxVersion returns the highest version number present in the chain.
func MaxVersion(chain []surveyTypes.Survey) int {
	maxVersion := 0
	for _, s := range chain {
		if s.Version > maxVersion {
			maxVersion = s.Version
		}
	}
	return maxVersion
}

// SurveyEdits carries the fields an edit or clone may override on the new
// chain member. Nil pointers and empty slices leave the source value in
// place; Questions replaces the question list wholesale when non-nil.
type SurveyEdits struct {
	Title       string
	Description *string
	Questions   []surveyTypes.Question
	IsPublic    *bool
	StartDate   *time.Time
	EndDate     *time.Time

	BrandColor   *string
	BrandLogoURL *string
	BrandFont    *string
}

// NewVersionFrom builds the next chain member from a source survey and a
// set of edits. maxVersion is the chain's current highest version; the
// new member gets maxVersion+1 and the source's resolved root as parent.
//
// Question identifiers that are drafts (or missing) are replaced with
// freshly minted ones, and every visibility condition referencing a
// remapped identifier is rewritten to the new one, so cross-references
// between questions survive the remap within this single derivation.
func NewVersionFrom(source surveyTypes.Survey, edits SurveyEdits, maxVersion int) surveyTypes.Survey {
	newVersion := maxVersion + 1
	now := time.Now()

	derived := source
	derived.ID = primitive.NilObjectID // fresh id assigned by the store on insert
	derived.ParentID = ResolveRoot(source)
	derived.RootID = derived.ParentID
	derived.Version = newVersion
	derived.Status = surveyTypes.SURVEY_STATUS_CREATED
	derived.IsTemplate = false
	derived.CreatedAt = now
	derived.UpdatedAt = now

	title := edits.Title
	if title == "" {
		title = baseTitle(source.Title)
	}
	derived.Title = title + " v" + strconv.Itoa(newVersion)

	if edits.Description != nil {
		derived.Description = *edits.Description
	}
	if edits.IsPublic != nil {
		derived.IsPublic = *edits.IsPublic
	}
	if edits.StartDate != nil {
		derived.StartDate = edits.StartDate
	} else {
		derived.StartDate = copyTime(source.StartDate)
	}
	if edits.EndDate != nil {
		derived.EndDate = edits.EndDate
	} else {
		derived.EndDate = copyTime(source.EndDate)
	}
	if edits.BrandColor != nil {
		derived.BrandColor = *edits.BrandColor
	}
	if edits.BrandLogoURL != nil {
		derived.BrandLogoURL = *edits.BrandLogoURL
	}
	if edits.BrandFont != nil {
		derived.BrandFont = *edits.BrandFont
	}

	questions := source.Questions
	if edits.Questions != nil {
		questions = edits.Questions
	}
	derived.Questions = remapQuestionIDs(deepCopyQuestions(questions))

	return derived
}

// NewSurveyFromTemplate copies a template into a fresh chain root owned
// by the given creator: new identifiers all around, version 1, no parent,
// visibility references rewritten alongside the question ids.
func NewSurveyFromTemplate(template surveyTypes.Survey, creatorID string) surveyTypes.Survey {
	now := time.Now()

	created := template
	created.ID = primitive.NewObjectID()
	created.CreatorID = creatorID
	created.ParentID = ""
	created.RootID = ""
	created.Version = 1
	created.Status = surveyTypes.SURVEY_STATUS_CREATED
	created.IsTemplate = false
	created.CreatedAt = now
	created.UpdatedAt = now
	created.Questions = remintQuestionIDs(deepCopyQuestions(template.Questions))

	return created
}

// remintQuestionIDs replaces every question id with a fresh one,
// rewriting visibility references through the mapping.
func remintQuestionIDs(questions []surveyTypes.Question) []surveyTypes.Question {
	idMapping := map[string]string{}
	for i := range questions {
		newID := identifier.NewID()
		if questions[i].ID != "" {
			idMapping[questions[i].ID] = newID
		}
		questions[i].ID = newID
	}
	return rewriteVisibilityRefs(questions, idMapping)
}

// remapQuestionIDs mints persisted identifiers for draft or missing
// question ids and rewrites visibility references through the old-to-new
// mapping.
func remapQuestionIDs(questions []surveyTypes.Question) []surveyTypes.Question {
	idMapping := map[string]string{}
	for i := range questions {
		newID, remapped := identifier.EnsurePersisted(questions[i].ID)
		if remapped && questions[i].ID != "" {
			idMapping[questions[i].ID] = newID
		}
		questions[i].ID = newID
	}
	return rewriteVisibilityRefs(questions, idMapping)
}

// baseTitle strips a trailing version suffix (" v<n>") so titles do not
// accumulate suffixes across repeated derivations.
func baseTitle(title string) string {
	idx := strings.LastIndex(title, " v")
	if idx < 0 || idx+2 >= len(title) {
		return title
	}
	for _, r := range title[idx+2:] {
		if r < '0' || r > '9' {
			return title
		}
	}
	return title[:idx]
}

func rewriteVisibilityRefs(questions []surveyTypes.Question, idMapping map[string]string) []surveyTypes.Question {
	for i := range questions {
		cond := questions[i].VisibleIf
		if cond == nil {
			continue
		}
		if newRef, ok := idMapping[cond.QuestionID]; ok {
			cond.QuestionID = newRef
		}
	}
	return questions
}

func deepCopyQuestions(questions []surveyTypes.Question) []surveyTypes.Question {
	out := make([]surveyTypes.Question, len(questions))
	for i, q := range questions {
		copied := q
		if q.Options != nil {
			copied.Options = make([]string, len(q.Options))
			copy(copied.Options, q.Options)
		}
		if q.VisibleIf != nil {
			cond := *q.VisibleIf
			if list, ok := cond.Value.([]string); ok {
				items := make([]string, len(list))
				copy(items, list)
				cond.Value = items
			}
			copied.VisibleIf = &cond
		}
		out[i] = copied
	}
	return out
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
