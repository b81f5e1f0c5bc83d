// Package surveys is the facade over the survey analytics core: it wires
// the document store to the visibility evaluator, the statistics
// aggregator, the version resolver and the invitation/export helpers.
package surveys

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/BryanM518/Backend-Encuestas/pkg/surveys/exporter"
	"github.com/BryanM518/Backend-Encuestas/pkg/surveys/identifier"
	"github.com/BryanM518/Backend-Encuestas/pkg/surveys/invitations"
	"github.com/BryanM518/Backend-Encuestas/pkg/surveys/stats"
	"github.com/BryanM518/Backend-Encuestas/pkg/surveys/versioning"
	"github.com/BryanM518/Backend-Encuestas/pkg/surveys/visibility"

	surveyTypes "github.com/BryanM518/Backend-Encuestas/pkg/surveys/types"
)

// SurveyStore is the document-store contract the service depends on. It
// is implemented by the Mongo-backed service in pkg/db/surveys.
type SurveyStore interface {
	GetSurveyByID(instanceID string, surveyID string) (surveyTypes.Survey, error)
	GetSurveyVersions(instanceID string, rootID string) ([]surveyTypes.Survey, error)
	GetLatestSurveyVersion(instanceID string, rootID string) (surveyTypes.Survey, error)
	SaveSurveyVersion(instanceID string, survey *surveyTypes.Survey) error
	GetTemplates(instanceID string) ([]surveyTypes.Survey, error)

	GetResponsesBySurvey(instanceID string, surveyID string) ([]surveyTypes.SurveyResponse, error)
	SaveResponse(instanceID string, response *surveyTypes.SurveyResponse) error
	HasResponseFromEmail(instanceID string, surveyID string, email string) (bool, error)

	SaveAccessToken(instanceID string, token *surveyTypes.SurveyAccessToken) error
	GetAccessToken(instanceID string, tokenStr string) (surveyTypes.SurveyAccessToken, error)
	MarkAccessTokenUsed(instanceID string, tokenStr string) (surveyTypes.SurveyAccessToken, error)
}

// InvitationMailer delivers invitation mails; satisfied by
// pkg/smtp-client's SmtpClients.
type InvitationMailer interface {
	SendMail(to []string, subject string, htmlContent string) error
}

type SurveyServiceConfig struct {
	// Base URL invitation links are built on
	InvitationLinkBaseURL string
	// Validity of newly issued access tokens; zero means the default
	InvitationTokenValidity time.Duration
}

type SurveyService struct {
	store      SurveyStore
	aggregator *stats.Aggregator
	mailer     InvitationMailer
	config     SurveyServiceConfig
}

// NewSurveyService builds the facade. The store handle is explicit; there
// is no package-level store state. mailer may be nil, in which case
// invitations are issued without sending mail.
func NewSurveyService(store SurveyStore, mailer InvitationMailer, config SurveyServiceConfig) *SurveyService {
	return &SurveyService{
		store:      store,
		aggregator: stats.NewAggregator(),
		mailer:     mailer,
		config:     config,
	}
}

// EvaluateVisibility reports whether the condition holds for the given
// raw answer document.
func (s *SurveyService) EvaluateVisibility(cond surveyTypes.VisibilityCondition, answers map[string]any) bool {
	return visibility.Evaluate(cond, surveyTypes.ParseAnswerMap(answers))
}

// ValidateSubmission runs the visibility admission check against a survey
// definition without persisting anything.
func (s *SurveyService) ValidateSubmission(survey surveyTypes.Survey, answers map[string]any) error {
	return visibility.ValidateSubmission(survey, surveyTypes.ParseAnswerMap(answers))
}

// SubmitResponse admits and persists a response: the survey must exist,
// the answers must pass the visibility check, and a responder email may
// submit at most once per survey version.
func (s *SurveyService) SubmitResponse(instanceID string, surveyID string, answers map[string]any, responderEmail string) (surveyTypes.SurveyResponse, error) {
	if !identifier.IsValid(surveyID) {
		return surveyTypes.SurveyResponse{}, &surveyTypes.ValidationError{Msg: "invalid survey id: " + surveyID}
	}

	survey, err := s.store.GetSurveyByID(instanceID, surveyID)
	if err != nil {
		return surveyTypes.SurveyResponse{}, err
	}

	if err := visibility.ValidateSubmission(survey, surveyTypes.ParseAnswerMap(answers)); err != nil {
		return surveyTypes.SurveyResponse{}, err
	}

	if responderEmail != "" {
		alreadySubmitted, err := s.store.HasResponseFromEmail(instanceID, surveyID, responderEmail)
		if err != nil {
			return surveyTypes.SurveyResponse{}, err
		}
		if alreadySubmitted {
			return surveyTypes.SurveyResponse{}, &surveyTypes.ValidationError{Msg: "a response for this survey was already submitted with this email"}
		}
	}

	response := surveyTypes.SurveyResponse{
		SurveyID:       surveyID,
		ResponderEmail: responderEmail,
		Answers:        answers,
		SubmittedAt:    time.Now(),
	}
	if err := s.store.SaveResponse(instanceID, &response); err != nil {
		return surveyTypes.SurveyResponse{}, err
	}
	return response, nil
}

// GetSurveyStats aggregates the survey's responses. Filters are validated
// here (operator set and number-question references) before aggregation.
// An invalid or unknown survey id signals NotFoundError; a caller that is
// not the survey's creator gets an AuthorizationError.
func (s *SurveyService) GetSurveyStats(instanceID string, surveyID string, callerID string, filters []stats.ResponseFilter) (map[string]stats.QuestionStats, error) {
	if !identifier.IsValid(surveyID) {
		return nil, &surveyTypes.NotFoundError{Resource: "survey", ID: surveyID}
	}

	survey, err := s.store.GetSurveyByID(instanceID, surveyID)
	if err != nil {
		return nil, err
	}
	if err := requireOwnership(survey, callerID); err != nil {
		return nil, err
	}

	if err := stats.ValidateFilters(survey, filters); err != nil {
		return nil, err
	}

	responses, err := s.store.GetResponsesBySurvey(instanceID, surveyID)
	if err != nil {
		return nil, err
	}

	return s.aggregator.Aggregate(survey, responses, filters), nil
}

// DeriveStatus returns the survey's current lifecycle status without
// persisting it; persisting is an explicit, separate decision (see
// jobs/survey-timer).
func (s *SurveyService) DeriveStatus(survey surveyTypes.Survey) string {
	return versioning.DeriveStatus(survey, time.Now())
}

// LatestVersion resolves the chain of the given survey and returns the
// member with the highest version number.
func (s *SurveyService) LatestVersion(instanceID string, surveyID string) (surveyTypes.Survey, error) {
	survey, err := s.store.GetSurveyByID(instanceID, surveyID)
	if err != nil {
		return surveyTypes.Survey{}, err
	}
	return s.store.GetLatestSurveyVersion(instanceID, versioning.ResolveRoot(survey))
}

// DeriveNewVersion appends a new member to the source survey's chain,
// applying the edits, minting persisted ids for draft questions and
// keeping visibility references intact. Nothing is written when the
// source is missing or owned by someone else.
func (s *SurveyService) DeriveNewVersion(instanceID string, sourceID string, callerID string, edits versioning.SurveyEdits) (surveyTypes.Survey, error) {
	source, err := s.store.GetSurveyByID(instanceID, sourceID)
	if err != nil {
		return surveyTypes.Survey{}, err
	}
	if err := requireOwnership(source, callerID); err != nil {
		return surveyTypes.Survey{}, err
	}

	chain, err := s.store.GetSurveyVersions(instanceID, versioning.ResolveRoot(source))
	if err != nil {
		return surveyTypes.Survey{}, err
	}

	newSurvey := versioning.NewVersionFrom(source, edits, versioning.MaxVersion(chain))
	if err := s.store.SaveSurveyVersion(instanceID, &newSurvey); err != nil {
		return surveyTypes.Survey{}, err
	}

	slog.Info("derived new survey version",
		slog.String("instanceID", instanceID),
		slog.String("rootID", newSurvey.ParentID),
		slog.Int("version", newSurvey.Version))
	return newSurvey, nil
}

// CloneSurvey duplicates a survey into its chain as a new version without
// applying any edits.
func (s *SurveyService) CloneSurvey(instanceID string, sourceID string, callerID string) (surveyTypes.Survey, error) {
	return s.DeriveNewVersion(instanceID, sourceID, callerID, versioning.SurveyEdits{})
}

// CreateFromTemplate copies a template survey into a fresh chain root
// owned by the caller.
func (s *SurveyService) CreateFromTemplate(instanceID string, templateID string, creatorID string) (surveyTypes.Survey, error) {
	template, err := s.store.GetSurveyByID(instanceID, templateID)
	if err != nil {
		return surveyTypes.Survey{}, err
	}
	if !template.IsTemplate {
		return surveyTypes.Survey{}, &surveyTypes.NotFoundError{Resource: "survey template", ID: templateID}
	}

	created := versioning.NewSurveyFromTemplate(template, creatorID)
	if err := s.store.SaveSurveyVersion(instanceID, &created); err != nil {
		return surveyTypes.Survey{}, err
	}
	return created, nil
}

// ListTemplates returns the surveys usable as cloning sources.
func (s *SurveyService) ListTemplates(instanceID string) ([]surveyTypes.Survey, error) {
	return s.store.GetTemplates(instanceID)
}

// ExportResponses streams the survey's responses to w in the given
// format ("csv" or "json").
func (s *SurveyService) ExportResponses(instanceID string, surveyID string, callerID string, format string, w io.Writer) error {
	survey, err := s.store.GetSurveyByID(instanceID, surveyID)
	if err != nil {
		return err
	}
	if err := requireOwnership(survey, callerID); err != nil {
		return err
	}

	responses, err := s.store.GetResponsesBySurvey(instanceID, surveyID)
	if err != nil {
		return err
	}
	if len(responses) == 0 {
		return &surveyTypes.NotFoundError{Resource: "responses for survey", ID: surveyID}
	}

	re, err := exporter.NewResponseExporter(survey, w, format)
	if err != nil {
		return err
	}
	for i := range responses {
		if err := re.WriteResponse(&responses[i]); err != nil {
			return fmt.Errorf("failed to export response %s: %w", responses[i].ID.Hex(), err)
		}
	}
	return re.Finish()
}

// GenerateInvitation issues a single-use access token for the survey and,
// when a mailer is configured and an email given, sends the invitation.
func (s *SurveyService) GenerateInvitation(instanceID string, surveyID string, callerID string, email string) (surveyTypes.SurveyAccessToken, error) {
	survey, err := s.store.GetSurveyByID(instanceID, surveyID)
	if err != nil {
		return surveyTypes.SurveyAccessToken{}, err
	}
	if err := requireOwnership(survey, callerID); err != nil {
		return surveyTypes.SurveyAccessToken{}, err
	}

	token, err := invitations.NewAccessToken(surveyID, s.config.InvitationTokenValidity)
	if err != nil {
		return surveyTypes.SurveyAccessToken{}, err
	}
	if err := s.store.SaveAccessToken(instanceID, &token); err != nil {
		return surveyTypes.SurveyAccessToken{}, err
	}

	if s.mailer != nil && email != "" {
		subject, htmlContent := invitations.BuildInvitationEmail(survey, token, s.config.InvitationLinkBaseURL)
		if err := s.mailer.SendMail([]string{email}, subject, htmlContent); err != nil {
			// The token stays valid; delivery can be retried by the caller.
			slog.Error("could not send invitation email",
				slog.String("instanceID", instanceID),
				slog.String("surveyID", surveyID),
				slog.String("error", err.Error()))
		}
	}

	return token, nil
}

// RedeemInvitation claims an unused, unexpired token and returns the
// survey it grants access to.
func (s *SurveyService) RedeemInvitation(instanceID string, tokenStr string) (surveyTypes.Survey, error) {
	token, err := s.store.GetAccessToken(instanceID, tokenStr)
	if err != nil {
		return surveyTypes.Survey{}, err
	}
	if token.IsUsed {
		return surveyTypes.Survey{}, &surveyTypes.ValidationError{Msg: "access link was already used"}
	}
	if token.IsExpired() {
		return surveyTypes.Survey{}, &surveyTypes.ValidationError{Msg: "access link is expired"}
	}

	if _, err := s.store.MarkAccessTokenUsed(instanceID, tokenStr); err != nil {
		var notFound *surveyTypes.NotFoundError
		if errors.As(err, &notFound) {
			// lost the race against another redeem
			return surveyTypes.Survey{}, &surveyTypes.ValidationError{Msg: "access link was already used"}
		}
		return surveyTypes.Survey{}, err
	}

	return s.store.GetSurveyByID(instanceID, token.SurveyID)
}

func requireOwnership(survey surveyTypes.Survey, callerID string) error {
	if callerID != "" && survey.CreatorID != "" && survey.CreatorID != callerID {
		return &surveyTypes.AuthorizationError{Msg: "caller does not own this survey"}
	}
	return nil
}
