package surveys

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/BryanM518/Backend-Encuestas/pkg/surveys/stats"
	"github.com/BryanM518/Backend-Encuestas/pkg/surveys/versioning"

	surveyTypes "github.com/BryanM518/Backend-Encuestas/pkg/surveys/types"
)

// fakeSurveyStore is an in-memory SurveyStore for service tests.
type fakeSurveyStore struct {
	surveys   map[string]surveyTypes.Survey
	responses []surveyTypes.SurveyResponse
	tokens    map[string]surveyTypes.SurveyAccessToken
}

func newFakeStore() *fakeSurveyStore {
	return &fakeSurveyStore{
		surveys: map[string]surveyTypes.Survey{},
		tokens:  map[string]surveyTypes.SurveyAccessToken{},
	}
}

func (s *fakeSurveyStore) addSurvey(survey surveyTypes.Survey) surveyTypes.Survey {
	if survey.ID.IsZero() {
		survey.ID = primitive.NewObjectID()
	}
	if survey.RootID == "" {
		survey.RootID = versioning.ResolveRoot(survey)
	}
	s.surveys[survey.ID.Hex()] = survey
	return survey
}

func (s *fakeSurveyStore) GetSurveyByID(instanceID string, surveyID string) (surveyTypes.Survey, error) {
	survey, ok := s.surveys[surveyID]
	if !ok {
		return surveyTypes.Survey{}, &surveyTypes.NotFoundError{Resource: "survey", ID: surveyID}
	}
	return survey, nil
}

func (s *fakeSurveyStore) GetSurveyVersions(instanceID string, rootID string) ([]surveyTypes.Survey, error) {
	var chain []surveyTypes.Survey
	for _, survey := range s.surveys {
		if survey.RootID == rootID || survey.ID.Hex() == rootID {
			chain = append(chain, survey)
		}
	}
	return chain, nil
}

func (s *fakeSurveyStore) GetLatestSurveyVersion(instanceID string, rootID string) (surveyTypes.Survey, error) {
	chain, _ := s.GetSurveyVersions(instanceID, rootID)
	latest, ok := versioning.LatestVersion(chain)
	if !ok {
		return surveyTypes.Survey{}, &surveyTypes.NotFoundError{Resource: "survey", ID: rootID}
	}
	return latest, nil
}

func (s *fakeSurveyStore) SaveSurveyVersion(instanceID string, survey *surveyTypes.Survey) error {
	*survey = s.addSurvey(*survey)
	return nil
}

func (s *fakeSurveyStore) GetTemplates(instanceID string) ([]surveyTypes.Survey, error) {
	var templates []surveyTypes.Survey
	for _, survey := range s.surveys {
		if survey.IsTemplate {
			templates = append(templates, survey)
		}
	}
	return templates, nil
}

func (s *fakeSurveyStore) GetResponsesBySurvey(instanceID string, surveyID string) ([]surveyTypes.SurveyResponse, error) {
	var out []surveyTypes.SurveyResponse
	for _, r := range s.responses {
		if r.SurveyID == surveyID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeSurveyStore) SaveResponse(instanceID string, response *surveyTypes.SurveyResponse) error {
	response.ID = primitive.NewObjectID()
	s.responses = append(s.responses, *response)
	return nil
}

func (s *fakeSurveyStore) HasResponseFromEmail(instanceID string, surveyID string, email string) (bool, error) {
	for _, r := range s.responses {
		if r.SurveyID == surveyID && r.ResponderEmail == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeSurveyStore) SaveAccessToken(instanceID string, token *surveyTypes.SurveyAccessToken) error {
	token.ID = primitive.NewObjectID()
	s.tokens[token.Token] = *token
	return nil
}

func (s *fakeSurveyStore) GetAccessToken(instanceID string, tokenStr string) (surveyTypes.SurveyAccessToken, error) {
	token, ok := s.tokens[tokenStr]
	if !ok {
		return surveyTypes.SurveyAccessToken{}, &surveyTypes.NotFoundError{Resource: "access token", ID: tokenStr}
	}
	return token, nil
}

func (s *fakeSurveyStore) MarkAccessTokenUsed(instanceID string, tokenStr string) (surveyTypes.SurveyAccessToken, error) {
	token, ok := s.tokens[tokenStr]
	if !ok || token.IsUsed {
		return surveyTypes.SurveyAccessToken{}, &surveyTypes.NotFoundError{Resource: "access token", ID: tokenStr}
	}
	token.IsUsed = true
	s.tokens[tokenStr] = token
	return token, nil
}

func serviceTestSurvey(creatorID string) surveyTypes.Survey {
	return surveyTypes.Survey{
		Title:     "Service test",
		CreatorID: creatorID,
		Version:   1,
		Questions: []surveyTypes.Question{
			{ID: "q1", Type: surveyTypes.QUESTION_TYPE_MULTIPLE_CHOICE, Text: "Own a car?", Options: []string{"yes", "no"}},
			{
				ID: "q2", Type: surveyTypes.QUESTION_TYPE_TEXT_INPUT, Text: "Which model?",
				VisibleIf: &surveyTypes.VisibilityCondition{QuestionID: "q1", Operator: surveyTypes.CONDITION_OPERATOR_EQUALS, Value: "yes"},
			},
			{ID: "q3", Type: surveyTypes.QUESTION_TYPE_NUMBER_INPUT, Text: "Your age"},
		},
	}
}

func TestSubmitResponse(t *testing.T) {
	store := newFakeStore()
	survey := store.addSurvey(serviceTestSurvey("owner"))
	service := NewSurveyService(store, nil, SurveyServiceConfig{})

	t.Run("valid submission is stored", func(t *testing.T) {
		response, err := service.SubmitResponse("inst", survey.ID.Hex(), map[string]any{"q1": "yes", "q2": "sedan"}, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if response.ID.IsZero() {
			t.Error("response should get an id")
		}
		if response.SubmittedAt.IsZero() {
			t.Error("submission timestamp missing")
		}
	})

	t.Run("invalid survey id rejected", func(t *testing.T) {
		_, err := service.SubmitResponse("inst", "nope", map[string]any{}, "")
		var valErr *surveyTypes.ValidationError
		if !errors.As(err, &valErr) {
			t.Errorf("expected validation error, got: %v", err)
		}
	})

	t.Run("unknown survey rejected", func(t *testing.T) {
		_, err := service.SubmitResponse("inst", primitive.NewObjectID().Hex(), map[string]any{}, "")
		var nfErr *surveyTypes.NotFoundError
		if !errors.As(err, &nfErr) {
			t.Errorf("expected not found error, got: %v", err)
		}
	})

	t.Run("answer on hidden question rejected and not stored", func(t *testing.T) {
		before := len(store.responses)
		_, err := service.SubmitResponse("inst", survey.ID.Hex(), map[string]any{"q1": "no", "q2": "sedan"}, "")
		var visErr *surveyTypes.VisibilityError
		if !errors.As(err, &visErr) {
			t.Fatalf("expected visibility error, got: %v", err)
		}
		if len(store.responses) != before {
			t.Error("rejected submission must not be stored")
		}
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		if _, err := service.SubmitResponse("inst", survey.ID.Hex(), map[string]any{"q1": "no"}, "dup@example.com"); err != nil {
			t.Fatalf("unexpected error on first submission: %v", err)
		}
		_, err := service.SubmitResponse("inst", survey.ID.Hex(), map[string]any{"q1": "yes"}, "dup@example.com")
		var valErr *surveyTypes.ValidationError
		if !errors.As(err, &valErr) {
			t.Errorf("expected validation error, got: %v", err)
		}
	})

	t.Run("anonymous submissions are not deduplicated", func(t *testing.T) {
		if _, err := service.SubmitResponse("inst", survey.ID.Hex(), map[string]any{"q1": "no"}, ""); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if _, err := service.SubmitResponse("inst", survey.ID.Hex(), map[string]any{"q1": "no"}, ""); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestGetSurveyStats(t *testing.T) {
	store := newFakeStore()
	survey := store.addSurvey(serviceTestSurvey("owner"))
	service := NewSurveyService(store, nil, SurveyServiceConfig{})

	for _, answers := range []map[string]any{
		{"q1": "yes", "q2": "sedan", "q3": 30},
		{"q1": "no", "q3": 50},
	} {
		if _, err := service.SubmitResponse("inst", survey.ID.Hex(), answers, ""); err != nil {
			t.Fatalf("unexpected error seeding responses: %v", err)
		}
	}

	t.Run("aggregates for the owner", func(t *testing.T) {
		result, err := service.GetSurveyStats("inst", survey.ID.Hex(), "owner", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result["q1"].Options["yes"] != 1 || result["q1"].Options["no"] != 1 {
			t.Errorf("unexpected counts: %v", result["q1"].Options)
		}
	})

	t.Run("filters narrow the response set", func(t *testing.T) {
		result, err := service.GetSurveyStats("inst", survey.ID.Hex(), "owner", []stats.ResponseFilter{
			{QuestionID: "q3", Operator: stats.FILTER_OPERATOR_LESS_THAN, Value: 40},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result["q1"].Options["no"] != 0 {
			t.Errorf("filtered response still counted: %v", result["q1"].Options)
		}
	})

	t.Run("invalid filter rejected", func(t *testing.T) {
		_, err := service.GetSurveyStats("inst", survey.ID.Hex(), "owner", []stats.ResponseFilter{
			{QuestionID: "q1", Operator: stats.FILTER_OPERATOR_EQUALS, Value: 1},
		})
		var valErr *surveyTypes.ValidationError
		if !errors.As(err, &valErr) {
			t.Errorf("expected validation error, got: %v", err)
		}
	})

	t.Run("malformed survey id reported as not found", func(t *testing.T) {
		_, err := service.GetSurveyStats("inst", "not-an-id", "owner", nil)
		var nfErr *surveyTypes.NotFoundError
		if !errors.As(err, &nfErr) {
			t.Errorf("expected not found error, got: %v", err)
		}
	})

	t.Run("non owner is rejected", func(t *testing.T) {
		_, err := service.GetSurveyStats("inst", survey.ID.Hex(), "intruder", nil)
		var authErr *surveyTypes.AuthorizationError
		if !errors.As(err, &authErr) {
			t.Errorf("expected authorization error, got: %v", err)
		}
	})
}

func TestDeriveNewVersion(t *testing.T) {
	t.Run("appends to the chain", func(t *testing.T) {
		store := newFakeStore()
		source := store.addSurvey(serviceTestSurvey("owner"))
		service := NewSurveyService(store, nil, SurveyServiceConfig{})

		derived, err := service.DeriveNewVersion("inst", source.ID.Hex(), "owner", versioning.SurveyEdits{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if derived.Version != 2 {
			t.Errorf("unexpected version: %d", derived.Version)
		}
		if derived.ParentID != source.ID.Hex() {
			t.Errorf("unexpected parent: %s", derived.ParentID)
		}

		latest, err := service.LatestVersion("inst", source.ID.Hex())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if latest.ID != derived.ID {
			t.Errorf("latest should be the derived member: %s vs %s", latest.ID.Hex(), derived.ID.Hex())
		}
	})

	t.Run("non owner writes nothing", func(t *testing.T) {
		store := newFakeStore()
		source := store.addSurvey(serviceTestSurvey("owner"))
		service := NewSurveyService(store, nil, SurveyServiceConfig{})

		before := len(store.surveys)
		_, err := service.DeriveNewVersion("inst", source.ID.Hex(), "intruder", versioning.SurveyEdits{})
		var authErr *surveyTypes.AuthorizationError
		if !errors.As(err, &authErr) {
			t.Fatalf("expected authorization error, got: %v", err)
		}
		if len(store.surveys) != before {
			t.Error("no survey may be written on a rejected derivation")
		}
	})

	t.Run("clone keeps the content", func(t *testing.T) {
		store := newFakeStore()
		source := store.addSurvey(serviceTestSurvey("owner"))
		service := NewSurveyService(store, nil, SurveyServiceConfig{})

		clone, err := service.CloneSurvey("inst", source.ID.Hex(), "owner")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(clone.Questions) != len(source.Questions) {
			t.Errorf("unexpected question count: %d", len(clone.Questions))
		}
		if !strings.HasPrefix(clone.Title, source.Title) {
			t.Errorf("unexpected title: %s", clone.Title)
		}
	})
}

func TestCreateFromTemplate(t *testing.T) {
	store := newFakeStore()
	template := serviceTestSurvey("library")
	template.IsTemplate = true
	template = store.addSurvey(template)
	regular := store.addSurvey(serviceTestSurvey("owner"))
	service := NewSurveyService(store, nil, SurveyServiceConfig{})

	t.Run("copies a template into a fresh chain", func(t *testing.T) {
		created, err := service.CreateFromTemplate("inst", template.ID.Hex(), "user-5")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if created.CreatorID != "user-5" {
			t.Errorf("unexpected creator: %s", created.CreatorID)
		}
		if created.IsTemplate {
			t.Error("copy should not be a template")
		}
		if created.ID == template.ID {
			t.Error("copy should get a fresh id")
		}
	})

	t.Run("non template source rejected", func(t *testing.T) {
		_, err := service.CreateFromTemplate("inst", regular.ID.Hex(), "user-5")
		var nfErr *surveyTypes.NotFoundError
		if !errors.As(err, &nfErr) {
			t.Errorf("expected not found error, got: %v", err)
		}
	})

	t.Run("templates are listed", func(t *testing.T) {
		templates, err := service.ListTemplates("inst")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(templates) != 1 || templates[0].ID != template.ID {
			t.Errorf("unexpected templates: %v", templates)
		}
	})
}

func TestExportResponses(t *testing.T) {
	store := newFakeStore()
	survey := store.addSurvey(serviceTestSurvey("owner"))
	service := NewSurveyService(store, nil, SurveyServiceConfig{})

	t.Run("no responses reports not found", func(t *testing.T) {
		err := service.ExportResponses("inst", survey.ID.Hex(), "owner", "csv", &bytes.Buffer{})
		var nfErr *surveyTypes.NotFoundError
		if !errors.As(err, &nfErr) {
			t.Errorf("expected not found error, got: %v", err)
		}
	})

	t.Run("csv export", func(t *testing.T) {
		if _, err := service.SubmitResponse("inst", survey.ID.Hex(), map[string]any{"q1": "yes", "q2": "sedan"}, ""); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		buf := &bytes.Buffer{}
		if err := service.ExportResponses("inst", survey.ID.Hex(), "owner", "csv", buf); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "sedan") {
			t.Errorf("answer missing from export: %s", buf.String())
		}
	})

	t.Run("non owner rejected", func(t *testing.T) {
		err := service.ExportResponses("inst", survey.ID.Hex(), "intruder", "csv", &bytes.Buffer{})
		var authErr *surveyTypes.AuthorizationError
		if !errors.As(err, &authErr) {
			t.Errorf("expected authorization error, got: %v", err)
		}
	})
}

type recordingMailer struct {
	to      []string
	subject string
}

func (m *recordingMailer) SendMail(to []string, subject string, htmlContent string) error {
	m.to = to
	m.subject = subject
	return nil
}

func TestInvitations(t *testing.T) {
	store := newFakeStore()
	survey := store.addSurvey(serviceTestSurvey("owner"))
	mailer := &recordingMailer{}
	service := NewSurveyService(store, mailer, SurveyServiceConfig{
		InvitationLinkBaseURL: "https://surveys.example.com",
	})

	t.Run("issued token can be redeemed once", func(t *testing.T) {
		token, err := service.GenerateInvitation("inst", survey.ID.Hex(), "owner", "guest@example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(mailer.to) != 1 || mailer.to[0] != "guest@example.com" {
			t.Errorf("mail not sent to invitee: %v", mailer.to)
		}

		redeemed, err := service.RedeemInvitation("inst", token.Token)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if redeemed.ID != survey.ID {
			t.Errorf("unexpected survey: %s", redeemed.ID.Hex())
		}

		_, err = service.RedeemInvitation("inst", token.Token)
		var valErr *surveyTypes.ValidationError
		if !errors.As(err, &valErr) {
			t.Errorf("second redeem should fail with validation error, got: %v", err)
		}
	})

	t.Run("expired token rejected", func(t *testing.T) {
		expired := surveyTypes.SurveyAccessToken{
			Token:     "expired-token",
			SurveyID:  survey.ID.Hex(),
			ExpiresAt: time.Now().Add(-time.Hour),
		}
		if err := store.SaveAccessToken("inst", &expired); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		_, err := service.RedeemInvitation("inst", "expired-token")
		var valErr *surveyTypes.ValidationError
		if !errors.As(err, &valErr) {
			t.Errorf("expected validation error, got: %v", err)
		}
	})

	t.Run("unknown token reported as not found", func(t *testing.T) {
		_, err := service.RedeemInvitation("inst", "no-such-token")
		var nfErr *surveyTypes.NotFoundError
		if !errors.As(err, &nfErr) {
			t.Errorf("expected not found error, got: %v", err)
		}
	})

	t.Run("non owner cannot invite", func(t *testing.T) {
		_, err := service.GenerateInvitation("inst", survey.ID.Hex(), "intruder", "guest@example.com")
		var authErr *surveyTypes.AuthorizationError
		if !errors.As(err, &authErr) {
			t.Errorf("expected authorization error, got: %v", err)
		}
	})
}
