package invitations

import (
	"fmt"
	"html"
	"strings"

	surveyTypes "github.com/BryanM518/Backend-Encuestas/pkg/surveys/types"
)

// BuildInvitationEmail renders the subject and HTML body for an
// invitation mail pointing at the survey's access link.
func BuildInvitationEmail(survey surveyTypes.Survey, token surveyTypes.SurveyAccessToken, linkBaseURL string) (subject string, htmlContent string) {
	subject = fmt.Sprintf("You are invited: %s", survey.Title)

	link := strings.TrimSuffix(linkBaseURL, "/") + "/access/" + token.Token

	var sb strings.Builder
	sb.WriteString("<p>You have been invited to take part in the survey <b>")
	sb.WriteString(html.EscapeString(survey.Title))
	sb.WriteString("</b>.</p>")
	if survey.Description != "" {
		sb.WriteString("<p>")
		sb.WriteString(html.EscapeString(survey.Description))
		sb.WriteString("</p>")
	}
	sb.WriteString(fmt.Sprintf("<p><a href=%q>Open the survey</a></p>", link))
	sb.WriteString(fmt.Sprintf("<p>The link can be used once and expires on %s.</p>", token.ExpiresAt.Format("2006-01-02 15:04 MST")))

	return subject, sb.String()
}
