// Package invitations creates and renders survey invitation material:
// single-use access tokens and the mail that carries them.
package invitations

import (
	"crypto/rand"
	"strings"
	"time"

	b32 "encoding/base32"

	surveyTypes "github.com/BryanM518/Backend-Encuestas/pkg/surveys/types"
)

const DEFAULT_TOKEN_VALIDITY = 7 * 24 * time.Hour

// GenerateTokenString returns a URL-safe, time-prefixed random token.
func GenerateTokenString() (string, error) {
	t := time.Now()
	ms := uint64(t.Unix())*1000 + uint64(t.Nanosecond()/int(time.Millisecond))

	token := make([]byte, 24)
	token[0] = byte(ms >> 40)
	token[1] = byte(ms >> 32)
	token[2] = byte(ms >> 24)
	token[3] = byte(ms >> 16)
	token[4] = byte(ms >> 8)
	token[5] = byte(ms)

	_, err := rand.Read(token[6:])
	if err != nil {
		return "", err
	}

	tokenStr := b32.StdEncoding.WithPadding(b32.NoPadding).EncodeToString(token)
	tokenStr = strings.ToLower(tokenStr)
	return tokenStr, nil
}

// NewAccessToken builds an unused token document for the given survey.
// A non-positive validity falls back to the default of 7 days.
func NewAccessToken(surveyID string, validity time.Duration) (surveyTypes.SurveyAccessToken, error) {
	if validity <= 0 {
		validity = DEFAULT_TOKEN_VALIDITY
	}

	tokenStr, err := GenerateTokenString()
	if err != nil {
		return surveyTypes.SurveyAccessToken{}, err
	}

	now := time.Now()
	return surveyTypes.SurveyAccessToken{
		Token:     tokenStr,
		SurveyID:  surveyID,
		IsUsed:    false,
		ExpiresAt: now.Add(validity),
		CreatedAt: now,
	}, nil
}
