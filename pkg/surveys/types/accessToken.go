package types

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SurveyAccessToken is a single-use invitation token for a survey.
type SurveyAccessToken struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Token     string             `bson:"token" json:"token"`
	SurveyID  string             `bson:"surveyId" json:"surveyId"`
	IsUsed    bool               `bson:"isUsed" json:"isUsed"`
	ExpiresAt time.Time          `bson:"expiresAt" json:"expiresAt"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

func (t SurveyAccessToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}
