package surveys

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	surveyTypes "github.com/BryanM518/Backend-Encuestas/pkg/surveys/types"
)

func (dbService *SurveyDBService) CreateIndexForAccessTokensCollection(instanceID string) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_, err := dbService.collectionAccessTokens(instanceID).Indexes().CreateMany(
		ctx, []mongo.IndexModel{
			{
				Keys: bson.D{
					{Key: "token", Value: 1},
				},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys: bson.D{
					{Key: "surveyId", Value: 1},
				},
			},
			{
				Keys: bson.D{
					{Key: "expiresAt", Value: 1},
				},
				Options: options.Index().SetExpireAfterSeconds(0),
			},
		},
	)
	return err
}

func (dbService *SurveyDBService) SaveAccessToken(instanceID string, token *surveyTypes.SurveyAccessToken) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	ret, err := dbService.collectionAccessTokens(instanceID).InsertOne(ctx, token)
	if err != nil {
		return err
	}
	token.ID = ret.InsertedID.(primitive.ObjectID)
	return nil
}

func (dbService *SurveyDBService) GetAccessToken(instanceID string, tokenStr string) (token surveyTypes.SurveyAccessToken, err error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	err = dbService.collectionAccessTokens(instanceID).FindOne(ctx, bson.M{"token": tokenStr}).Decode(&token)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return token, &surveyTypes.NotFoundError{Resource: "access token"}
	}
	return token, err
}

// MarkAccessTokenUsed claims the token: the filter on isUsed makes the
// claim atomic, a second redeem of the same token finds no document.
func (dbService *SurveyDBService) MarkAccessTokenUsed(instanceID string, tokenStr string) (token surveyTypes.SurveyAccessToken, err error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{
		"token":  tokenStr,
		"isUsed": false,
	}
	update := bson.M{"$set": bson.M{"isUsed": true}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	err = dbService.collectionAccessTokens(instanceID).FindOneAndUpdate(ctx, filter, update, opts).Decode(&token)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return token, &surveyTypes.NotFoundError{Resource: "access token"}
	}
	return token, err
}
