package surveys

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/BryanM518/Backend-Encuestas/pkg/surveys/versioning"

	surveyTypes "github.com/BryanM518/Backend-Encuestas/pkg/surveys/types"
)

var indexesForSurveysCollection = []mongo.IndexModel{
	{
		Keys: bson.D{
			{Key: "rootId", Value: 1},
			{Key: "version", Value: -1},
		},
		// The unique index is the atomic "read max version, write max+1"
		// guard: two concurrent derivations against one chain race to the
		// same version and the loser's insert fails without a partial
		// chain member.
		Options: options.Index().SetName("rootId_version_1").SetUnique(true),
	},
	{
		Keys: bson.D{
			{Key: "creatorId", Value: 1},
		},
		Options: options.Index().SetName("creatorId_1"),
	},
	{
		Keys: bson.D{
			{Key: "isTemplate", Value: 1},
		},
		Options: options.Index().SetName("isTemplate_1"),
	},
}

func (dbService *SurveyDBService) CreateDefaultIndexesForSurveysCollection(instanceID string) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_, err := dbService.collectionSurveys(instanceID).Indexes().CreateMany(ctx, indexesForSurveysCollection)
	return err
}

// SaveSurveyVersion inserts a new chain member. The rootId field is
// derived before the insert so the unique (rootId, version) index applies.
func (dbService *SurveyDBService) SaveSurveyVersion(instanceID string, survey *surveyTypes.Survey) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	if survey.ID.IsZero() {
		survey.ID = primitive.NewObjectID()
	}
	if survey.RootID == "" {
		survey.RootID = versioning.ResolveRoot(*survey)
	}

	ret, err := dbService.collectionSurveys(instanceID).InsertOne(ctx, survey)
	if err != nil {
		return err
	}
	survey.ID = ret.InsertedID.(primitive.ObjectID)
	return nil
}

func (dbService *SurveyDBService) GetSurveyByID(instanceID string, surveyID string) (survey surveyTypes.Survey, err error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_id, err := primitive.ObjectIDFromHex(surveyID)
	if err != nil {
		return survey, &surveyTypes.ValidationError{Msg: "invalid survey id: " + surveyID}
	}

	err = dbService.collectionSurveys(instanceID).FindOne(ctx, bson.M{"_id": _id}).Decode(&survey)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return survey, &surveyTypes.NotFoundError{Resource: "survey", ID: surveyID}
	}
	return survey, err
}

// GetSurveyVersions returns every chain member for the given root id,
// including the root itself.
func (dbService *SurveyDBService) GetSurveyVersions(instanceID string, rootID string) (surveys []surveyTypes.Survey, err error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter, err := chainFilter(rootID)
	if err != nil {
		return nil, err
	}

	cursor, err := dbService.collectionSurveys(instanceID).Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	err = cursor.All(ctx, &surveys)
	return surveys, err
}

// GetLatestSurveyVersion returns the chain member with the highest
// version number.
func (dbService *SurveyDBService) GetLatestSurveyVersion(instanceID string, rootID string) (survey surveyTypes.Survey, err error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter, err := chainFilter(rootID)
	if err != nil {
		return survey, err
	}

	opts := options.FindOne().SetSort(bson.D{{Key: "version", Value: -1}})
	err = dbService.collectionSurveys(instanceID).FindOne(ctx, filter, opts).Decode(&survey)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return survey, &surveyTypes.NotFoundError{Resource: "survey chain", ID: rootID}
	}
	return survey, err
}

// chainFilter matches all chain members: documents whose stored rootId is
// the chain root, plus older root documents saved before the rootId field
// existed.
func chainFilter(rootID string) (bson.M, error) {
	_id, err := primitive.ObjectIDFromHex(rootID)
	if err != nil {
		return nil, &surveyTypes.ValidationError{Msg: "invalid survey id: " + rootID}
	}
	return bson.M{
		"$or": bson.A{
			bson.M{"rootId": rootID},
			bson.M{"_id": _id},
		},
	}, nil
}

func (dbService *SurveyDBService) GetSurveysByCreator(instanceID string, creatorID string) (surveys []surveyTypes.Survey, err error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	cursor, err := dbService.collectionSurveys(instanceID).Find(ctx, bson.M{"creatorId": creatorID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	err = cursor.All(ctx, &surveys)
	return surveys, err
}

func (dbService *SurveyDBService) GetTemplates(instanceID string) (surveys []surveyTypes.Survey, err error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	cursor, err := dbService.collectionSurveys(instanceID).Find(ctx, bson.M{"isTemplate": true})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	err = cursor.All(ctx, &surveys)
	return surveys, err
}

// GetSurveysWithOpenLifecycle returns surveys whose stored status may be
// stale: anything not yet closed.
func (dbService *SurveyDBService) GetSurveysWithOpenLifecycle(instanceID string) (surveys []surveyTypes.Survey, err error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{"status": bson.M{"$ne": surveyTypes.SURVEY_STATUS_CLOSED}}
	cursor, err := dbService.collectionSurveys(instanceID).Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	err = cursor.All(ctx, &surveys)
	return surveys, err
}

// UpdateSurveyStatus persists a derived status. This is the only write
// triggered by status derivation and only explicit callers (e.g. the
// survey timer job) use it.
func (dbService *SurveyDBService) UpdateSurveyStatus(instanceID string, surveyID string, status string) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_id, err := primitive.ObjectIDFromHex(surveyID)
	if err != nil {
		return &surveyTypes.ValidationError{Msg: "invalid survey id: " + surveyID}
	}

	update := bson.M{"$set": bson.M{
		"status":    status,
		"updatedAt": time.Now(),
	}}
	res, err := dbService.collectionSurveys(instanceID).UpdateOne(ctx, bson.M{"_id": _id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return &surveyTypes.NotFoundError{Resource: "survey", ID: surveyID}
	}
	return nil
}

func (dbService *SurveyDBService) DeleteSurvey(instanceID string, surveyID string) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_id, err := primitive.ObjectIDFromHex(surveyID)
	if err != nil {
		return &surveyTypes.ValidationError{Msg: "invalid survey id: " + surveyID}
	}

	res, err := dbService.collectionSurveys(instanceID).DeleteOne(ctx, bson.M{"_id": _id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return &surveyTypes.NotFoundError{Resource: "survey", ID: surveyID}
	}
	return nil
}
