package surveys

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	surveyTypes "github.com/BryanM518/Backend-Encuestas/pkg/surveys/types"
)

func (dbService *SurveyDBService) CreateIndexForResponsesCollection(instanceID string) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "surveyId", Value: 1},
				{Key: "submittedAt", Value: 1},
			},
		},
		{
			Keys: bson.D{
				{Key: "surveyId", Value: 1},
				{Key: "responderEmail", Value: 1},
			},
		},
	}
	_, err := dbService.collectionResponses(instanceID).Indexes().CreateMany(ctx, indexes)
	return err
}

func (dbService *SurveyDBService) SaveResponse(instanceID string, response *surveyTypes.SurveyResponse) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	ret, err := dbService.collectionResponses(instanceID).InsertOne(ctx, response)
	if err != nil {
		return err
	}
	response.ID = ret.InsertedID.(primitive.ObjectID)
	return nil
}

func (dbService *SurveyDBService) GetResponseByID(instanceID string, responseID string) (response surveyTypes.SurveyResponse, err error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_id, err := primitive.ObjectIDFromHex(responseID)
	if err != nil {
		return response, &surveyTypes.ValidationError{Msg: "invalid response id: " + responseID}
	}

	err = dbService.collectionResponses(instanceID).FindOne(ctx, bson.M{"_id": _id}).Decode(&response)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return response, &surveyTypes.NotFoundError{Resource: "survey response", ID: responseID}
	}
	return response, err
}

// GetResponsesBySurvey returns all responses for one survey version,
// oldest first.
func (dbService *SurveyDBService) GetResponsesBySurvey(instanceID string, surveyID string) (responses []surveyTypes.SurveyResponse, err error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "submittedAt", Value: 1}})
	cursor, err := dbService.collectionResponses(instanceID).Find(ctx, bson.M{"surveyId": surveyID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	err = cursor.All(ctx, &responses)
	return responses, err
}

// get paginated responses by query
func (dbService *SurveyDBService) GetResponses(instanceID string, filter bson.M, sort bson.M, page int64, limit int64) (responses []surveyTypes.SurveyResponse, paginationInfo *PaginationInfos, err error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	totalCount, err := dbService.GetResponsesCount(instanceID, filter)
	if err != nil {
		return responses, nil, err
	}

	paginationInfo = prepPaginationInfos(totalCount, page, limit)

	skip := (paginationInfo.CurrentPage - 1) * paginationInfo.PageSize

	opts := options.Find().SetSort(sort).SetSkip(skip).SetLimit(paginationInfo.PageSize)
	cursor, err := dbService.collectionResponses(instanceID).Find(ctx, filter, opts)
	if err != nil {
		return responses, nil, err
	}
	defer cursor.Close(ctx)

	err = cursor.All(ctx, &responses)
	if err != nil {
		return responses, nil, err
	}

	return responses, paginationInfo, nil
}

func (dbService *SurveyDBService) GetResponsesCount(instanceID string, filter bson.M) (int64, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	return dbService.collectionResponses(instanceID).CountDocuments(ctx, filter)
}

// HasResponseFromEmail reports whether the responder already submitted to
// this survey version. Only meaningful when an email was supplied.
func (dbService *SurveyDBService) HasResponseFromEmail(instanceID string, surveyID string, email string) (bool, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	count, err := dbService.collectionResponses(instanceID).CountDocuments(ctx, bson.M{
		"surveyId":       surveyID,
		"responderEmail": email,
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
