package main

import (
	"log/slog"
	"time"

	"github.com/BryanM518/Backend-Encuestas/pkg/surveys/versioning"
)

func main() {
	slog.Info("Starting survey timer job")
	start := time.Now()

	for _, instanceID := range conf.InstanceIDs {
		slog.Debug("Start handling survey timer for instance", slog.String("instanceID", instanceID))

		surveys, err := surveyDBService.GetSurveysWithOpenLifecycle(instanceID)
		if err != nil {
			slog.Error("Failed to get surveys", slog.String("error", err.Error()), slog.String("instanceID", instanceID))
			continue
		}

		now := time.Now()
		for _, survey := range surveys {
			newStatus := versioning.DeriveStatus(survey, now)
			if newStatus == survey.Status {
				continue
			}

			err := surveyDBService.UpdateSurveyStatus(instanceID, survey.ID.Hex(), newStatus)
			if err != nil {
				slog.Error("Failed to update survey status",
					slog.String("error", err.Error()),
					slog.String("instanceID", instanceID),
					slog.String("surveyID", survey.ID.Hex()))
				continue
			}
			slog.Info("Updated survey status",
				slog.String("instanceID", instanceID),
				slog.String("surveyID", survey.ID.Hex()),
				slog.String("oldStatus", survey.Status),
				slog.String("newStatus", newStatus))
		}
	}

	slog.Info("Survey timer job completed", slog.String("duration", time.Since(start).String()))
}
