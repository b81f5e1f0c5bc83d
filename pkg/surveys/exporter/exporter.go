// Package exporter streams a survey's responses as CSV or JSON: fixed
// columns for response metadata plus one column per survey question.
package exporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	surveyTypes "github.com/BryanM518/Backend-Encuestas/pkg/surveys/types"
)

const (
	EXPORT_FORMAT_CSV  = "csv"
	EXPORT_FORMAT_JSON = "json"
)

var fixedColumns = []string{"responseID", "responderEmail", "submittedAt"}

type ResponseExporter struct {
	survey    surveyTypes.Survey
	writer    io.Writer
	csvWriter *csv.Writer
	format    string
	counter   int
}

func NewResponseExporter(
	survey surveyTypes.Survey,
	writer io.Writer,
	format string,
) (*ResponseExporter, error) {
	re := &ResponseExporter{
		survey: survey,
		writer: writer,
		format: format,
	}

	if err := re.init(); err != nil {
		return nil, err
	}

	re.counter = 0

	return re, nil
}

func (re *ResponseExporter) init() error {
	var err error
	switch re.format {
	case EXPORT_FORMAT_CSV:
		re.csvWriter = csv.NewWriter(re.writer)
		record := []string{}
		record = append(record, fixedColumns...)
		for _, q := range re.survey.Questions {
			record = append(record, q.Text)
		}
		err = re.csvWriter.Write(record)
	case EXPORT_FORMAT_JSON:
		_, err = re.writer.Write([]byte("{ \"responses\": ["))
	default:
		return fmt.Errorf("unsupported format: %s", re.format)
	}
	return err
}

func (re *ResponseExporter) WriteResponse(response *surveyTypes.SurveyResponse) error {
	if re.writer == nil {
		return fmt.Errorf("writer not initialized")
	}

	switch re.format {
	case EXPORT_FORMAT_CSV:
		if err := re.csvWriter.Write(re.responseToRecord(response)); err != nil {
			return err
		}
	case EXPORT_FORMAT_JSON:
		prefix := ","
		if re.counter == 0 {
			prefix = ""
		}
		row, err := json.Marshal(re.responseToRow(response))
		if err != nil {
			return err
		}
		if _, err := re.writer.Write([]byte(prefix)); err != nil {
			return err
		}
		if _, err := re.writer.Write(row); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported format: %s", re.format)
	}
	re.counter += 1
	return nil
}

func (re *ResponseExporter) Finish() error {
	switch re.format {
	case EXPORT_FORMAT_CSV:
		re.csvWriter.Flush()
		return re.csvWriter.Error()
	case EXPORT_FORMAT_JSON:
		_, err := re.writer.Write([]byte("]}"))
		return err
	}
	return nil
}

func (re *ResponseExporter) responseToRecord(response *surveyTypes.SurveyResponse) []string {
	answers := response.AnswerMap()

	record := []string{
		response.ID.Hex(),
		response.ResponderEmail,
		formatSubmittedAt(response.SubmittedAt),
	}
	for _, q := range re.survey.Questions {
		record = append(record, answerCell(answers[q.ID]))
	}
	return record
}

func (re *ResponseExporter) responseToRow(response *surveyTypes.SurveyResponse) map[string]string {
	answers := response.AnswerMap()

	row := map[string]string{
		"responseID":     response.ID.Hex(),
		"responderEmail": response.ResponderEmail,
		"submittedAt":    formatSubmittedAt(response.SubmittedAt),
	}
	for _, q := range re.survey.Questions {
		row[q.Text] = answerCell(answers[q.ID])
	}
	return row
}

// answerCell renders one answer for export; list answers join with ", ".
func answerCell(answer surveyTypes.AnswerValue) string {
	if answer.Kind == surveyTypes.AnswerKindList {
		return strings.Join(answer.List, ", ")
	}
	return answer.String()
}

func formatSubmittedAt(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}
