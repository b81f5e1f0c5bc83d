// Package stats aggregates a survey's response set into per-question
// summaries: category distributions, numeric descriptive statistics with a
// histogram, and a word-frequency cloud for free text.
package stats

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	surveyTypes "github.com/BryanM518/Backend-Encuestas/pkg/surveys/types"
)

const (
	DEFAULT_HISTOGRAM_BUCKET_WIDTH = 10
	DEFAULT_WORD_CLOUD_SIZE        = 20
)

type QuestionStats struct {
	QuestionID string         `json:"questionId"`
	Text       string         `json:"text"`
	Type       string         `json:"type"`
	Options    map[string]int `json:"options"`

	// Raw text answers (text questions only)
	Responses []string `json:"responses,omitempty"`
	// Parsed numeric answers (number questions only)
	Values []float64 `json:"values,omitempty"`

	Avg       *float64       `json:"avg,omitempty"`
	Median    *float64       `json:"median,omitempty"`
	Min       *float64       `json:"min,omitempty"`
	Max       *float64       `json:"max,omitempty"`
	Histogram map[string]int `json:"histogram,omitempty"`

	WordCloud []WordCount `json:"wordCloud,omitempty"`
}

type Aggregator struct {
	HistogramBucketWidth float64
	WordCloudSize        int
	StopWords            []string
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		HistogramBucketWidth: DEFAULT_HISTOGRAM_BUCKET_WIDTH,
		WordCloudSize:        DEFAULT_WORD_CLOUD_SIZE,
		StopWords:            defaultStopWords,
	}
}

// Aggregate computes per-question statistics over the response set.
// Filters must have been validated with ValidateFilters; responses failing
// any filter are excluded before counting. Answer keys not present in the
// survey's question list (orphans from an earlier version) are ignored,
// and values that fail numeric coercion are silently dropped from the
// numeric aggregates.
func (a *Aggregator) Aggregate(survey surveyTypes.Survey, responses []surveyTypes.SurveyResponse, filters []ResponseFilter) map[string]QuestionStats {
	result := make(map[string]QuestionStats, len(survey.Questions))
	for _, q := range survey.Questions {
		result[q.ID] = QuestionStats{
			QuestionID: q.ID,
			Text:       q.Text,
			Type:       q.Type,
			Options:    map[string]int{},
			Responses:  []string{},
		}
	}

	for _, resp := range responses {
		answers := resp.AnswerMap()
		if !passesFilters(answers, filters) {
			continue
		}
		for _, q := range survey.Questions {
			answer, ok := answers[q.ID]
			if !ok {
				continue
			}
			qStats := result[q.ID]
			accumulateAnswer(&qStats, q, answer)
			result[q.ID] = qStats
		}
	}

	for qid, qStats := range result {
		switch qStats.Type {
		case surveyTypes.QUESTION_TYPE_NUMBER_INPUT:
			a.addNumericSummary(&qStats)
		case surveyTypes.QUESTION_TYPE_TEXT_INPUT:
			if len(qStats.Responses) > 0 {
				qStats.WordCloud = a.buildWordCloud(qStats.Responses)
			}
		}
		result[qid] = qStats
	}

	return result
}

func accumulateAnswer(qStats *QuestionStats, q surveyTypes.Question, answer surveyTypes.AnswerValue) {
	switch q.Type {
	case surveyTypes.QUESTION_TYPE_MULTIPLE_CHOICE, surveyTypes.QUESTION_TYPE_SATISFACTION_SCALE:
		qStats.Options[answer.String()]++
	case surveyTypes.QUESTION_TYPE_NUMBER_INPUT:
		qStats.Options[answer.String()]++
		if v, ok := answer.Float(); ok {
			qStats.Values = append(qStats.Values, v)
		}
	case surveyTypes.QUESTION_TYPE_CHECKBOX_GROUP:
		if answer.Kind != surveyTypes.AnswerKindList {
			return
		}
		for _, item := range answer.List {
			qStats.Options[item]++
		}
	case surveyTypes.QUESTION_TYPE_TEXT_INPUT:
		qStats.Responses = append(qStats.Responses, answer.String())
	}
}

func (a *Aggregator) addNumericSummary(qStats *QuestionStats) {
	values := qStats.Values
	if len(values) == 0 {
		return
	}

	sum := 0.0
	min := values[0]
	max := values[0]
	for _, v := range values {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	avg := roundTo2(sum / float64(len(values)))
	median := roundTo2(medianOf(values))

	qStats.Avg = &avg
	qStats.Median = &median
	qStats.Min = &min
	qStats.Max = &max
	qStats.Histogram = a.buildHistogram(values)
}

func medianOf(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (a *Aggregator) buildHistogram(values []float64) map[string]int {
	width := a.HistogramBucketWidth
	if width <= 0 {
		width = DEFAULT_HISTOGRAM_BUCKET_WIDTH
	}

	histogram := map[string]int{}
	for _, v := range values {
		lower := math.Floor(v/width) * width
		upper := lower + width - 1
		key := fmt.Sprintf("%s-%s", formatBound(lower), formatBound(upper))
		histogram[key]++
	}
	return histogram
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
