package stats

import (
	"regexp"
	"sort"
	"strings"

	"github.com/BryanM518/Backend-Encuestas/pkg/utils"
)

type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Tokens are case-folded runs of at least 3 word characters.
var wordTokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{3,}`)

// Common short function words excluded from word clouds. The working
// language is a deployment property; override via Aggregator.StopWords.
var defaultStopWords = []string{
	"the", "and", "for", "that", "this", "with", "you", "not", "are",
	"was", "were", "have", "has", "had", "but", "all", "any", "can",
	"she", "they", "them", "their", "his", "her", "its", "our", "your",
	"what", "when", "where", "which", "who", "why", "how", "from",
	"into", "will", "would", "there", "been", "than", "then", "too",
	"very", "just", "about", "also",
}

// buildWordCloud returns the most frequent tokens across the raw text
// answers, stop words removed, ties broken by first-seen order.
func (a *Aggregator) buildWordCloud(texts []string) []WordCount {
	size := a.WordCloudSize
	if size <= 0 {
		size = DEFAULT_WORD_CLOUD_SIZE
	}
	stopWords := a.StopWords
	if stopWords == nil {
		stopWords = defaultStopWords
	}

	counts := map[string]int{}
	firstSeen := map[string]int{}
	order := 0

	for _, text := range texts {
		for _, token := range wordTokenPattern.FindAllString(strings.ToLower(text), -1) {
			if utils.ContainsString(stopWords, token) {
				continue
			}
			if _, seen := counts[token]; !seen {
				firstSeen[token] = order
				order++
			}
			counts[token]++
		}
	}

	words := make([]WordCount, 0, len(counts))
	for word, count := range counts {
		words = append(words, WordCount{Word: word, Count: count})
	}
	sort.SliceStable(words, func(i, j int) bool {
		if words[i].Count != words[j].Count {
			return words[i].Count > words[j].Count
		}
		return firstSeen[words[i].Word] < firstSeen[words[j].Word]
	})

	if len(words) > size {
		words = words[:size]
	}
	return words
}
