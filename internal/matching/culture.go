package matching

import (
	"math"
	"strings"

	"candidate-matching-workers/internal/models"
)

const (
	culturalBaseScore    = 0.5
	culturalContribution = 0.5
)

var culturalKeywords = []string{
	"team", "collaboration", "leadership", "innovation", "creative",
	"problem-solving", "communication", "adaptable", "flexible",
	"fast-paced", "startup", "entrepreneurial", "remote", "agile",
}

// ScoreCulturalFit counts the culture keywords that appear both in the
// candidate's summary and experience descriptions and in the job description.
func ScoreCulturalFit(resume models.ParsedResume, jobDescription string) float64 {
	parts := make([]string, 0, len(resume.Experience)+1)
	parts = append(parts, resume.Summary)
	for _, e := range resume.Experience {
		parts = append(parts, e.Description)
	}
	candidateText := strings.ToLower(strings.Join(parts, " "))
	jobText := strings.ToLower(jobDescription)

	matches := 0
	for _, kw := range culturalKeywords {
		if strings.Contains(candidateText, kw) && strings.Contains(jobText, kw) {
			matches++
		}
	}

	score := culturalBaseScore + float64(matches)/float64(len(culturalKeywords))*culturalContribution
	return math.Min(score, 1.0)
}
