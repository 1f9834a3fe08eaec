package matching

import (
	"math"
	"strings"

	"candidate-matching-workers/internal/models"
)

const (
	noEducationScore      = 0.3
	educationBaseScore    = 0.3
	degreeContribution    = 0.4
	fieldContribution     = 0.3
	defaultRequiredDegree = 1
)

// degree levels, highest first so the first hit wins.
var degreeLevels = []struct {
	level    int
	keywords []string
}{
	{4, []string{"phd", "doctorate"}},
	{3, []string{"master", "mba"}},
	{2, []string{"bachelor"}},
	{1, []string{"associate"}},
}

// ScoreEducation rates a candidate's education. requiredDegree and
// preferredFields are optional.
func ScoreEducation(entries []models.EducationEntry, requiredDegree string, preferredFields []string) float64 {
	if len(entries) == 0 {
		return noEducationScore
	}

	score := educationBaseScore

	candidateLevel := highestDegreeLevel(entries)
	requiredLevel := defaultRequiredDegree
	if requiredDegree != "" {
		requiredLevel = RequiredDegreeLevel(requiredDegree)
	}
	score += math.Min(1, float64(candidateLevel)/float64(requiredLevel)) * degreeContribution

	if len(preferredFields) > 0 {
		if anyFieldMatches(entries, preferredFields) {
			score += fieldContribution
		}
	} else {
		score += fieldContribution
	}

	return math.Min(score, 1.0)
}

// DegreeLevel maps a degree name to its ordinal, 0 when unrecognized.
func DegreeLevel(degree string) int {
	lower := strings.ToLower(degree)
	for _, d := range degreeLevels {
		for _, kw := range d.keywords {
			if strings.Contains(lower, kw) {
				return d.level
			}
		}
	}
	return 0
}

// RequiredDegreeLevel is DegreeLevel with unrecognized requirements treated
// as the lowest level.
func RequiredDegreeLevel(degree string) int {
	if level := DegreeLevel(degree); level > 0 {
		return level
	}
	return defaultRequiredDegree
}

func highestDegreeLevel(entries []models.EducationEntry) int {
	highest := 0
	for _, e := range entries {
		if level := DegreeLevel(e.Degree); level > highest {
			highest = level
		}
	}
	return highest
}

func anyFieldMatches(entries []models.EducationEntry, fields []string) bool {
	for _, e := range entries {
		degree := strings.ToLower(e.Degree)
		university := strings.ToLower(e.University)
		for _, f := range fields {
			field := strings.ToLower(f)
			if strings.Contains(degree, field) || strings.Contains(university, field) {
				return true
			}
		}
	}
	return false
}
