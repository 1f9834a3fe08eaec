package matching

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"candidate-matching-workers/internal/models"
)

const (
	noExperienceScore       = 0.2
	experienceBaseScore     = 0.5
	yearsContribution       = 0.3
	rolesContribution       = 0.2
	defaultBenchmarkYears   = 5.0
	unparsableDurationYears = 1
)

var firstInteger = regexp.MustCompile(`\d+`)

// ScoreExperience rates a candidate's work history. requiredYears and
// requiredRoles are optional; nil or empty means "not specified".
func ScoreExperience(entries []models.ExperienceEntry, requiredYears *float64, requiredRoles []string) float64 {
	if len(entries) == 0 {
		return noExperienceScore
	}

	total := float64(EstimateYears(entries))
	score := experienceBaseScore

	if requiredYears != nil && *requiredYears > 0 {
		score += math.Min(1, total / *requiredYears) * yearsContribution
	} else {
		score += math.Min(1, total/defaultBenchmarkYears) * yearsContribution
	}

	if len(requiredRoles) > 0 {
		matched := 0
		for _, e := range entries {
			if titleMatchesAnyRole(e.Title, requiredRoles) {
				matched++
			}
		}
		score += float64(matched) / float64(len(entries)) * rolesContribution
	} else {
		score += rolesContribution
	}

	return math.Min(score, 1.0)
}

// EstimateYears sums the first integer found in every entry's duration text,
// counting one year for entries that have none.
func EstimateYears(entries []models.ExperienceEntry) int {
	total := 0
	for _, e := range entries {
		years := unparsableDurationYears
		if m := firstInteger.FindString(e.Duration); m != "" {
			if n, err := strconv.Atoi(m); err == nil {
				years = n
			}
		}
		total += years
	}
	return total
}

func titleMatchesAnyRole(title string, roles []string) bool {
	t := strings.ToLower(title)
	for _, role := range roles {
		r := strings.ToLower(role)
		if strings.Contains(t, r) || strings.Contains(r, t) {
			return true
		}
	}
	return false
}
