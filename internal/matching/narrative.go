package matching

import (
	"fmt"
	"math"
	"strings"

	"candidate-matching-workers/internal/models"
)

// Recommendation texts. Consumers match on these, keep them stable.
const (
	RecommendationHighly   = "Highly Recommended - Excellent candidate with strong alignment across all areas."
	RecommendationStandard = "Recommended - Good candidate with minor gaps that can be addressed."
	RecommendationCaution  = "Consider with Caution - Moderate fit, requires careful evaluation of gaps."
	RecommendationNegative = "Not Recommended - Poor fit for current requirements."
)

const (
	TagTopCandidate = "Top Candidate"
	TagGoodMatch    = "Good Match"
	TagPotential    = "Potential"
	TagPoorFit      = "Poor Fit"
	TagSkillsExpert = "Skills Expert"
	TagSkillsGap    = "Skills Gap"
	TagExperienced  = "Experienced"
	TagEntryLevel   = "Entry Level"
)

const (
	strengthThreshold = 0.7
	weaknessThreshold = 0.5
)

func Recommend(overall float64) string {
	switch {
	case overall >= 0.8:
		return RecommendationHighly
	case overall >= 0.6:
		return RecommendationStandard
	case overall >= 0.4:
		return RecommendationCaution
	default:
		return RecommendationNegative
	}
}

// RecommendationTier is the short label of Recommend, used as a metric label.
func RecommendationTier(overall float64) string {
	switch {
	case overall >= 0.8:
		return "highly_recommended"
	case overall >= 0.6:
		return "recommended"
	case overall >= 0.4:
		return "caution"
	default:
		return "not_recommended"
	}
}

func explain(scores models.MatchingScore, candidate models.ParsedResume, job models.JobRequirements) string {
	parts := []string{
		fmt.Sprintf("%s scored %d%% overall for the %s position.",
			candidate.CandidateName, int(math.Round(scores.Overall*100)), job.Title),
	}

	switch {
	case scores.Skills > 0.7:
		parts = append(parts, "Strong technical skills alignment with job requirements.")
	case scores.Skills > 0.5:
		parts = append(parts, "Moderate skills match with some gaps to address.")
	default:
		parts = append(parts, "Limited skills alignment - significant training may be required.")
	}

	switch {
	case scores.Experience > 0.7:
		parts = append(parts, "Excellent relevant experience for this role.")
	case scores.Experience > 0.5:
		parts = append(parts, "Good experience level with room for growth.")
	default:
		parts = append(parts, "Limited relevant experience - may be suitable for junior role.")
	}

	if scores.Education > 0.7 {
		parts = append(parts, "Educational background strongly supports role requirements.")
	}

	return strings.Join(parts, " ")
}

func strengths(scores models.MatchingScore, candidate models.ParsedResume) []string {
	out := []string{}
	if scores.Skills > strengthThreshold {
		out = append(out, "Strong technical skills")
	}
	if scores.Experience > strengthThreshold {
		out = append(out, "Relevant work experience")
	}
	if scores.Education > strengthThreshold {
		out = append(out, "Appropriate educational background")
	}
	if scores.CulturalFit != nil && *scores.CulturalFit > strengthThreshold {
		out = append(out, "Good cultural fit")
	}
	if len(candidate.Certifications) > 0 {
		out = append(out, "Professional certifications")
	}
	if len(candidate.Languages) > 1 {
		out = append(out, "Multilingual abilities")
	}
	return out
}

func weaknesses(scores models.MatchingScore) []string {
	out := []string{}
	if scores.Skills < weaknessThreshold {
		out = append(out, "Limited technical skills match")
	}
	if scores.Experience < weaknessThreshold {
		out = append(out, "Insufficient relevant experience")
	}
	if scores.Education < weaknessThreshold {
		out = append(out, "Educational background concerns")
	}
	if scores.CulturalFit != nil && *scores.CulturalFit < weaknessThreshold {
		out = append(out, "Cultural fit concerns")
	}
	return out
}

func tags(scores models.MatchingScore, job models.JobRequirements) []string {
	out := []string{}

	switch {
	case scores.Overall >= 0.8:
		out = append(out, TagTopCandidate)
	case scores.Overall >= 0.6:
		out = append(out, TagGoodMatch)
	case scores.Overall >= 0.4:
		out = append(out, TagPotential)
	default:
		out = append(out, TagPoorFit)
	}

	if scores.Skills >= 0.8 {
		out = append(out, TagSkillsExpert)
	} else if scores.Skills < 0.4 {
		out = append(out, TagSkillsGap)
	}

	if scores.Experience >= 0.8 {
		out = append(out, TagExperienced)
	} else if scores.Experience < 0.4 {
		out = append(out, TagEntryLevel)
	}

	if job.Department != "" {
		out = append(out, job.Department)
	}

	return out
}
