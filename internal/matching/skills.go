package matching

import (
	"math"
	"regexp"
	"strings"
)

const (
	noRequiredSkillsScore = 0.8
	partialMatchWeight    = 0.5
)

var skillTokenSeparator = regexp.MustCompile(`[\s\-_]+`)

// ScoreSkills rates how well candidateSkills cover requiredSkills.
//
// A required skill earns a full point when it and some candidate skill contain
// one another (after lowercasing and trimming), and half a point when only a
// token of it overlaps a token of some candidate skill.
func ScoreSkills(candidateSkills, requiredSkills []string) float64 {
	if len(requiredSkills) == 0 {
		return noRequiredSkillsScore
	}

	candidates := normalizeAll(candidateSkills)

	var full, partial int
	for _, raw := range requiredSkills {
		required := normalize(raw)
		switch {
		case containsEither(candidates, required):
			full++
		case tokensOverlap(candidates, required):
			partial++
		}
	}

	score := (float64(full) + partialMatchWeight*float64(partial)) / float64(len(requiredSkills))
	return math.Min(score, 1.0)
}

// MissingSkills returns the required skills no candidate skill matches in
// either direction. Candidate skills are lowercased only, not trimmed.
func MissingSkills(candidateSkills, requiredSkills []string) []string {
	candidates := make([]string, 0, len(candidateSkills))
	for _, s := range candidateSkills {
		if s == "" {
			continue
		}
		candidates = append(candidates, strings.ToLower(s))
	}

	missing := []string{}
	for _, required := range requiredSkills {
		if !containsEither(candidates, strings.ToLower(required)) {
			missing = append(missing, required)
		}
	}
	return missing
}

func containsEither(candidates []string, required string) bool {
	for _, c := range candidates {
		if strings.Contains(c, required) || strings.Contains(required, c) {
			return true
		}
	}
	return false
}

func tokensOverlap(candidates []string, required string) bool {
	requiredTokens := skillTokenSeparator.Split(required, -1)
	for _, c := range candidates {
		for _, token := range skillTokenSeparator.Split(c, -1) {
			if token == "" {
				continue
			}
			for _, reqToken := range requiredTokens {
				if reqToken == "" {
					continue
				}
				if strings.Contains(token, reqToken) || strings.Contains(reqToken, token) {
					return true
				}
			}
		}
	}
	return false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// normalizeAll drops entries that are blank after normalization; an empty
// string would otherwise be a substring of every required skill.
func normalizeAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if n := normalize(s); n != "" {
			out = append(out, n)
		}
	}
	return out
}
