package matching

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var technicalVocabulary = []string{
	"javascript", "typescript", "python", "java", "c++", "c#", "php", "ruby",
	"react", "vue", "angular", "node.js", "express", "django", "flask",
	"sql", "mysql", "postgresql", "mongodb", "redis",
	"aws", "azure", "gcp", "docker", "kubernetes",
	"git", "github", "gitlab", "jira", "confluence",
	"html", "css", "sass", "scss", "tailwind",
	"rest", "api", "graphql", "microservices",
	"agile", "scrum", "kanban", "devops", "ci/cd",
}

var (
	requirementSeparator = regexp.MustCompile(`[\s,.\-]+`)
	nonWordChars         = regexp.MustCompile(`\W`)
)

// ExtractRequiredSkills collects vocabulary terms mentioned anywhere in the
// job text plus every word of the requirements longer than two characters.
// The word list over-generates on purpose; scoring tolerates the noise.
// A word made only of punctuation, such as "+++", is kept as "" and counts as
// matched by any candidate skill. Duplicates are removed keeping first-seen
// order.
func ExtractRequiredSkills(description, requirements string) []string {
	text := strings.ToLower(description + " " + requirements)

	seen := make(map[string]struct{})
	skills := []string{}
	add := func(s string) {
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		skills = append(skills, s)
	}

	for _, term := range technicalVocabulary {
		if strings.Contains(text, term) {
			add(term)
		}
	}

	for _, word := range requirementSeparator.Split(requirements, -1) {
		if utf8.RuneCountInString(word) <= 2 {
			continue
		}
		add(nonWordChars.ReplaceAllString(word, ""))
	}

	return skills
}
