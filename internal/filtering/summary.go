package filtering

import (
	"encoding/json"
	"sort"
	"strings"

	"candidate-matching-workers/internal/matching"
	"candidate-matching-workers/internal/models"
)

const topN = 10

// enrich decodes each record's parsed-data blob and flattens its tags. A blob
// that does not decode leaves ParsedData nil; the record is kept.
func enrich(records []models.EvaluationRecord) []EnrichedEvaluation {
	out := make([]EnrichedEvaluation, 0, len(records))
	for _, rec := range records {
		e := EnrichedEvaluation{
			EvaluationRecord: rec,
			ParsedData:       decodeParsedData(rec.Resume.ParsedData),
			Tags:             make([]string, 0, len(rec.Resume.Tags)),
		}
		for _, tag := range rec.Resume.Tags {
			e.Tags = append(e.Tags, tag.Name)
		}
		out = append(out, e)
	}
	return out
}

func decodeParsedData(blob string) *models.ParsedResume {
	if strings.TrimSpace(blob) == "" {
		return nil
	}
	var parsed models.ParsedResume
	if err := json.Unmarshal([]byte(blob), &parsed); err != nil {
		return nil
	}
	return &parsed
}

// counter tallies keys and remembers the order they were first seen in.
type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(key string) {
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

// top returns at most n keys by count, ties in first-seen order.
func (c *counter) top(n int) []string {
	keys := append([]string(nil), c.order...)
	sort.SliceStable(keys, func(i, j int) bool {
		return c.counts[keys[i]] > c.counts[keys[j]]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

func summarize(evaluations []EnrichedEvaluation) Summary {
	s := Summary{
		CommonSkills: []SkillCount{},
		TopTags:      []TagCount{},
	}
	if len(evaluations) == 0 {
		return s
	}

	var sum, top float64
	skills := newCounter()
	tags := newCounter()

	for i, e := range evaluations {
		score := e.OverallScore
		sum += score
		if i == 0 || score > top {
			top = score
		}
		s.ScoreDistribution.Add(score)

		if e.ParsedData != nil {
			for _, skill := range e.ParsedData.Skills {
				if norm := strings.ToLower(strings.TrimSpace(skill)); norm != "" {
					skills.add(norm)
				}
			}
		}
		for _, tag := range e.Tags {
			tags.add(tag)
		}
	}

	s.AverageScore = matching.Round2(sum / float64(len(evaluations)))
	s.TopScore = matching.Round2(top)

	for _, skill := range skills.top(topN) {
		s.CommonSkills = append(s.CommonSkills, SkillCount{Skill: skill, Count: skills.counts[skill]})
	}
	for _, tag := range tags.top(topN) {
		s.TopTags = append(s.TopTags, TagCount{Tag: tag, Count: tags.counts[tag]})
	}
	return s
}
