package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"candidate-matching-workers/internal/common/validation"
	"candidate-matching-workers/internal/models"
)

func loadJob(path string) (models.JobRequirements, error) {
	var job models.JobRequirements
	content, err := os.ReadFile(path)
	if err != nil {
		return job, fmt.Errorf("failed to read job file %s: %w", path, err)
	}
	if err := json.Unmarshal(content, &job); err != nil {
		return job, fmt.Errorf("failed to unmarshal job JSON: %w", err)
	}
	return job, nil
}

func loadResume(path string) (models.ParsedResume, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return models.ParsedResume{}, fmt.Errorf("failed to read resume file %s: %w", path, err)
	}
	parsed, err := validation.DecodeParsedResume(string(content))
	if err != nil {
		return models.ParsedResume{}, fmt.Errorf("%s: %w", path, err)
	}
	return *parsed, nil
}

// loadResumes reads every *.json file of a directory in name order, or a
// single file holding either one resume or an array of them.
func loadResumes(path string) ([]models.ParsedResume, []string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if info.IsDir() {
		files, err := filepath.Glob(filepath.Join(path, "*.json"))
		if err != nil {
			return nil, nil, err
		}
		sort.Strings(files)

		resumes := make([]models.ParsedResume, 0, len(files))
		for _, f := range files {
			r, err := loadResume(f)
			if err != nil {
				return nil, nil, err
			}
			resumes = append(resumes, r)
		}
		return resumes, files, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read resumes file %s: %w", path, err)
	}
	if trimmed := strings.TrimSpace(string(content)); !strings.HasPrefix(trimmed, "[") {
		r, err := loadResume(path)
		if err != nil {
			return nil, nil, err
		}
		return []models.ParsedResume{r}, []string{path}, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal resumes JSON: %w", err)
	}
	resumes := make([]models.ParsedResume, 0, len(raw))
	sources := make([]string, 0, len(raw))
	for i, blob := range raw {
		source := fmt.Sprintf("%s[%d]", path, i)
		r, err := validation.DecodeParsedResume(string(blob))
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", source, err)
		}
		resumes = append(resumes, *r)
		sources = append(sources, source)
	}
	return resumes, sources, nil
}

// parseWeights reads "skills,experience,education,culturalFit". An empty
// string yields the zero value, which callers treat as the defaults.
func parseWeights(s string) (models.ScoringWeights, error) {
	var w models.ScoringWeights
	if strings.TrimSpace(s) == "" {
		return w, nil
	}

	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return w, fmt.Errorf("weights must have 4 comma-separated values, got %d", len(parts))
	}
	values := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return w, fmt.Errorf("invalid weight %q: %w", p, err)
		}
		if v < 0 {
			return w, fmt.Errorf("weight %q must not be negative", p)
		}
		values[i] = v
	}
	return models.ScoringWeights{
		Skills:      values[0],
		Experience:  values[1],
		Education:   values[2],
		CulturalFit: values[3],
	}, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
