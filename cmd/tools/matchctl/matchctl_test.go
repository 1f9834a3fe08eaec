package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"candidate-matching-workers/internal/matching"
	"candidate-matching-workers/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

const strongResume = `{
  "candidateName": "John Doe",
  "candidateEmail": "john.doe@email.com",
  "skills": ["JavaScript", "TypeScript", "React", "Node.js", "AWS", "Docker"],
  "experience": [
    {"title": "Senior Software Engineer", "company": "Tech Corp", "duration": "2019-2023"}
  ],
  "education": [
    {"degree": "Bachelor of Computer Science", "university": "State University", "year": "2019"}
  ]
}`

const weakResume = `{
  "candidateName": "Jane Roe",
  "skills": ["Photoshop"]
}`

const jobJSON = `{
  "id": "job1",
  "title": "Full Stack Developer",
  "description": "We are looking for a Full Stack Developer with experience in React, Node.js, and cloud technologies.",
  "requirements": "Required: JavaScript, React, Node.js, 3+ years experience. Preferred: TypeScript, AWS, Docker",
  "department": "Engineering"
}`

func writeFile(t *testing.T, dir, name, content string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// ==========================
// Input Tests
// ==========================

func TestParseWeights(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    models.ScoringWeights
		wantErr bool
	}{
		{name: "empty", input: "", want: models.ScoringWeights{}},
		{name: "four values", input: "0.5, 0.25,0.15,0.1", want: models.ScoringWeights{Skills: 0.5, Experience: 0.25, Education: 0.15, CulturalFit: 0.1}},
		{name: "too few", input: "0.5,0.5", wantErr: true},
		{name: "not a number", input: "a,b,c,d", wantErr: true},
		{name: "negative", input: "1,-1,0,0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseWeights(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadResumes(t *testing.T) {
	t.Run("directory in name order", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "b.json", weakResume)
		writeFile(t, dir, "a.json", strongResume)
		writeFile(t, dir, "notes.txt", "ignored")

		resumes, sources, err := loadResumes(dir)
		require.NoError(t, err)
		require.Len(t, resumes, 2)
		assert.Equal(t, "John Doe", resumes[0].CandidateName)
		assert.Equal(t, filepath.Join(dir, "b.json"), sources[1])
	})

	t.Run("array file", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "all.json", "["+strongResume+","+weakResume+"]")

		resumes, sources, err := loadResumes(path)
		require.NoError(t, err)
		require.Len(t, resumes, 2)
		assert.Equal(t, "Jane Roe", resumes[1].CandidateName)
		assert.Equal(t, path+"[1]", sources[1])
	})

	t.Run("single file", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "one.json", strongResume)

		resumes, _, err := loadResumes(path)
		require.NoError(t, err)
		assert.Len(t, resumes, 1)
	})

	t.Run("schema violation names the source", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "all.json", `[{"candidateName": 7, "skills": []}]`)

		_, _, err := loadResumes(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), path+"[0]")
	})

	t.Run("missing path", func(t *testing.T) {
		_, _, err := loadResumes(filepath.Join(t.TempDir(), "nope"))
		assert.Error(t, err)
	})
}

// ==========================
// Command Tests
// ==========================

func TestEvaluateCommand(t *testing.T) {
	dir := t.TempDir()
	resumePath := writeFile(t, dir, "resume.json", strongResume)
	jobPath := writeFile(t, dir, "job.json", jobJSON)

	out, err := runCommand(t, "evaluate", "--resume", resumePath, "--job", jobPath, "--weights", "")
	require.NoError(t, err)

	var got models.EvaluationResult
	require.NoError(t, json.Unmarshal([]byte(out), &got))

	resume, err := loadResume(resumePath)
	require.NoError(t, err)
	job, err := loadJob(jobPath)
	require.NoError(t, err)
	want := matching.Evaluate(resume, job, models.DefaultWeights())

	assert.Equal(t, want.Scores.Overall, got.Scores.Overall)
	assert.Equal(t, want.Recommendation, got.Recommendation)
	assert.Equal(t, want.Tags, got.Tags)
}

func TestBatchCommand(t *testing.T) {
	dir := t.TempDir()
	resumesDir := filepath.Join(dir, "resumes")
	require.NoError(t, os.Mkdir(resumesDir, 0o700))
	writeFile(t, resumesDir, "a-weak.json", weakResume)
	writeFile(t, resumesDir, "b-strong.json", strongResume)
	jobPath := writeFile(t, dir, "job.json", jobJSON)

	out, err := runCommand(t, "batch", "--resumes", resumesDir, "--job", jobPath, "--min-score", "0.3")
	require.NoError(t, err)

	var report struct {
		Ranked []struct {
			Rank   int    `json:"rank"`
			Source string `json:"source"`
		} `json:"ranked"`
		Summary struct {
			TotalCandidates    int `json:"totalCandidates"`
			FilteredCandidates int `json:"filteredCandidates"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))

	require.Len(t, report.Ranked, 1)
	assert.Equal(t, 1, report.Ranked[0].Rank)
	assert.Equal(t, filepath.Join(resumesDir, "b-strong.json"), report.Ranked[0].Source)
	assert.Equal(t, 2, report.Summary.TotalCandidates)
	assert.Equal(t, 1, report.Summary.FilteredCandidates)
}

func TestEvaluateCommand_RequiresFlags(t *testing.T) {
	_, err := runCommand(t, "evaluate", "--job", "job.json")
	assert.Error(t, err)
}
