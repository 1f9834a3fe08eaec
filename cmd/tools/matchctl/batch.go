package main

import (
	"github.com/spf13/cobra"

	"candidate-matching-workers/internal/batch"
	"candidate-matching-workers/internal/common/logger"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Rank many resumes against a job",
	Long:  "Evaluates every resume concurrently, sorts by overall score, applies the score and tag filters and prints the ranking with a summary.",
	RunE:  runBatch,
}

var (
	batchResumes     string
	batchJob         string
	batchWeights     string
	batchConcurrency int
	batchMinScore    float64
	batchMaxScore    float64
	batchTags        []string
	batchExcludeTags []string
	batchVerbose     bool
)

func init() {
	batchCmd.Flags().StringVarP(&batchResumes, "resumes", "r", "", "Directory of resume JSON files, or a file with one resume or an array (required)")
	batchCmd.Flags().StringVarP(&batchJob, "job", "j", "", "Path to a job JSON file (required)")
	batchCmd.Flags().StringVarP(&batchWeights, "weights", "w", "", "Scoring weights as skills,experience,education,culturalFit")
	batchCmd.Flags().IntVarP(&batchConcurrency, "concurrency", "c", batch.DefaultConcurrency, "Evaluations in flight")
	batchCmd.Flags().Float64Var(&batchMinScore, "min-score", 0, "Keep candidates scoring at least this")
	batchCmd.Flags().Float64Var(&batchMaxScore, "max-score", 1, "Keep candidates scoring at most this")
	batchCmd.Flags().StringSliceVar(&batchTags, "tag", nil, "Keep candidates carrying every given tag")
	batchCmd.Flags().StringSliceVar(&batchExcludeTags, "exclude-tag", nil, "Drop candidates carrying any given tag")
	batchCmd.Flags().BoolVarP(&batchVerbose, "verbose", "v", false, "Log progress to stderr")

	_ = batchCmd.MarkFlagRequired("resumes")
	_ = batchCmd.MarkFlagRequired("job")

	rootCmd.AddCommand(batchCmd)
}

type rankedEntry struct {
	Rank   int    `json:"rank"`
	Source string `json:"source"`
	batch.CandidateResult
}

type failedEntry struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

type batchReport struct {
	Ranked   []rankedEntry `json:"ranked"`
	Failures []failedEntry `json:"failures"`
	Summary  batch.Summary `json:"summary"`
}

func runBatch(cmd *cobra.Command, _ []string) error {
	weights, err := parseWeights(batchWeights)
	if err != nil {
		return err
	}
	resumes, sources, err := loadResumes(batchResumes)
	if err != nil {
		return err
	}
	job, err := loadJob(batchJob)
	if err != nil {
		return err
	}

	log := logger.NewNoOpLogger()
	if batchVerbose {
		log = logger.NewStructured("debug", "console", "stderr")
	}

	outcome, err := batch.NewProcessor(batchConcurrency, log).Process(cmd.Context(), resumes, job, weights)
	if err != nil {
		return err
	}

	filter := batch.BatchFilter{RequiredTags: batchTags, ExcludeTags: batchExcludeTags}
	if cmd.Flags().Changed("min-score") {
		filter.MinScore = &batchMinScore
	}
	if cmd.Flags().Changed("max-score") {
		filter.MaxScore = &batchMaxScore
	}
	kept := batch.Filter(outcome.Results, filter)

	report := batchReport{
		Ranked:   make([]rankedEntry, 0, len(kept)),
		Failures: make([]failedEntry, 0, len(outcome.Failures)),
		Summary:  batch.Summarize(len(outcome.Results), kept),
	}
	for i, r := range kept {
		report.Ranked = append(report.Ranked, rankedEntry{Rank: i + 1, Source: sources[r.Index], CandidateResult: r})
	}
	for _, f := range outcome.Failures {
		report.Failures = append(report.Failures, failedEntry{Source: sources[f.Index], Error: f.Error})
	}

	return writeJSON(cmd.OutOrStdout(), report)
}
