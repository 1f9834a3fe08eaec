package main

import (
	"github.com/spf13/cobra"

	"candidate-matching-workers/internal/matching"
	"candidate-matching-workers/internal/models"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate one resume against a job",
	RunE:  runEvaluate,
}

var (
	evaluateResume  string
	evaluateJob     string
	evaluateWeights string
)

func init() {
	evaluateCmd.Flags().StringVarP(&evaluateResume, "resume", "r", "", "Path to a parsed resume JSON file (required)")
	evaluateCmd.Flags().StringVarP(&evaluateJob, "job", "j", "", "Path to a job JSON file (required)")
	evaluateCmd.Flags().StringVarP(&evaluateWeights, "weights", "w", "", "Scoring weights as skills,experience,education,culturalFit")

	_ = evaluateCmd.MarkFlagRequired("resume")
	_ = evaluateCmd.MarkFlagRequired("job")

	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	weights, err := parseWeights(evaluateWeights)
	if err != nil {
		return err
	}
	if weights.IsZero() {
		weights = models.DefaultWeights()
	}

	resume, err := loadResume(evaluateResume)
	if err != nil {
		return err
	}
	job, err := loadJob(evaluateJob)
	if err != nil {
		return err
	}

	return writeJSON(cmd.OutOrStdout(), matching.Evaluate(resume, job, weights))
}
