// Package main implements matchctl, an offline tool that scores resumes
// against a job without touching any database.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "matchctl",
	Short:         "Score candidate resumes against a job offline",
	Long:          "matchctl runs the candidate matching engine over parsed-resume and job JSON files and prints the evaluations as JSON.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
