package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/formscan/internal/api"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Inspect and review extraction results",
}

var resultsJobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List processing jobs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, _, err := buildServices()
		if err != nil {
			return err
		}
		defer services.Results.Close()

		jobs, err := services.Results.ListJobs()
		if err != nil {
			return err
		}
		return api.Output(jobs)
	},
}

var resultsGetCmd = &cobra.Command{
	Use:   "get <job-id>",
	Short: "Fetch the extracted fields for a job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jobID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("job id must be an integer: %q", args[0])
		}

		services, _, err := buildServices()
		if err != nil {
			return err
		}
		defer services.Results.Close()

		rows, err := services.Results.FetchResults(jobID)
		if err != nil {
			return err
		}
		return api.Output(rows)
	},
}

var resultsReviewCmd = &cobra.Command{
	Use:   "review <result-id> <text>",
	Short: "Confirm or correct an extracted field",
	Long: `Set the final text for one extracted field after human review.

The row is marked corrected and its status becomes "confirmed". The
original engine readings are kept alongside the correction.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		resultID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("result id must be an integer: %q", args[0])
		}

		services, _, err := buildServices()
		if err != nil {
			return err
		}
		defer services.Results.Close()

		return services.Results.UpdateResult(resultID, args[1], "")
	},
}

func init() {
	resultsCmd.AddCommand(resultsJobsCmd)
	resultsCmd.AddCommand(resultsGetCmd)
	resultsCmd.AddCommand(resultsReviewCmd)

	rootCmd.AddCommand(resultsCmd)
}
