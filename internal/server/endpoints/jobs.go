package endpoints

import (
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/formscan/internal/api"
	"github.com/jackzampolin/formscan/internal/results"
	"github.com/jackzampolin/formscan/internal/svcctx"
)

// ListJobsEndpoint handles GET /api/jobs.
type ListJobsEndpoint struct{}

func (e *ListJobsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/jobs", e.handler
}

func (e *ListJobsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := svcctx.ResultsFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "result store not initialized")
		return
	}
	jobs, err := store.ListJobs()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (e *ListJobsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "jobs",
		Short: "List processing jobs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var jobs []results.Job
			if err := client.Get(cmd.Context(), "/api/jobs", &jobs); err != nil {
				return err
			}
			return api.Output(jobs)
		},
	}
}

// JobResultsEndpoint handles GET /api/jobs/{id}/results.
type JobResultsEndpoint struct{}

func (e *JobResultsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/jobs/{id}/results", e.handler
}

func (e *JobResultsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	jobID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "job id must be an integer")
		return
	}
	store := svcctx.ResultsFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "result store not initialized")
		return
	}
	rows, err := store.FetchResults(jobID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (e *JobResultsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "results <job-id>",
		Short: "Fetch the extracted fields for a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var rows []results.Result
			if err := client.Get(cmd.Context(), "/api/jobs/"+args[0]+"/results", &rows); err != nil {
				return err
			}
			return api.Output(rows)
		},
	}
}
