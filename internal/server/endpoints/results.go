package endpoints

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/formscan/internal/api"
	"github.com/jackzampolin/formscan/internal/svcctx"
)

// ReviewRequest is the body for correcting an extracted field.
type ReviewRequest struct {
	Text   string `json:"text"`
	Status string `json:"status,omitempty"`
}

// ReviewResultEndpoint handles PATCH /api/results/{id}: a human reviewer
// confirms or corrects one extracted field.
type ReviewResultEndpoint struct{}

func (e *ReviewResultEndpoint) Route() (string, string, http.HandlerFunc) {
	return "PATCH", "/api/results/{id}", e.handler
}

func (e *ReviewResultEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	resultID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "result id must be an integer")
		return
	}

	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	store := svcctx.ResultsFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "result store not initialized")
		return
	}
	if err := store.UpdateResult(resultID, req.Text, req.Status); err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (e *ReviewResultEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "review <result-id> <text>",
		Short: "Confirm or correct an extracted field",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp map[string]string
			if err := client.Patch(cmd.Context(), "/api/results/"+args[0], ReviewRequest{Text: args[1]}, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
