package endpoints

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/formscan/internal/api"
	"github.com/jackzampolin/formscan/internal/svcctx"
	"github.com/jackzampolin/formscan/internal/template"
)

// ListTemplatesEndpoint handles GET /api/templates.
type ListTemplatesEndpoint struct{}

func (e *ListTemplatesEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/templates", e.handler
}

func (e *ListTemplatesEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := svcctx.TemplatesFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "template store not initialized")
		return
	}
	names, err := store.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, names)
}

func (e *ListTemplatesEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List stored templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var names []string
			if err := client.Get(cmd.Context(), "/api/templates", &names); err != nil {
				return err
			}
			return api.Output(names)
		},
	}
}

// GetTemplateEndpoint handles GET /api/templates/{name}.
type GetTemplateEndpoint struct{}

func (e *GetTemplateEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/templates/{name}", e.handler
}

func (e *GetTemplateEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "template name is required")
		return
	}
	store := svcctx.TemplatesFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "template store not initialized")
		return
	}
	tpl, err := store.Load(name)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

func (e *GetTemplateEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "template <name>",
		Short: "Show one template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var tpl template.Template
			if err := client.Get(cmd.Context(), "/api/templates/"+args[0], &tpl); err != nil {
				return err
			}
			return api.Output(tpl)
		},
	}
}

// CorrectionRequest is the body for adding a correction to a template.
type CorrectionRequest struct {
	Wrong   string `json:"wrong"`
	Correct string `json:"correct"`
}

// AddCorrectionEndpoint handles POST /api/templates/{name}/corrections.
// Corrections accumulate; posting the same pair twice records it twice.
type AddCorrectionEndpoint struct{}

func (e *AddCorrectionEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/templates/{name}/corrections", e.handler
}

func (e *AddCorrectionEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "template name is required")
		return
	}

	var req CorrectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Wrong == "" {
		writeError(w, http.StatusBadRequest, "wrong text is required")
		return
	}

	store := svcctx.TemplatesFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "template store not initialized")
		return
	}
	if err := store.AppendCorrection(name, req.Wrong, req.Correct); err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

func (e *AddCorrectionEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "correct <template> <wrong> <correct>",
		Short: "Record a wrong/correct text pair on a template",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			req := CorrectionRequest{Wrong: args[1], Correct: args[2]}
			var resp map[string]string
			if err := client.Post(cmd.Context(), "/api/templates/"+args[0]+"/corrections", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
