package endpoints

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/formscan/internal/api"
	"github.com/jackzampolin/formscan/internal/config"
	"github.com/jackzampolin/formscan/internal/ingest"
	"github.com/jackzampolin/formscan/internal/pipeline"
	"github.com/jackzampolin/formscan/internal/svcctx"
)

// ProcessRequest is the body for starting a processing batch. Inputs are
// paths visible to the server process: images, directories, ZIPs, or PDFs.
type ProcessRequest struct {
	Inputs   []string `json:"inputs"`
	Template string   `json:"template,omitempty"`
	Binarize bool     `json:"binarize,omitempty"`
}

// ProcessEndpoint handles POST /api/process.
type ProcessEndpoint struct{}

func (e *ProcessEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/process", e.handler
}

func (e *ProcessEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Inputs) == 0 {
		writeError(w, http.StatusBadRequest, "inputs are required")
		return
	}

	services := svcctx.ServicesFrom(r.Context())
	if services == nil || services.Results == nil || services.Templates == nil {
		writeError(w, http.StatusServiceUnavailable, "server not fully initialized")
		return
	}

	extractDir, err := os.MkdirTemp("", "formscan-ingest-*")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	pages, err := ingest.Collect(r.Context(), services.Logger, req.Inputs, extractDir)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	proc := processorFromServices(services)
	proc.Binarize = req.Binarize
	batch, err := proc.ProcessBatch(r.Context(), req.Template, pages)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, batch)
}

func (e *ProcessEndpoint) Command(getServerURL func() string) *cobra.Command {
	var templateName string
	var binarize bool
	cmd := &cobra.Command{
		Use:   "process <input>...",
		Short: "Run documents through the extraction pipeline",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			req := ProcessRequest{Inputs: args, Template: templateName, Binarize: binarize}
			var batch pipeline.BatchResult
			if err := client.Post(cmd.Context(), "/api/process", req, &batch); err != nil {
				return err
			}
			return api.Output(batch)
		},
	}
	cmd.Flags().StringVarP(&templateName, "template", "t", "", "template name (default: auto-detect)")
	cmd.Flags().BoolVar(&binarize, "binarize", false, "threshold crops to black and white before OCR")
	return cmd
}

// processorFromServices builds a pipeline processor from the request-scoped
// services, falling back to default engine selections when no config manager
// is wired in.
func processorFromServices(services *svcctx.Services) *pipeline.Processor {
	defaults := config.DefaultConfig().Defaults
	if services.ConfigMgr != nil {
		defaults = services.ConfigMgr.Get().Defaults
	}
	return &pipeline.Processor{
		Templates:       services.Templates,
		Results:         services.Results,
		Registry:        services.Registry,
		Home:            services.Home,
		Logger:          services.Logger,
		PrimaryEngine:   defaults.PrimaryEngine,
		SecondaryEngine: defaults.SecondaryEngine,
		MaxWorkers:      defaults.MaxWorkers,
	}
}
