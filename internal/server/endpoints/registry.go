// Package endpoints defines the HTTP API surface. Each endpoint doubles as a
// CLI command that calls the running server.
package endpoints

import (
	"github.com/jackzampolin/formscan/internal/api"
)

// All returns all endpoint instances.
func All() []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&StatusEndpoint{},

		// Template endpoints
		&ListTemplatesEndpoint{},
		&GetTemplateEndpoint{},
		&AddCorrectionEndpoint{},

		// Processing endpoints
		&ProcessEndpoint{},

		// Job and result endpoints
		&ListJobsEndpoint{},
		&JobResultsEndpoint{},
		&ReviewResultEndpoint{},
	}
}
