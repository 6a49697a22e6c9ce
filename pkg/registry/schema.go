// pkg/registry/schema.go
package registry

import "time"

type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

// Activity describes one BPMN service task served by a loan worker.
type Activity struct {
	ID                   string                 `json:"id"`
	DisplayName          string                 `json:"displayName"`
	Description          string                 `json:"description"`
	Category             string                 `json:"category"`
	Version              string                 `json:"version"`
	TaskType             string                 `json:"taskType"`
	ImplementationStatus string                 `json:"implementationStatus"`
	InputSchema          map[string]interface{} `json:"inputSchema"`
	OutputSchema         map[string]interface{} `json:"outputSchema,omitempty"`
	ErrorCodes           []string               `json:"errorCodes,omitempty"`
	Timeout              string                 `json:"timeout"`
	Retries              int                    `json:"retries"`
	Workflows            []string               `json:"workflows,omitempty"`
	Tags                 []string               `json:"tags,omitempty"`
}

// TimeoutDuration parses Timeout, falling back to def when unset or invalid.
func (a Activity) TimeoutDuration(def time.Duration) time.Duration {
	d, err := time.ParseDuration(a.Timeout)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// registryDocument is the shape every registry file must have.
const registryDocument = `{
	"type": "object",
	"required": ["version", "activities"],
	"properties": {
		"version": {"type": "string", "minLength": 1},
		"lastUpdated": {"type": "string"},
		"activities": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "taskType", "implementationStatus", "inputSchema"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"taskType": {"type": "string", "pattern": "^[a-z][a-z0-9-]*$"},
					"implementationStatus": {"enum": ["implemented", "planned", "deprecated"]},
					"inputSchema": {"type": "object"},
					"outputSchema": {"type": "object"},
					"errorCodes": {"type": "array", "items": {"type": "string"}},
					"retries": {"type": "integer", "minimum": 0}
				}
			}
		}
	}
}`
