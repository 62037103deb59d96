// pkg/registry/schema.go
package registry

import (
	"fmt"

	"crew-match-workers/internal/common/validation"
)

type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

type Activity struct {
	ID                   string                 `json:"id"`
	DisplayName          string                 `json:"displayName"`
	Description          string                 `json:"description"`
	Category             string                 `json:"category"`
	Version              string                 `json:"version"`
	TaskType             string                 `json:"taskType"`
	ImplementationStatus string                 `json:"implementationStatus"`
	InputSchema          map[string]interface{} `json:"inputSchema"`
	OutputSchema         map[string]interface{} `json:"outputSchema"`
	ErrorCodes           []string               `json:"errorCodes"`
	Timeout              string                 `json:"timeout"`
	Retries              int                    `json:"retries"`
	Workflows            []string               `json:"workflows"`
	Tags                 []string               `json:"tags"`
}

// InputValidator compiles the activity's input schema.
func (a *Activity) InputValidator() (*validation.Schema, error) {
	if len(a.InputSchema) == 0 {
		return nil, fmt.Errorf("activity %s has no input schema", a.ID)
	}
	return validation.Compile(a.InputSchema)
}

// OutputValidator compiles the activity's output schema.
func (a *Activity) OutputValidator() (*validation.Schema, error) {
	if len(a.OutputSchema) == 0 {
		return nil, fmt.Errorf("activity %s has no output schema", a.ID)
	}
	return validation.Compile(a.OutputSchema)
}
