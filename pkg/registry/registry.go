// pkg/registry/registry.go
package registry

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"crew-match-workers/internal/common/validation"
)

//go:embed activity-registry.json
var builtin []byte

// Default returns the registry compiled into the binary.
func Default() (*ActivityRegistry, error) {
	return Parse(builtin)
}

// LoadRegistry reads a registry file. An empty path loads the built-in registry.
func LoadRegistry(path string) (*ActivityRegistry, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*ActivityRegistry, error) {
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}
	return &reg, nil
}

// Find returns the activity bound to a Zeebe task type.
func (r *ActivityRegistry) Find(taskType string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// MustInputValidator compiles the input schema for taskType and panics if
// the activity is missing or its schema is broken. Intended for startup wiring.
func (r *ActivityRegistry) MustInputValidator(taskType string) *validation.Schema {
	activity, ok := r.Find(taskType)
	if !ok {
		panic(fmt.Sprintf("registry: no activity for task type %q", taskType))
	}
	schema, err := activity.InputValidator()
	if err != nil {
		panic(fmt.Sprintf("registry: %v", err))
	}
	return schema
}

// Validate checks required fields, naming, uniqueness and that every schema compiles.
func (r *ActivityRegistry) Validate() error {
	if len(r.Activities) == 0 {
		return fmt.Errorf("registry contains no activities")
	}
	if r.LastUpdated != "" {
		if _, err := time.Parse(time.RFC3339, r.LastUpdated); err != nil {
			return fmt.Errorf("lastUpdated: %w", err)
		}
	}

	ids := make(map[string]bool)
	taskTypes := make(map[string]bool)
	for i := range r.Activities {
		activity := &r.Activities[i]

		if activity.ID == "" {
			return fmt.Errorf("activity missing required field: ID")
		}
		if ids[activity.ID] {
			return fmt.Errorf("duplicate activity ID: %s", activity.ID)
		}
		ids[activity.ID] = true

		if err := validation.ValidateActivityNaming(activity.ID); err != nil {
			return err
		}
		if activity.DisplayName == "" {
			return fmt.Errorf("activity %s missing required field: DisplayName", activity.ID)
		}
		if activity.TaskType == "" {
			return fmt.Errorf("activity %s missing required field: TaskType", activity.ID)
		}
		if taskTypes[activity.TaskType] {
			return fmt.Errorf("duplicate task type: %s", activity.TaskType)
		}
		taskTypes[activity.TaskType] = true

		if activity.Category == "" {
			return fmt.Errorf("activity %s missing required field: Category", activity.ID)
		}
		if activity.Timeout != "" {
			if _, err := time.ParseDuration(activity.Timeout); err != nil {
				return fmt.Errorf("activity %s timeout: %w", activity.ID, err)
			}
		}
		if _, err := activity.InputValidator(); err != nil {
			return fmt.Errorf("activity %s input schema: %w", activity.ID, err)
		}
		if len(activity.OutputSchema) > 0 {
			if _, err := activity.OutputValidator(); err != nil {
				return fmt.Errorf("activity %s output schema: %w", activity.ID, err)
			}
		}
	}
	return nil
}
