// pkg/registry/registry.go

// Package registry loads the activity registry that documents every loan
// worker task type together with its input and output schemas.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"staff-loans/internal/common/validation"
)

var ErrUnknownTaskType = errors.New("UNKNOWN_TASK_TYPE")

var documentSchema = validation.MustCompile("activity-registry", registryDocument)

// LoadRegistry reads and validates the registry at path.
func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse validates data against the registry document schema, then checks that
// every activity schema compiles and task types are unique.
func Parse(data []byte) (*ActivityRegistry, error) {
	if err := documentSchema.Validate(data).Err(); err != nil {
		return nil, fmt.Errorf("registry document: %w", err)
	}

	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, err
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return &reg, nil
}

// Save validates r and writes it to path as indented JSON.
func (r *ActivityRegistry) Save(path string) error {
	if err := r.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// SetStatus changes the implementation status of the activity with id.
func (r *ActivityRegistry) SetStatus(id, status string) error {
	switch status {
	case "implemented", "planned", "deprecated":
	default:
		return fmt.Errorf("unknown implementation status %q", status)
	}
	for i := range r.Activities {
		if r.Activities[i].ID == id {
			r.Activities[i].ImplementationStatus = status
			return nil
		}
	}
	return fmt.Errorf("activity with ID %s not found", id)
}

func (r *ActivityRegistry) Validate() error {
	seen := make(map[string]string, len(r.Activities))
	for _, a := range r.Activities {
		if other, dup := seen[a.TaskType]; dup {
			return fmt.Errorf("task type %q declared by %s and %s", a.TaskType, other, a.ID)
		}
		seen[a.TaskType] = a.ID

		if _, err := validation.Compile(a.TaskType+"/input", a.InputSchema); err != nil {
			return err
		}
		if a.OutputSchema != nil {
			if _, err := validation.Compile(a.TaskType+"/output", a.OutputSchema); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *ActivityRegistry) Find(taskType string) (Activity, error) {
	for _, a := range r.Activities {
		if a.TaskType == taskType {
			return a, nil
		}
	}
	return Activity{}, fmt.Errorf("%w: %s", ErrUnknownTaskType, taskType)
}

// InputSchema compiles the input schema of taskType.
func (r *ActivityRegistry) InputSchema(taskType string) (*validation.Schema, error) {
	a, err := r.Find(taskType)
	if err != nil {
		return nil, err
	}
	return validation.Compile(taskType+"/input", a.InputSchema)
}

// Missing returns the given task types that have no implemented activity.
func (r *ActivityRegistry) Missing(taskTypes []string) []string {
	var out []string
	for _, tt := range taskTypes {
		a, err := r.Find(tt)
		if err != nil || a.ImplementationStatus != "implemented" {
			out = append(out, tt)
		}
	}
	sort.Strings(out)
	return out
}
