// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
)

// New builds a registry and rejects duplicate task types.
func New(version string, activities ...Activity) (*ActivityRegistry, error) {
	seen := make(map[string]bool, len(activities))
	for _, a := range activities {
		if a.TaskType == "" {
			return nil, fmt.Errorf("activity %q has no task type", a.ID)
		}
		if seen[a.TaskType] {
			return nil, fmt.Errorf("duplicate task type %q", a.TaskType)
		}
		seen[a.TaskType] = true
	}
	return &ActivityRegistry{Version: version, Activities: activities}, nil
}

// Find returns the activity for taskType.
func (r *ActivityRegistry) Find(taskType string) (Activity, bool) {
	for _, a := range r.Activities {
		if a.TaskType == taskType {
			return a, true
		}
	}
	return Activity{}, false
}

// SchemaMap converts a typed schema into the generic form stored in Activity.
func SchemaMap(schema interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
