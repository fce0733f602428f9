// Package runner replays scripted tool-call sequences against a fresh store
// and scores the results.
package runner

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"toolcore/internal/infra/persistence/memory"
)

// Action is one scripted tool call.
type Action struct {
	Name   string         `json:"name" yaml:"name"`
	Kwargs map[string]any `json:"kwargs" yaml:"kwargs"`
}

// Arguments encodes the keyword arguments as a JSON object.
func (a Action) Arguments() (json.RawMessage, error) {
	if len(a.Kwargs) == 0 {
		return json.RawMessage("{}"), nil
	}
	raw, err := json.Marshal(a.Kwargs)
	if err != nil {
		return nil, fmt.Errorf("encode kwargs for %s: %w", a.Name, err)
	}
	return raw, nil
}

// Task is a benchmark task: the scripted actions and the outputs the run must
// produce to earn a reward.
type Task struct {
	ID          string   `json:"id,omitempty" yaml:"id,omitempty"`
	Annotator   string   `json:"annotator,omitempty" yaml:"annotator,omitempty"`
	UserID      string   `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	Instruction string   `json:"instruction,omitempty" yaml:"instruction,omitempty"`
	Actions     []Action `json:"actions" yaml:"actions"`
	Outputs     []string `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	// FailFast stops the run at the first failed step.
	FailFast bool `json:"fail_fast,omitempty" yaml:"fail_fast,omitempty"`
}

// Environment names the active (domain, interface) and the dataset each run
// starts from.
type Environment struct {
	Domain    string
	Interface string
	Dataset   memory.Snapshot
}

// LoadTasks decodes a JSON array or a YAML list of tasks.
func LoadTasks(r io.Reader) ([]Task, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read tasks: %w", err)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	var tasks []Task
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &tasks); err != nil {
			return nil, fmt.Errorf("decode json tasks: %w", err)
		}
	} else if err := yaml.Unmarshal(trimmed, &tasks); err != nil {
		return nil, fmt.Errorf("decode yaml tasks: %w", err)
	}
	for i, task := range tasks {
		for j, action := range task.Actions {
			if action.Name == "" {
				return nil, fmt.Errorf("task %d action %d: name required", i, j)
			}
		}
	}
	return tasks, nil
}

// LoadTaskFile reads tasks from path.
func LoadTaskFile(path string) ([]Task, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tasks: %w", err)
	}
	defer f.Close()
	return LoadTasks(f)
}
