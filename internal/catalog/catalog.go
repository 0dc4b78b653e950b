// Package catalog parses the on-disk task catalog and resolves a named task
// plus caller overrides into a self-contained ResolvedTask.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	cnserrors "github.com/gpuorch/gpud/pkg/errors"
	"github.com/gpuorch/gpud/pkg/defaults"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// TaskKind distinguishes a long-lived session task from an ephemeral one-off.
type TaskKind string

const (
	KindSession TaskKind = "session"
	KindOneoff  TaskKind = "oneoff"
)

// Difficulty is the coarse GPU class a task is routed to.
type Difficulty string

const (
	DifficultyLow  Difficulty = "low"
	DifficultyHigh Difficulty = "high"
)

// TaskDefinition is one entry of the task_definitions document.
type TaskDefinition struct {
	Description     string         `yaml:"description"`
	Type            TaskKind       `yaml:"task_type"`
	Difficulty      Difficulty     `yaml:"task_difficulty"`
	TimeoutSeconds  int            `yaml:"timeout_seconds"`
	Metadata        map[string]any `yaml:"metadata"`
	ModelID         string         `yaml:"model_id"`
}

// TaskAction is one entry of the task_actions document, keyed by model id.
type TaskAction struct {
	DockerImage string            `yaml:"docker_image"`
	Command     []string          `yaml:"command"`
	EnvVars     map[string]string `yaml:"env_vars"`
	BuildArgs   map[string]string `yaml:"build_args"`
}

// ModelPath is one entry of the model_paths document, keyed by model id.
type ModelPath struct {
	Path        string `yaml:"path"`
	Description string `yaml:"description"`
	SizeGB      float64 `yaml:"size_gb"`
}

type catalogDoc struct {
	TaskDefinitions map[string]TaskDefinition `yaml:"task_definitions"`
	TaskActions     map[string]TaskAction     `yaml:"task_actions"`
	ModelPaths      map[string]ModelPath      `yaml:"model_paths"`
}

// Overrides carries caller-supplied fields that replace task defaults field-by-field.
type Overrides struct {
	Difficulty     Difficulty
	TimeoutSeconds int
	Metadata       map[string]any
	SessionID      string
	CreateSession  bool
}

// ResolvedTask is the merge of a TaskDefinition, its TaskAction, an optional
// ModelPath, and request overrides — self-contained input to the handler pipeline.
type ResolvedTask struct {
	TaskName       string
	Kind           TaskKind
	Difficulty     Difficulty
	TimeoutSeconds int
	Metadata       map[string]any
	ModelID        string
	ModelHostPath  string
	Action         TaskAction
	SessionID      string
	CreateSession  bool
}

// Catalog resolves task names against the three YAML documents rooted at Dir.
// Resolve re-parses every document on every call — there is deliberately no
// cache, so edits to the catalog on disk take effect on the very next request.
type Catalog struct {
	Dir string
}

// New returns a Catalog rooted at dir.
func New(dir string) *Catalog {
	return &Catalog{Dir: dir}
}

var caseFold = cases.Fold()

func normalize(name string) string {
	return caseFold.String(strings.TrimSpace(name))
}

func (c *Catalog) load() (*catalogDoc, error) {
	doc := &catalogDoc{
		TaskDefinitions: map[string]TaskDefinition{},
		TaskActions:     map[string]TaskAction{},
		ModelPaths:      map[string]ModelPath{},
	}

	// Each file holds its document under a top-level key (task_definitions,
	// task_actions, model_paths), so every file decodes into the whole doc.
	for _, name := range []string{"task_definitions.yaml", "task_actions.yaml", "model_paths.yaml"} {
		path := filepath.Join(c.Dir, name)
		raw, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, cnserrors.Wrap(cnserrors.ErrCodeInternal, fmt.Sprintf("reading catalog file %s", name), err)
		}
		if err := yaml.Unmarshal(raw, doc); err != nil {
			return nil, cnserrors.Wrap(cnserrors.ErrCodeInternal, fmt.Sprintf("parsing catalog file %s", name), err)
		}
	}

	normalized := &catalogDoc{
		TaskDefinitions: make(map[string]TaskDefinition, len(doc.TaskDefinitions)),
		TaskActions:     make(map[string]TaskAction, len(doc.TaskActions)),
		ModelPaths:      make(map[string]ModelPath, len(doc.ModelPaths)),
	}
	for k, v := range doc.TaskDefinitions {
		normalized.TaskDefinitions[normalize(k)] = v
	}
	for k, v := range doc.TaskActions {
		normalized.TaskActions[normalize(k)] = v
	}
	for k, v := range doc.ModelPaths {
		normalized.ModelPaths[normalize(k)] = v
	}
	return normalized, nil
}

// Resolve looks up taskName, merges in overrides, and returns a self-contained
// ResolvedTask. ModelHostPath is left empty — the caller resolves it via
// ModelCache once the model id is known.
func (c *Catalog) Resolve(taskName string, overrides Overrides) (*ResolvedTask, error) {
	doc, err := c.load()
	if err != nil {
		return nil, err
	}

	def, ok := doc.TaskDefinitions[normalize(taskName)]
	if !ok {
		return nil, cnserrors.NewWithContext(cnserrors.ErrCodeUnknownTask,
			fmt.Sprintf("unknown task %q", taskName), map[string]any{"task_name": taskName})
	}

	action, ok := doc.TaskActions[normalize(def.ModelID)]
	if !ok {
		return nil, cnserrors.NewWithContext(cnserrors.ErrCodeMissingAction,
			fmt.Sprintf("no task action for model %q", def.ModelID),
			map[string]any{"task_name": taskName, "model_id": def.ModelID})
	}

	difficulty := def.Difficulty
	if overrides.Difficulty != "" {
		difficulty = overrides.Difficulty
	}

	timeout := def.TimeoutSeconds
	if timeout == 0 {
		timeout = int(defaults.DefaultTaskTimeout.Seconds())
	}
	if overrides.TimeoutSeconds != 0 {
		timeout = overrides.TimeoutSeconds
	}
	timeout = clampTimeout(timeout)

	metadata := def.Metadata
	if overrides.Metadata != nil {
		merged := make(map[string]any, len(def.Metadata)+len(overrides.Metadata))
		for k, v := range def.Metadata {
			merged[k] = v
		}
		for k, v := range overrides.Metadata {
			merged[k] = v
		}
		metadata = merged
	}

	modelPath := doc.ModelPaths[normalize(def.ModelID)]

	return &ResolvedTask{
		TaskName:       taskName,
		Kind:           def.Type,
		Difficulty:     difficulty,
		TimeoutSeconds: timeout,
		Metadata:       metadata,
		ModelID:        def.ModelID,
		ModelHostPath:  modelPath.Path,
		Action:         action,
		SessionID:      overrides.SessionID,
		CreateSession:  overrides.CreateSession,
	}, nil
}

// Names returns every task name currently defined in the catalog, for the
// health endpoint's task-count field.
func (c *Catalog) Names() ([]string, error) {
	doc, err := c.load()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(doc.TaskDefinitions))
	for name := range doc.TaskDefinitions {
		names = append(names, name)
	}
	return names, nil
}

func clampTimeout(seconds int) int {
	min := int(defaults.MinTaskTimeout.Seconds())
	max := int(defaults.MaxTaskTimeout.Seconds())
	if seconds < min {
		return min
	}
	if seconds > max {
		return max
	}
	return seconds
}
