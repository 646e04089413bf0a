package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nerdworks/dealerai-backend/internal/platform/openai"
	"github.com/nerdworks/dealerai-backend/internal/prompt"
	"github.com/nerdworks/dealerai-backend/internal/repos"
	"github.com/nerdworks/dealerai-backend/internal/settings"
)

var (
	ErrUnknownTask        = errors.New("no task registered for id")
	ErrMissingVisionInput = errors.New("vision task requires both image and prompt in input")
)

// Built-in task ids.
const (
	TaskComplete           = "complete"
	TaskElaborate          = "elaborate"
	TaskPrompt             = "prompt"
	TaskRewrite            = "rewrite"
	TaskSummarize          = "summarize"
	TaskHTMLCode           = "html-code"
	TaskVehicleDescription = "vehicle-description"
	TaskVision             = "vision"
	TaskAssistant          = "assistant"
)

// Input is the raw editorial input a task transforms.
type Input struct {
	Text       string
	Image      string
	Prompt     string
	VehicleIDs []uuid.UUID

	AssistantID *uuid.UUID
	ThreadID    *uuid.UUID
}

// Options carries optional grounding context into prompt composition.
type Options struct {
	DealerInfo              string
	DealerAdditionalContext string
	VehicleInfo             string
	Detail                  string
}

// Envelope kinds describing how a composed task should be executed.
const (
	KindChat      = "chat"
	KindVision    = "vision"
	KindAssistant = "assistant"
)

// Envelope is what a task hands back to the query layer: either a composed
// chat prompt, a multimodal message list, or an assistant pass-through.
type Envelope struct {
	Kind     string
	Mode     string
	Prompt   string
	Messages []openai.ChatMessage

	AssistantID *uuid.UUID
	ThreadID    *uuid.UUID
}

// Task transforms raw input into a composed prompt and declares how the
// response should be obtained.
type Task interface {
	ID() string
	MakePrompt(ctx context.Context, input Input, opts Options) (string, error)
	GetResponse(ctx context.Context, input Input, opts Options) (*Envelope, error)
}

// Registry maps task ids to handlers, populated at startup.
type Registry struct {
	tasks map[string]Task
}

// NewRegistry builds a registry with all built-in tasks registered.
func NewRegistry(cfg settings.Provider, vehicleRepo repos.VehicleRepo) *Registry {
	r := &Registry{tasks: map[string]Task{}}

	r.Register(newBuildTask(TaskComplete, prompt.ModeTextCompletion, cfg))
	r.Register(newBuildTask(TaskElaborate, prompt.ModeTextExpansion, cfg))
	r.Register(newBuildTask(TaskPrompt, prompt.ModeTextPrompt, cfg))
	r.Register(newBuildTask(TaskRewrite, prompt.ModeTextRewrite, cfg))
	r.Register(newBuildTask(TaskSummarize, prompt.ModeTextSummarization, cfg))
	r.Register(newBuildTask(TaskHTMLCode, prompt.ModeHTMLCode, cfg))
	r.Register(newVehicleDescriptionTask(cfg, vehicleRepo))
	r.Register(newVisionTask(cfg))
	r.Register(newAssistantTask())

	return r
}

func (r *Registry) Register(t Task) {
	r.tasks[t.ID()] = t
}

// Resolve returns the handler for a task id; unregistered ids fail with
// ErrUnknownTask.
func (r *Registry) Resolve(taskID string) (Task, error) {
	t, ok := r.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTask, taskID)
	}
	return t, nil
}
