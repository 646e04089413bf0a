package tasks

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nerdworks/dealerai-backend/internal/platform/openai"
	"github.com/nerdworks/dealerai-backend/internal/prompt"
	"github.com/nerdworks/dealerai-backend/internal/settings"
)

func testRegistry() *Registry {
	return NewRegistry(settings.Static{}, nil)
}

func TestResolveBuiltins(t *testing.T) {
	registry := testRegistry()
	for _, id := range []string{
		TaskComplete, TaskElaborate, TaskPrompt, TaskRewrite, TaskSummarize,
		TaskHTMLCode, TaskVehicleDescription, TaskVision, TaskAssistant,
	} {
		task, err := registry.Resolve(id)
		if err != nil {
			t.Fatalf("resolve %s: %v", id, err)
		}
		if task.ID() != id {
			t.Fatalf("resolve %s: got task %s", id, task.ID())
		}
	}
}

func TestResolveUnknownTask(t *testing.T) {
	registry := testRegistry()
	if _, err := registry.Resolve("translate"); !errors.Is(err, ErrUnknownTask) {
		t.Fatalf("want ErrUnknownTask, got %v", err)
	}
}

func TestBuildTaskModes(t *testing.T) {
	registry := testRegistry()
	cases := []struct {
		id   string
		mode string
	}{
		{TaskComplete, prompt.ModeTextCompletion},
		{TaskElaborate, prompt.ModeTextExpansion},
		{TaskPrompt, prompt.ModeTextPrompt},
		{TaskRewrite, prompt.ModeTextRewrite},
		{TaskSummarize, prompt.ModeTextSummarization},
		{TaskHTMLCode, prompt.ModeHTMLCode},
	}
	for _, tc := range cases {
		t.Run(tc.id, func(t *testing.T) {
			task, err := registry.Resolve(tc.id)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			made, err := task.MakePrompt(context.Background(), Input{Text: "the quick brown fox"}, Options{})
			if err != nil {
				t.Fatalf("make prompt: %v", err)
			}
			want := prompt.Template(tc.mode) + "the quick brown fox"
			if made != want {
				t.Fatalf("prompt: want=%q got=%q", want, made)
			}

			envelope, err := task.GetResponse(context.Background(), Input{Text: "the quick brown fox"}, Options{})
			if err != nil {
				t.Fatalf("get response: %v", err)
			}
			if envelope.Kind != KindChat {
				t.Fatalf("kind: want=%s got=%s", KindChat, envelope.Kind)
			}
			if envelope.Mode != tc.mode {
				t.Fatalf("mode: want=%s got=%s", tc.mode, envelope.Mode)
			}
		})
	}
}

func TestVisionTaskRequiresImageAndPrompt(t *testing.T) {
	registry := testRegistry()
	task, err := registry.Resolve(TaskVision)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	cases := []Input{
		{},
		{Image: "https://example.com/car.jpg"},
		{Prompt: "describe the car"},
	}
	for _, input := range cases {
		if _, err := task.MakePrompt(context.Background(), input, Options{}); !errors.Is(err, ErrMissingVisionInput) {
			t.Fatalf("input %+v: want ErrMissingVisionInput, got %v", input, err)
		}
	}
}

func TestVisionTaskEnvelope(t *testing.T) {
	registry := testRegistry()
	task, _ := registry.Resolve(TaskVision)

	envelope, err := task.GetResponse(context.Background(), Input{
		Image:  "https://example.com/car.jpg",
		Prompt: "describe the car",
	}, Options{})
	if err != nil {
		t.Fatalf("get response: %v", err)
	}
	if envelope.Kind != KindVision {
		t.Fatalf("kind: want=%s got=%s", KindVision, envelope.Kind)
	}
	if len(envelope.Messages) != 1 {
		t.Fatalf("want one message, got %d", len(envelope.Messages))
	}
	parts, ok := envelope.Messages[0].Content.([]openai.ContentPart)
	if !ok || len(parts) != 2 {
		t.Fatalf("want text+image content parts, got %#v", envelope.Messages[0].Content)
	}
	if parts[0].Type != "text" || !strings.HasPrefix(parts[0].Text, "describe the car") {
		t.Fatalf("unexpected text part: %+v", parts[0])
	}
	if parts[1].Type != "image_url" || parts[1].ImageURL == nil || parts[1].ImageURL.URL != "https://example.com/car.jpg" {
		t.Fatalf("unexpected image part: %+v", parts[1])
	}
}

func TestAssistantTaskPassthrough(t *testing.T) {
	registry := testRegistry()
	task, _ := registry.Resolve(TaskAssistant)

	made, err := task.MakePrompt(context.Background(), Input{Text: "bonjour"}, Options{})
	if err != nil {
		t.Fatalf("make prompt: %v", err)
	}
	if made != "bonjour" {
		t.Fatalf("assistant task must not rewrite input, got %q", made)
	}
	if strings.Contains(made, "persona") {
		t.Fatalf("assistant task must skip composition, got %q", made)
	}
}
