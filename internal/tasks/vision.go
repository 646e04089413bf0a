package tasks

import (
	"context"
	"fmt"

	"github.com/nerdworks/dealerai-backend/internal/platform/openai"
	"github.com/nerdworks/dealerai-backend/internal/prompt"
	"github.com/nerdworks/dealerai-backend/internal/settings"
)

// visionTask pairs an image reference with an analysis prompt and produces a
// multimodal message list.
type visionTask struct {
	cfg settings.Provider
}

func newVisionTask(cfg settings.Provider) *visionTask {
	return &visionTask{cfg: cfg}
}

func (t *visionTask) ID() string { return TaskVision }

func (t *visionTask) MakePrompt(_ context.Context, input Input, opts Options) (string, error) {
	if input.Image == "" || input.Prompt == "" {
		return "", ErrMissingVisionInput
	}
	composer := prompt.NewComposer(t.cfg)
	return composer.ComposeVision(input.Prompt, prompt.Options{
		DealerInfo:              opts.DealerInfo,
		DealerAdditionalContext: opts.DealerAdditionalContext,
		VehicleInfo:             opts.VehicleInfo,
	}), nil
}

func (t *visionTask) GetResponse(ctx context.Context, input Input, opts Options) (*Envelope, error) {
	composed, err := t.MakePrompt(ctx, input, opts)
	if err != nil {
		return nil, err
	}

	imageURL, err := openai.FileToDataURL(input.Image)
	if err != nil {
		return nil, fmt.Errorf("prepare vision image: %w", err)
	}
	detail := opts.Detail
	if detail == "" {
		detail = "auto"
	}

	return &Envelope{
		Kind: KindVision,
		Mode: prompt.ModeVisionAnalysis,
		Messages: []openai.ChatMessage{{
			Role: "user",
			Content: []openai.ContentPart{
				{Type: "text", Text: composed},
				{Type: "image_url", ImageURL: &openai.ImageURL{URL: imageURL, Detail: detail}},
			},
		}},
	}, nil
}
