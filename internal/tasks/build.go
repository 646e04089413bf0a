package tasks

import (
	"context"

	"github.com/nerdworks/dealerai-backend/internal/prompt"
	"github.com/nerdworks/dealerai-backend/internal/settings"
)

// buildTask covers the composer-backed text tasks: it routes the input text
// through the prompt composer under a fixed mode and requests a plain chat
// completion.
type buildTask struct {
	id   string
	mode string
	cfg  settings.Provider
}

func newBuildTask(id, mode string, cfg settings.Provider) *buildTask {
	return &buildTask{id: id, mode: mode, cfg: cfg}
}

func (t *buildTask) ID() string { return t.id }

func (t *buildTask) MakePrompt(_ context.Context, input Input, opts Options) (string, error) {
	composer := prompt.NewComposer(t.cfg)
	return composer.Compose(input.Text, t.mode, prompt.Options{
		DealerInfo:              opts.DealerInfo,
		DealerAdditionalContext: opts.DealerAdditionalContext,
		VehicleInfo:             opts.VehicleInfo,
	}), nil
}

func (t *buildTask) GetResponse(ctx context.Context, input Input, opts Options) (*Envelope, error) {
	composed, err := t.MakePrompt(ctx, input, opts)
	if err != nil {
		return nil, err
	}
	return &Envelope{Kind: KindChat, Mode: t.mode, Prompt: composed}, nil
}
