package tasks

import "context"

// assistantTask passes the text straight through: prompt shaping for
// conversational runs lives in the assistant's own instructions, not in the
// composer.
type assistantTask struct{}

func newAssistantTask() *assistantTask { return &assistantTask{} }

func (t *assistantTask) ID() string { return TaskAssistant }

func (t *assistantTask) MakePrompt(_ context.Context, input Input, _ Options) (string, error) {
	return input.Text, nil
}

func (t *assistantTask) GetResponse(_ context.Context, input Input, _ Options) (*Envelope, error) {
	return &Envelope{
		Kind:        KindAssistant,
		Prompt:      input.Text,
		AssistantID: input.AssistantID,
		ThreadID:    input.ThreadID,
	}, nil
}
