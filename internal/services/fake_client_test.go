package services

import (
	"context"
	"fmt"
	"time"

	"github.com/nerdworks/dealerai-backend/internal/platform/openai"
)

// fakeAIClient implements openai.Client with overridable hooks. Unset hooks
// fail the call so tests notice unexpected vendor traffic.
type fakeAIClient struct {
	chatCompleteFn      func(ctx context.Context, req openai.ChatRequest) (*openai.ChatResponse, error)
	createAssistantFn   func(ctx context.Context, name, instructions, model string, tools []openai.AssistantTool) (*openai.AssistantRecord, error)
	listAssistantsFn    func(ctx context.Context) ([]openai.AssistantRecord, error)
	createThreadFn      func(ctx context.Context, initial []openai.ChatMessage) (*openai.ThreadRecord, error)
	deleteThreadFn      func(ctx context.Context, threadID string) error
	deleteAssistantFn   func(ctx context.Context, assistantID string) error
	addMessageFn        func(ctx context.Context, threadID, role, content string, attachments []map[string]any) (*openai.MessageRecord, error)
	listMessagesFn      func(ctx context.Context, threadID string, params openai.ListMessagesParams) (*openai.MessageList, error)
	createRunFn         func(ctx context.Context, threadID, assistantID string, params map[string]any) (*openai.RunRecord, error)
	waitForRunFn        func(ctx context.Context, threadID, runID string, timeout, pollInterval time.Duration) (*openai.RunRecord, error)
	submitToolOutputsFn func(ctx context.Context, threadID, runID string, outputs []openai.ToolOutput) (*openai.RunRecord, error)
	visionQueryFn       func(ctx context.Context, messages []openai.ChatMessage, opts openai.VisionOptions) (*openai.ChatResponse, error)
}

func (f *fakeAIClient) ChatComplete(ctx context.Context, req openai.ChatRequest) (*openai.ChatResponse, error) {
	if f.chatCompleteFn == nil {
		return nil, fmt.Errorf("unexpected ChatComplete call")
	}
	return f.chatCompleteFn(ctx, req)
}

func (f *fakeAIClient) CreateAssistant(ctx context.Context, name, instructions, model string, tools []openai.AssistantTool) (*openai.AssistantRecord, error) {
	if f.createAssistantFn == nil {
		return nil, fmt.Errorf("unexpected CreateAssistant call")
	}
	return f.createAssistantFn(ctx, name, instructions, model, tools)
}

func (f *fakeAIClient) GetAssistant(ctx context.Context, assistantID string) (*openai.AssistantRecord, error) {
	return nil, fmt.Errorf("unexpected GetAssistant call")
}

func (f *fakeAIClient) UpdateAssistant(ctx context.Context, assistantID string, fields map[string]any) (*openai.AssistantRecord, error) {
	return nil, fmt.Errorf("unexpected UpdateAssistant call")
}

func (f *fakeAIClient) DeleteAssistant(ctx context.Context, assistantID string) error {
	if f.deleteAssistantFn == nil {
		return fmt.Errorf("unexpected DeleteAssistant call")
	}
	return f.deleteAssistantFn(ctx, assistantID)
}

func (f *fakeAIClient) ListAssistants(ctx context.Context) ([]openai.AssistantRecord, error) {
	if f.listAssistantsFn == nil {
		return nil, fmt.Errorf("unexpected ListAssistants call")
	}
	return f.listAssistantsFn(ctx)
}

func (f *fakeAIClient) CreateThread(ctx context.Context, initial []openai.ChatMessage) (*openai.ThreadRecord, error) {
	if f.createThreadFn == nil {
		return nil, fmt.Errorf("unexpected CreateThread call")
	}
	return f.createThreadFn(ctx, initial)
}

func (f *fakeAIClient) GetThread(ctx context.Context, threadID string) (*openai.ThreadRecord, error) {
	return nil, fmt.Errorf("unexpected GetThread call")
}

func (f *fakeAIClient) DeleteThread(ctx context.Context, threadID string) error {
	if f.deleteThreadFn == nil {
		return fmt.Errorf("unexpected DeleteThread call")
	}
	return f.deleteThreadFn(ctx, threadID)
}

func (f *fakeAIClient) AddMessage(ctx context.Context, threadID, role, content string, attachments []map[string]any) (*openai.MessageRecord, error) {
	if f.addMessageFn == nil {
		return nil, fmt.Errorf("unexpected AddMessage call")
	}
	return f.addMessageFn(ctx, threadID, role, content, attachments)
}

func (f *fakeAIClient) ListMessages(ctx context.Context, threadID string, params openai.ListMessagesParams) (*openai.MessageList, error) {
	if f.listMessagesFn == nil {
		return nil, fmt.Errorf("unexpected ListMessages call")
	}
	return f.listMessagesFn(ctx, threadID, params)
}

func (f *fakeAIClient) CreateRun(ctx context.Context, threadID, assistantID string, params map[string]any) (*openai.RunRecord, error) {
	if f.createRunFn == nil {
		return nil, fmt.Errorf("unexpected CreateRun call")
	}
	return f.createRunFn(ctx, threadID, assistantID, params)
}

func (f *fakeAIClient) GetRun(ctx context.Context, threadID, runID string) (*openai.RunRecord, error) {
	return nil, fmt.Errorf("unexpected GetRun call")
}

func (f *fakeAIClient) WaitForRun(ctx context.Context, threadID, runID string, timeout, pollInterval time.Duration) (*openai.RunRecord, error) {
	if f.waitForRunFn == nil {
		return nil, fmt.Errorf("unexpected WaitForRun call")
	}
	return f.waitForRunFn(ctx, threadID, runID, timeout, pollInterval)
}

func (f *fakeAIClient) GetRequiredAction(ctx context.Context, threadID, runID string) (*openai.RequiredAction, error) {
	return nil, fmt.Errorf("unexpected GetRequiredAction call")
}

func (f *fakeAIClient) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []openai.ToolOutput) (*openai.RunRecord, error) {
	if f.submitToolOutputsFn == nil {
		return nil, fmt.Errorf("unexpected SubmitToolOutputs call")
	}
	return f.submitToolOutputsFn(ctx, threadID, runID, outputs)
}

func (f *fakeAIClient) VisionQuery(ctx context.Context, messages []openai.ChatMessage, opts openai.VisionOptions) (*openai.ChatResponse, error) {
	if f.visionQueryFn == nil {
		return nil, fmt.Errorf("unexpected VisionQuery call")
	}
	return f.visionQueryFn(ctx, messages, opts)
}

func chatResponse(content string) *openai.ChatResponse {
	resp := &openai.ChatResponse{Choices: make([]openai.ChatChoice, 1)}
	resp.Choices[0].Message.Role = "assistant"
	resp.Choices[0].Message.Content = content
	return resp
}
