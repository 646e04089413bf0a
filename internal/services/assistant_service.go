package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/nerdworks/dealerai-backend/internal/fnhandlers"
	"github.com/nerdworks/dealerai-backend/internal/platform/logger"
	"github.com/nerdworks/dealerai-backend/internal/platform/openai"
	"github.com/nerdworks/dealerai-backend/internal/repos"
	"github.com/nerdworks/dealerai-backend/internal/types"
	"github.com/nerdworks/dealerai-backend/internal/utils"
)

// AssistantService owns the assistant lifecycle and the conversational run
// loop: messages in, tool calls serviced, assistant reply out.
type AssistantService struct {
	log        *logger.Logger
	ai         openai.Client
	assistants repos.AssistantRepo
	threads    repos.ThreadRepo
	messages   repos.MessageRepo
	pins       ThreadPinStore
	handlers   *fnhandlers.Registry
	notifier   Notifier

	runTimeout   time.Duration
	pollInterval time.Duration
}

func NewAssistantService(
	baseLog *logger.Logger,
	ai openai.Client,
	assistants repos.AssistantRepo,
	threads repos.ThreadRepo,
	messages repos.MessageRepo,
	pins ThreadPinStore,
	handlers *fnhandlers.Registry,
	notifier Notifier,
) *AssistantService {
	log := baseLog.With("service", "AssistantService")
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &AssistantService{
		log:          log,
		ai:           ai,
		assistants:   assistants,
		threads:      threads,
		messages:     messages,
		pins:         pins,
		handlers:     handlers,
		notifier:     notifier,
		runTimeout:   time.Duration(utils.GetEnvAsInt("ASSISTANT_RUN_TIMEOUT_SECONDS", 120, log)) * time.Second,
		pollInterval: time.Duration(utils.GetEnvAsInt("ASSISTANT_RUN_POLL_SECONDS", 2, log)) * time.Second,
	}
}

type CreateAssistantInput struct {
	Name         string
	Description  string
	Instructions string
	Model        string
	Tools        []openai.AssistantTool
	HandlerID    string
}

// CreateAssistant registers the assistant with the vendor first, then mirrors
// it locally. Vendor failure leaves no local record behind.
func (s *AssistantService) CreateAssistant(ctx context.Context, input CreateAssistantInput) (*types.Assistant, error) {
	record, err := s.ai.CreateAssistant(ctx, input.Name, input.Instructions, input.Model, input.Tools)
	if err != nil {
		return nil, fmt.Errorf("create vendor assistant: %w", err)
	}

	toolsJSON, err := json.Marshal(record.Tools)
	if err != nil {
		toolsJSON = []byte("[]")
	}
	assistant := &types.Assistant{
		AssistantID:  record.ID,
		Name:         input.Name,
		Description:  input.Description,
		Instructions: record.Instructions,
		Model:        record.Model,
		Tools:        datatypes.JSON(toolsJSON),
		HandlerID:    input.HandlerID,
		IsActive:     true,
	}
	created, err := s.assistants.Create(ctx, nil, assistant)
	if err != nil {
		return nil, fmt.Errorf("persist assistant %s: %w", record.ID, err)
	}
	s.log.Info("assistant created", "assistant_id", record.ID, "name", input.Name)
	return created, nil
}

func (s *AssistantService) GetAssistant(ctx context.Context, id uuid.UUID) (*types.Assistant, error) {
	return s.assistants.GetByID(ctx, nil, id)
}

func (s *AssistantService) ListAssistants(ctx context.Context, onlyActive bool) ([]*types.Assistant, error) {
	return s.assistants.GetAll(ctx, nil, onlyActive)
}

type UpdateAssistantInput struct {
	Name         *string
	Description  *string
	Instructions *string
	Model        *string
	Tools        []openai.AssistantTool
	HandlerID    *string
	IsActive     *bool
}

// UpdateAssistant pushes mutable fields to the vendor, then updates the local
// mirror.
func (s *AssistantService) UpdateAssistant(ctx context.Context, id uuid.UUID, input UpdateAssistantInput) (*types.Assistant, error) {
	assistant, err := s.assistants.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}

	vendorFields := map[string]any{}
	if input.Name != nil {
		vendorFields["name"] = *input.Name
		assistant.Name = *input.Name
	}
	if input.Instructions != nil {
		vendorFields["instructions"] = *input.Instructions
		assistant.Instructions = *input.Instructions
	}
	if input.Model != nil {
		vendorFields["model"] = *input.Model
		assistant.Model = *input.Model
	}
	if input.Tools != nil {
		vendorFields["tools"] = input.Tools
		if raw, err := json.Marshal(input.Tools); err == nil {
			assistant.Tools = datatypes.JSON(raw)
		}
	}
	if len(vendorFields) > 0 {
		if _, err := s.ai.UpdateAssistant(ctx, assistant.AssistantID, vendorFields); err != nil {
			return nil, fmt.Errorf("update vendor assistant %s: %w", assistant.AssistantID, err)
		}
	}

	if input.Description != nil {
		assistant.Description = *input.Description
	}
	if input.HandlerID != nil {
		assistant.HandlerID = *input.HandlerID
	}
	if input.IsActive != nil {
		assistant.IsActive = *input.IsActive
	}
	return s.assistants.Update(ctx, nil, assistant)
}

// DeleteAssistant removes the vendor assistant and the local mirror. A vendor
// 404 is treated as already deleted.
func (s *AssistantService) DeleteAssistant(ctx context.Context, id uuid.UUID) error {
	assistant, err := s.assistants.GetByID(ctx, nil, id)
	if err != nil {
		return err
	}
	if err := s.ai.DeleteAssistant(ctx, assistant.AssistantID); err != nil {
		var upstream *openai.UpstreamError
		if !errors.As(err, &upstream) || upstream.StatusCode != 404 {
			return fmt.Errorf("delete vendor assistant %s: %w", assistant.AssistantID, err)
		}
		s.log.Warn("vendor assistant already gone", "assistant_id", assistant.AssistantID)
	}
	return s.assistants.DeleteByID(ctx, nil, id)
}

// ImportAssistants pulls the vendor's assistant list and mirrors any that are
// not yet known locally. Returns the newly imported records.
func (s *AssistantService) ImportAssistants(ctx context.Context) ([]*types.Assistant, error) {
	records, err := s.ai.ListAssistants(ctx)
	if err != nil {
		return nil, fmt.Errorf("list vendor assistants: %w", err)
	}

	var imported []*types.Assistant
	for _, record := range records {
		if _, err := s.assistants.GetByAssistantID(ctx, nil, record.ID); err == nil {
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return imported, err
		}

		toolsJSON, err := json.Marshal(record.Tools)
		if err != nil {
			toolsJSON = []byte("[]")
		}
		created, err := s.assistants.Create(ctx, nil, &types.Assistant{
			AssistantID:  record.ID,
			Name:         record.Name,
			Instructions: record.Instructions,
			Model:        record.Model,
			Tools:        datatypes.JSON(toolsJSON),
			IsActive:     true,
		})
		if err != nil {
			return imported, fmt.Errorf("persist imported assistant %s: %w", record.ID, err)
		}
		imported = append(imported, created)
	}
	s.log.Info("assistant import finished", "imported", len(imported), "vendor_total", len(records))
	return imported, nil
}

// CreateThread opens a vendor thread and mirrors it locally.
func (s *AssistantService) CreateThread(ctx context.Context, assistant *types.Assistant, title string) (*types.Thread, error) {
	record, err := s.ai.CreateThread(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("create vendor thread: %w", err)
	}
	thread, err := s.threads.Create(ctx, nil, &types.Thread{
		ThreadID:    record.ID,
		AssistantID: assistant.ID,
		Title:       title,
		IsActive:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("persist thread %s: %w", record.ID, err)
	}
	return thread, nil
}

func (s *AssistantService) GetThread(ctx context.Context, id uuid.UUID) (*types.Thread, error) {
	return s.threads.GetByID(ctx, nil, id)
}

func (s *AssistantService) ListThreads(ctx context.Context, assistantID uuid.UUID) ([]*types.Thread, error) {
	return s.threads.GetByAssistantID(ctx, nil, assistantID, true)
}

// DeleteThread removes the vendor thread and the local mirror.
func (s *AssistantService) DeleteThread(ctx context.Context, id uuid.UUID) error {
	thread, err := s.threads.GetByID(ctx, nil, id)
	if err != nil {
		return err
	}
	if err := s.ai.DeleteThread(ctx, thread.ThreadID); err != nil {
		var upstream *openai.UpstreamError
		if !errors.As(err, &upstream) || upstream.StatusCode != 404 {
			return fmt.Errorf("delete vendor thread %s: %w", thread.ThreadID, err)
		}
	}
	return s.threads.DeleteByID(ctx, nil, id)
}

// History returns the locally mirrored messages of a thread, oldest first.
func (s *AssistantService) History(ctx context.Context, threadID string, limit int) ([]*types.Message, error) {
	thread, err := s.threads.GetByThreadID(ctx, nil, threadID)
	if err != nil {
		return nil, err
	}
	return s.messages.GetByThreadID(ctx, nil, thread.ID, limit, "asc")
}

type ConversationInput struct {
	AssistantID uuid.UUID
	Message     string

	// PersistKey pins the conversation to a caller session: repeat requests
	// with the same key continue the pinned thread. A pinned thread belonging
	// to a different assistant is silently replaced with a fresh one.
	PersistKey string

	// ThreadID, when set, names the exact vendor thread to use. A mismatch
	// with the assistant is an error rather than a silent replacement.
	ThreadID string
}

type ConversationResult struct {
	ThreadID string
	RunID    string
	Status   string
	Response string
}

// Conversation sends one user message through a full assistant run: post the
// message, start the run, service any tool calls, and extract the reply.
func (s *AssistantService) Conversation(ctx context.Context, input ConversationInput) (*ConversationResult, error) {
	assistant, err := s.assistants.GetByID(ctx, nil, input.AssistantID)
	if err != nil {
		return nil, err
	}

	thread, err := s.resolveThread(ctx, assistant, input.PersistKey, input.ThreadID)
	if err != nil {
		return nil, err
	}

	if _, err := s.ai.AddMessage(ctx, thread.ThreadID, types.RoleUser, input.Message, nil); err != nil {
		return nil, fmt.Errorf("post user message: %w", err)
	}
	s.mirrorMessage(ctx, thread, types.RoleUser, input.Message, "")
	s.notifier.Broadcast(ctx, thread.ThreadID, "user_message", map[string]any{"message": input.Message})

	run, err := s.ai.CreateRun(ctx, thread.ThreadID, assistant.AssistantID, nil)
	if err != nil {
		return nil, fmt.Errorf("start run: %w", err)
	}

	final, err := s.driveRun(ctx, assistant, thread.ThreadID, run.ID)
	if err != nil {
		return nil, err
	}
	if final.Status != openai.StatusCompleted {
		failure := &RunFailedError{Status: final.Status}
		if final.LastError != nil {
			failure.Message = final.LastError.Message
		}
		return nil, failure
	}

	reply, err := s.latestAssistantReply(ctx, thread.ThreadID)
	if err != nil {
		return nil, err
	}
	s.mirrorMessage(ctx, thread, types.RoleAssistant, reply.TextValue(), reply.ID)
	s.notifier.Broadcast(ctx, thread.ThreadID, "assistant_message", map[string]any{
		"message": reply.TextValue(),
		"run_id":  run.ID,
	})

	return &ConversationResult{
		ThreadID: thread.ThreadID,
		RunID:    run.ID,
		Status:   final.Status,
		Response: reply.TextValue(),
	}, nil
}

// resolveThread picks the thread a conversation turn runs on. Explicit thread
// ids are validated hard; persistence-key pins roll over to a new thread when
// they point at another assistant's conversation.
func (s *AssistantService) resolveThread(ctx context.Context, assistant *types.Assistant, persistKey, explicitThreadID string) (*types.Thread, error) {
	if explicitThreadID != "" {
		thread, err := s.threads.GetByThreadID(ctx, nil, explicitThreadID)
		if err != nil {
			return nil, err
		}
		if thread.AssistantID != assistant.ID {
			return nil, fmt.Errorf("thread %s: %w", explicitThreadID, ErrThreadAssistantMismatch)
		}
		return thread, nil
	}

	if persistKey != "" && s.pins != nil {
		pinned, err := s.pins.Get(ctx, persistKey)
		if err != nil {
			s.log.Warn("thread pin lookup failed", "persist_key", persistKey, "error", err)
		} else if pinned != "" {
			thread, err := s.threads.GetByThreadID(ctx, nil, pinned)
			if err == nil && thread.AssistantID == assistant.ID {
				return thread, nil
			}
			// Pin is stale or belongs to another assistant; fall through to a
			// fresh thread and overwrite the pin.
		}
	}

	thread, err := s.CreateThread(ctx, assistant, "")
	if err != nil {
		return nil, err
	}
	if persistKey != "" && s.pins != nil {
		if err := s.pins.Set(ctx, persistKey, thread.ThreadID); err != nil {
			s.log.Warn("failed to pin thread", "persist_key", persistKey, "thread", thread.ThreadID, "error", err)
		}
	}
	return thread, nil
}

// driveRun waits for the run to settle, servicing tool calls each time the
// vendor pauses on requires_action. The overall timeout budget spans the whole
// loop, not each wait: a run that keeps pausing on tool calls still fails with
// ErrRunTimeout once the budget is spent.
func (s *AssistantService) driveRun(ctx context.Context, assistant *types.Assistant, threadID, runID string) (*openai.RunRecord, error) {
	deadline := time.Now().Add(s.runTimeout)
	for {
		remaining := time.Until(deadline)
		if remaining < 0 {
			remaining = 0
		}
		run, err := s.ai.WaitForRun(ctx, threadID, runID, remaining, s.pollInterval)
		if err != nil {
			return nil, err
		}
		if openai.IsTerminalStatus(run.Status) {
			return run, nil
		}
		if time.Until(deadline) <= 0 {
			return nil, fmt.Errorf("run %s paused on tool calls past the deadline: %w", runID, openai.ErrRunTimeout)
		}
		if err := s.serviceToolCalls(ctx, assistant, threadID, runID, run.RequiredAction); err != nil {
			return nil, err
		}
	}
}

// serviceToolCalls dispatches every pending tool call to the assistant's
// handler and submits the outputs in one batch. A handler error becomes an
// error payload for that call; it never aborts the run.
func (s *AssistantService) serviceToolCalls(ctx context.Context, assistant *types.Assistant, threadID, runID string, action *openai.RequiredAction) error {
	if action == nil || action.SubmitToolOutputs == nil {
		return fmt.Errorf("run %s paused without pending tool calls", runID)
	}
	if s.handlers == nil {
		return ErrFunctionHandlerMissing
	}

	handler := s.handlers.Resolve(assistant.HandlerID)
	outputs := make([]openai.ToolOutput, 0, len(action.SubmitToolOutputs.ToolCalls))
	for _, call := range action.SubmitToolOutputs.ToolCalls {
		outputs = append(outputs, openai.ToolOutput{
			ToolCallID: call.ID,
			Output:     s.executeToolCall(handler, call, threadID),
		})
	}

	if _, err := s.ai.SubmitToolOutputs(ctx, threadID, runID, outputs); err != nil {
		return fmt.Errorf("submit tool outputs for run %s: %w", runID, err)
	}
	return nil
}

func (s *AssistantService) executeToolCall(handler fnhandlers.Handler, call openai.ToolCall, threadID string) string {
	args := map[string]any{}
	if call.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			s.log.Warn("unparseable tool call arguments", "function", call.Function.Name, "error", err)
			return encodeToolPayload(map[string]any{"error": "invalid function arguments: " + err.Error()})
		}
	}

	result, err := handler.ProcessFunction(call.Function.Name, args, threadID)
	if err != nil {
		s.log.Warn("function handler failed", "function", call.Function.Name, "thread", threadID, "error", err)
		return encodeToolPayload(map[string]any{"error": err.Error()})
	}
	return encodeToolPayload(result)
}

func encodeToolPayload(payload map[string]any) string {
	raw, err := json.Marshal(payload)
	if err != nil {
		return `{"error":"unencodable tool output"}`
	}
	return string(raw)
}

// latestAssistantReply fetches the newest thread message and requires it to be
// a non-empty assistant turn.
func (s *AssistantService) latestAssistantReply(ctx context.Context, threadID string) (*openai.MessageRecord, error) {
	list, err := s.ai.ListMessages(ctx, threadID, openai.ListMessagesParams{Order: "desc", Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("list thread messages: %w", err)
	}
	if len(list.Data) == 0 {
		return nil, ErrEmptyAssistantResponse
	}
	reply := list.Data[0]
	if reply.Role != types.RoleAssistant || reply.TextValue() == "" {
		return nil, ErrEmptyAssistantResponse
	}
	return &reply, nil
}

// mirrorMessage stores a local copy of a thread message. The mirror is an
// audit convenience, so failures are logged, not surfaced.
func (s *AssistantService) mirrorMessage(ctx context.Context, thread *types.Thread, role, content, vendorMessageID string) {
	if vendorMessageID == "" {
		vendorMessageID = uuid.NewString()
	}
	if _, err := s.messages.Create(ctx, nil, &types.Message{
		MessageID: vendorMessageID,
		ThreadID:  thread.ID,
		Role:      role,
		Content:   content,
	}); err != nil {
		s.log.Warn("failed to mirror message", "thread", thread.ThreadID, "role", role, "error", err)
	}
}
