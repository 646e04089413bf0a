package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/nerdworks/dealerai-backend/internal/platform/logger"
	"github.com/nerdworks/dealerai-backend/internal/platform/openai"
	"github.com/nerdworks/dealerai-backend/internal/repos"
	"github.com/nerdworks/dealerai-backend/internal/settings"
	"github.com/nerdworks/dealerai-backend/internal/tasks"
	"github.com/nerdworks/dealerai-backend/internal/types"
)

// QueryInput is one generation request: a task id plus whatever that task
// needs. Prompts switches the request into batch mode.
type QueryInput struct {
	Task    string
	Value   string
	Prompts []string

	Image      string
	Prompt     string
	VehicleIDs []uuid.UUID

	AssistantID *uuid.UUID
	ThreadID    string
	PersistKey  string
}

// QueryResult is the union response shape: single results carry Result and
// LogID, batches carry BatchID plus the per-prompt Results map and final
// Status, conversations carry ThreadID and RunID. Scores are the model's
// verdicts verbatim; nothing here interprets them.
type QueryResult struct {
	Result string     `json:"result,omitempty"`
	LogID  *uuid.UUID `json:"log_id,omitempty"`

	BatchID string         `json:"batch_id,omitempty"`
	Results map[string]any `json:"results,omitempty"`
	Status  string         `json:"status,omitempty"`

	ThreadID string `json:"thread_id,omitempty"`
	RunID    string `json:"run_id,omitempty"`

	PromptScore    string `json:"prompt_score,omitempty"`
	RelevancyScore string `json:"relevancy_score,omitempty"`
}

// AIQueryService is the facade the HTTP layer talks to. It routes requests to
// the task registry, the batch supervisor or the assistant orchestrator, and
// records every completed generation in the audit log.
type AIQueryService struct {
	log       *logger.Logger
	ai        openai.Client
	cfg       settings.Provider
	registry  *tasks.Registry
	scorer    *QualityScorer
	batches   *BatchService
	assistant *AssistantService
	logs      repos.AILogRepo
	dealers   repos.DealerRepo
}

func NewAIQueryService(
	baseLog *logger.Logger,
	ai openai.Client,
	cfg settings.Provider,
	registry *tasks.Registry,
	scorer *QualityScorer,
	batches *BatchService,
	assistant *AssistantService,
	logs repos.AILogRepo,
	dealers repos.DealerRepo,
) *AIQueryService {
	return &AIQueryService{
		log:       baseLog.With("service", "AIQueryService"),
		ai:        ai,
		cfg:       cfg,
		registry:  registry,
		scorer:    scorer,
		batches:   batches,
		assistant: assistant,
		logs:      logs,
		dealers:   dealers,
	}
}

// Query routes a request: batch when Prompts is set, a conversational run for
// the assistant task, otherwise a single completion.
func (s *AIQueryService) Query(ctx context.Context, input QueryInput) (*QueryResult, error) {
	if len(input.Prompts) > 0 {
		return s.batchQuery(ctx, input)
	}
	if input.Task == tasks.TaskAssistant {
		return s.assistantQuery(ctx, input)
	}
	return s.singleQuery(ctx, input)
}

func (s *AIQueryService) batchQuery(ctx context.Context, input QueryInput) (*QueryResult, error) {
	template := input
	template.Prompts = nil

	status, err := s.batches.Run(ctx, input.Prompts, func(ctx context.Context, prompt string) (any, error) {
		item := template
		item.Value = prompt
		result, err := s.singleQuery(ctx, item)
		if err != nil {
			return nil, err
		}
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return &QueryResult{
		BatchID: status.ID,
		Results: status.Items,
		Status:  status.Status,
	}, nil
}

func (s *AIQueryService) assistantQuery(ctx context.Context, input QueryInput) (*QueryResult, error) {
	if input.AssistantID == nil {
		return nil, fmt.Errorf("assistant task requires an assistant id")
	}
	conversation, err := s.assistant.Conversation(ctx, ConversationInput{
		AssistantID: *input.AssistantID,
		Message:     input.Value,
		PersistKey:  input.PersistKey,
		ThreadID:    input.ThreadID,
	})
	if err != nil {
		return nil, err
	}

	result := &QueryResult{
		Result:   conversation.Response,
		ThreadID: conversation.ThreadID,
		RunID:    conversation.RunID,
	}
	if logID := s.audit(ctx, input, tasks.TaskAssistant, input.Value, conversation.Response, result); logID != nil {
		result.LogID = logID
	}
	return result, nil
}

func (s *AIQueryService) singleQuery(ctx context.Context, input QueryInput) (*QueryResult, error) {
	task, err := s.registry.Resolve(input.Task)
	if err != nil {
		return nil, err
	}

	opts := s.dealerOptions(ctx)
	envelope, err := task.GetResponse(ctx, tasks.Input{
		Text:       input.Value,
		Image:      input.Image,
		Prompt:     input.Prompt,
		VehicleIDs: input.VehicleIDs,
	}, opts)
	if err != nil {
		return nil, err
	}

	var (
		response  string
		requested string
	)
	switch envelope.Kind {
	case tasks.KindVision:
		if len(envelope.Messages) > 0 {
			if parts, ok := envelope.Messages[0].Content.([]openai.ContentPart); ok && len(parts) > 0 {
				requested = parts[0].Text
			}
		}
		resp, err := s.ai.VisionQuery(ctx, envelope.Messages, openai.VisionOptions{
			Model:     settings.GetDefault(s.cfg, settings.KeyModel, "gpt-4o"),
			MaxTokens: settings.GetInt(s.cfg, settings.KeyMaxTokens, 1000),
		})
		if err != nil {
			return nil, err
		}
		content, ok := resp.FirstContent()
		if !ok {
			return nil, ErrEmptyAssistantResponse
		}
		response = content
	default:
		requested = envelope.Prompt
		resp, err := s.ai.ChatComplete(ctx, openai.ChatRequest{
			Model: settings.GetDefault(s.cfg, settings.KeyModel, "gpt-4o"),
			Messages: []openai.ChatMessage{
				{Role: "user", Content: envelope.Prompt},
			},
			MaxTokens: settings.GetInt(s.cfg, settings.KeyMaxTokens, 1000),
		})
		if err != nil {
			return nil, err
		}
		content, ok := resp.FirstContent()
		if !ok {
			return nil, ErrEmptyAssistantResponse
		}
		response = content
	}

	result := &QueryResult{Result: response}
	s.scoreBestEffort(ctx, requested, response, result)

	if logID := s.audit(ctx, input, envelope.Mode, requested, response, result); logID != nil {
		result.LogID = logID
	}
	return result, nil
}

// scoreBestEffort grades the prompt and response; scoring problems are logged
// and the generation still succeeds.
func (s *AIQueryService) scoreBestEffort(ctx context.Context, prompt, response string, result *QueryResult) {
	if s.scorer == nil {
		return
	}
	if verdict, err := s.scorer.ScorePromptQuality(ctx, prompt); err != nil {
		s.log.Warn("prompt scoring skipped", "error", err)
	} else {
		result.PromptScore = verdict
	}
	if verdict, err := s.scorer.ScoreResponseRelevancy(ctx, prompt, response); err != nil {
		s.log.Warn("relevancy scoring skipped", "error", err)
	} else {
		result.RelevancyScore = verdict
	}
}

// audit records the exchange in the generation log. Failures are logged only:
// the caller already has their content.
func (s *AIQueryService) audit(ctx context.Context, input QueryInput, mode, prompt, response string, result *QueryResult) *uuid.UUID {
	request := map[string]any{"task": input.Task, "prompt": prompt}
	if input.Image != "" {
		request["image"] = input.Image
	}
	if result.ThreadID != "" {
		request["thread_id"] = result.ThreadID
	}
	responsePayload := map[string]any{"result": response}
	if result.RunID != "" {
		responsePayload["run_id"] = result.RunID
	}
	if result.PromptScore != "" {
		responsePayload["prompt_score"] = result.PromptScore
	}
	if result.RelevancyScore != "" {
		responsePayload["relevancy_score"] = result.RelevancyScore
	}

	requestJSON, _ := json.Marshal(request)
	responseJSON, _ := json.Marshal(responsePayload)
	entry, err := s.logs.Create(ctx, nil, &types.AILog{
		Model:    settings.GetDefault(s.cfg, settings.KeyModel, "gpt-4o"),
		Task:     input.Task,
		Mode:     mode,
		Request:  datatypes.JSON(requestJSON),
		Response: datatypes.JSON(responseJSON),
	})
	if err != nil {
		s.log.Warn("failed to record generation log", "task", input.Task, "error", err)
		return nil
	}
	return &entry.ID
}

// dealerOptions loads the default dealer's identity and extra context as
// prompt grounding. No dealer configured means no dealer fragments.
func (s *AIQueryService) dealerOptions(ctx context.Context) tasks.Options {
	if s.dealers == nil {
		return tasks.Options{}
	}
	dealer, err := s.dealers.GetDefault(ctx, nil)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warn("default dealer lookup failed", "error", err)
		}
		return tasks.Options{}
	}

	parts := make([]string, 0, 4)
	for _, part := range []string{dealer.Name, dealer.Address, dealer.Phone, dealer.Website} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return tasks.Options{
		DealerInfo:              strings.Join(parts, ", "),
		DealerAdditionalContext: dealer.Context,
	}
}

// BatchStatus exposes batch polling to the HTTP layer.
func (s *AIQueryService) BatchStatus(ctx context.Context, id string) (*BatchStatus, error) {
	return s.batches.Status(ctx, id)
}

// MarkLogTaken flags a generation log entry whose content was adopted by an
// editor.
func (s *AIQueryService) MarkLogTaken(ctx context.Context, id uuid.UUID, taken bool) error {
	return s.logs.MarkTaken(ctx, nil, id, taken)
}

func (s *AIQueryService) GetLog(ctx context.Context, id uuid.UUID) (*types.AILog, error) {
	return s.logs.GetByID(ctx, nil, id)
}

func (s *AIQueryService) ListLogs(ctx context.Context, limit int) ([]*types.AILog, error) {
	return s.logs.List(ctx, nil, limit)
}
