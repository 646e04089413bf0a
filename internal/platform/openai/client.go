package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nerdworks/dealerai-backend/internal/platform/httpx"
	"github.com/nerdworks/dealerai-backend/internal/platform/logger"
	"github.com/nerdworks/dealerai-backend/internal/settings"
	"github.com/nerdworks/dealerai-backend/internal/utils"
)

// ErrRunTimeout is returned when a run does not reach a terminal status within
// the caller's timeout budget.
var ErrRunTimeout = errors.New("run timed out")

// UpstreamError wraps any vendor transport or malformed-response failure with
// the operation that produced it.
type UpstreamError struct {
	Operation  string
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("openai %s failed (http %d): %s", e.Operation, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("openai %s failed: %s", e.Operation, e.Message)
}

func (e *UpstreamError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

// ChatMessage is one entry in an ordered chat completion message list. Content
// is either a plain string or an ordered []ContentPart for multimodal input.
type ChatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type ChatChoice struct {
	Index   int `json:"index"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

type ChatResponse struct {
	ID      string         `json:"id"`
	Model   string         `json:"model"`
	Choices []ChatChoice   `json:"choices"`
	Usage   map[string]any `json:"usage"`
}

// FirstContent returns the first choice's message content, reporting whether it
// was present.
func (r *ChatResponse) FirstContent() (string, bool) {
	if r == nil || len(r.Choices) == 0 {
		return "", false
	}
	content := r.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", false
	}
	return content, true
}

type AssistantTool struct {
	Type     string         `json:"type"`
	Function map[string]any `json:"function,omitempty"`
}

type AssistantRecord struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Instructions string          `json:"instructions"`
	Model        string          `json:"model"`
	Tools        []AssistantTool `json:"tools"`
}

type assistantList struct {
	Data []AssistantRecord `json:"data"`
}

type ThreadRecord struct {
	ID       string            `json:"id"`
	Metadata map[string]string `json:"metadata"`
}

type MessageText struct {
	Value string `json:"value"`
}

type MessageContent struct {
	Type string       `json:"type"`
	Text *MessageText `json:"text,omitempty"`
}

type MessageRecord struct {
	ID        string           `json:"id"`
	ThreadID  string           `json:"thread_id"`
	Role      string           `json:"role"`
	Content   []MessageContent `json:"content"`
	CreatedAt int64            `json:"created_at"`
}

// TextValue extracts the primary text content of a thread message.
func (m *MessageRecord) TextValue() string {
	if m == nil {
		return ""
	}
	for _, part := range m.Content {
		if part.Type == "text" && part.Text != nil {
			return part.Text.Value
		}
	}
	return ""
}

type MessageList struct {
	Data []MessageRecord `json:"data"`
}

type ListMessagesParams struct {
	Order string
	Limit int
}

type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
}

type SubmitToolOutputsAction struct {
	ToolCalls []ToolCall `json:"tool_calls"`
}

type RequiredAction struct {
	Type              string                   `json:"type"`
	SubmitToolOutputs *SubmitToolOutputsAction `json:"submit_tool_outputs,omitempty"`
}

type RunRecord struct {
	ID             string          `json:"id"`
	ThreadID       string          `json:"thread_id"`
	AssistantID    string          `json:"assistant_id"`
	Status         string          `json:"status"`
	RequiredAction *RequiredAction `json:"required_action,omitempty"`
	LastError      *RunLastError   `json:"last_error,omitempty"`
}

type RunLastError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ToolOutput struct {
	ToolCallID string `json:"tool_call_id"`
	Output     string `json:"output"`
}

// Run statuses the orchestration layer branches on.
const (
	StatusCompleted      = "completed"
	StatusFailed         = "failed"
	StatusCancelled      = "cancelled"
	StatusExpired        = "expired"
	StatusRequiresAction = "requires_action"
)

// Terminal run statuses. requires_action and the queued/in_progress states are
// non-terminal.
func IsTerminalStatus(status string) bool {
	switch status {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusExpired:
		return true
	default:
		return false
	}
}

// VisionOptions tunes a multimodal completion.
type VisionOptions struct {
	Model     string
	MaxTokens int
}

// Client is the vendor API binding used by the rest of the backend.
type Client interface {
	ChatComplete(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	CreateAssistant(ctx context.Context, name, instructions, model string, tools []AssistantTool) (*AssistantRecord, error)
	GetAssistant(ctx context.Context, assistantID string) (*AssistantRecord, error)
	UpdateAssistant(ctx context.Context, assistantID string, fields map[string]any) (*AssistantRecord, error)
	DeleteAssistant(ctx context.Context, assistantID string) error
	ListAssistants(ctx context.Context) ([]AssistantRecord, error)

	CreateThread(ctx context.Context, initialMessages []ChatMessage) (*ThreadRecord, error)
	GetThread(ctx context.Context, threadID string) (*ThreadRecord, error)
	DeleteThread(ctx context.Context, threadID string) error

	AddMessage(ctx context.Context, threadID, role, content string, attachments []map[string]any) (*MessageRecord, error)
	ListMessages(ctx context.Context, threadID string, params ListMessagesParams) (*MessageList, error)

	CreateRun(ctx context.Context, threadID, assistantID string, params map[string]any) (*RunRecord, error)
	GetRun(ctx context.Context, threadID, runID string) (*RunRecord, error)
	WaitForRun(ctx context.Context, threadID, runID string, timeout, pollInterval time.Duration) (*RunRecord, error)
	GetRequiredAction(ctx context.Context, threadID, runID string) (*RequiredAction, error)
	SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) (*RunRecord, error)

	VisionQuery(ctx context.Context, messages []ChatMessage, opts VisionOptions) (*ChatResponse, error)
}

type client struct {
	log          *logger.Logger
	baseURL      string
	apiKey       string
	organization string
	model        string
	httpClient   *http.Client
	maxRetries   int
}

// NewClient builds the vendor binding from the settings boundary. It fails fast
// with settings.ErrMissingAPIKey before any call is attempted.
func NewClient(log *logger.Logger, cfg settings.Provider) (Client, error) {
	apiKey, err := settings.RequireAPIKey(cfg)
	if err != nil {
		return nil, err
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	baseURL := strings.TrimRight(utils.GetEnv("OPENAI_BASE_URL", "https://api.openai.com", nil), "/")
	timeoutSec := utils.GetEnvAsInt("OPENAI_TIMEOUT_SECONDS", 180, nil)
	maxRetries := utils.GetEnvAsInt("OPENAI_MAX_RETRIES", 4, nil)

	return &client{
		log:          log.With("service", "OpenAIClient"),
		baseURL:      baseURL,
		apiKey:       apiKey,
		organization: cfg.Get(settings.KeyOrganization),
		model:        settings.GetDefault(cfg, settings.KeyModel, "gpt-4o"),
		httpClient:   &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		maxRetries:   maxRetries,
	}, nil
}

type openAIHTTPError struct {
	StatusCode int
	Body       string
}

func (e *openAIHTTPError) Error() string {
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

func (e *openAIHTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *client) doOnce(ctx context.Context, method, path string, body any, assistantsAPI bool) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if c.organization != "" {
		req.Header.Set("OpenAI-Organization", c.organization)
	}
	if assistantsAPI {
		req.Header.Set("OpenAI-Beta", "assistants=v2")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &openAIHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func (c *client) do(ctx context.Context, op, method, path string, body any, out any, assistantsAPI bool) error {
	backoff := 1 * time.Second

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		resp, raw, err := c.doOnce(ctx, method, path, body, assistantsAPI)
		if err == nil {
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return &UpstreamError{Operation: op, Message: fmt.Sprintf("decode error: %v; raw=%s", uErr, string(raw))}
			}
			return nil
		}

		if !httpx.IsRetryableError(err) || attempt == c.maxRetries {
			return wrapUpstream(op, err)
		}

		sleepFor := httpx.RetryAfterDuration(resp, backoff, 10*time.Second)
		sleepFor = httpx.JitterSleep(sleepFor)

		c.log.Warn("OpenAI request retrying",
			"operation", op,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)

		time.Sleep(sleepFor)
		backoff *= 2
	}

	return wrapUpstream(op, fmt.Errorf("retries exhausted"))
}

func wrapUpstream(op string, err error) error {
	var httpErr *openAIHTTPError
	if errors.As(err, &httpErr) {
		return &UpstreamError{Operation: op, StatusCode: httpErr.StatusCode, Message: httpErr.Body}
	}
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &UpstreamError{Operation: op, Message: err.Error()}
}

// -------------------- Chat completions --------------------

func (c *client) ChatComplete(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if req.Model == "" {
		req.Model = c.model
	}
	var resp ChatResponse
	if err := c.do(ctx, "chatComplete", http.MethodPost, "/v1/chat/completions", req, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *client) VisionQuery(ctx context.Context, messages []ChatMessage, opts VisionOptions) (*ChatResponse, error) {
	model := opts.Model
	if model == "" {
		model = c.model
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 300
	}
	req := ChatRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: maxTokens,
	}
	var resp ChatResponse
	if err := c.do(ctx, "visionQuery", http.MethodPost, "/v1/chat/completions", req, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

// -------------------- Assistants --------------------

func (c *client) CreateAssistant(ctx context.Context, name, instructions, model string, tools []AssistantTool) (*AssistantRecord, error) {
	if model == "" {
		model = c.model
	}
	body := map[string]any{
		"name":         name,
		"instructions": instructions,
		"model":        model,
	}
	if len(tools) > 0 {
		body["tools"] = tools
	}
	var rec AssistantRecord
	if err := c.do(ctx, "createAssistant", http.MethodPost, "/v1/assistants", body, &rec, true); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *client) GetAssistant(ctx context.Context, assistantID string) (*AssistantRecord, error) {
	var rec AssistantRecord
	if err := c.do(ctx, "getAssistant", http.MethodGet, "/v1/assistants/"+assistantID, nil, &rec, true); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *client) UpdateAssistant(ctx context.Context, assistantID string, fields map[string]any) (*AssistantRecord, error) {
	var rec AssistantRecord
	if err := c.do(ctx, "updateAssistant", http.MethodPost, "/v1/assistants/"+assistantID, fields, &rec, true); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *client) DeleteAssistant(ctx context.Context, assistantID string) error {
	return c.do(ctx, "deleteAssistant", http.MethodDelete, "/v1/assistants/"+assistantID, nil, nil, true)
}

func (c *client) ListAssistants(ctx context.Context) ([]AssistantRecord, error) {
	var list assistantList
	if err := c.do(ctx, "listAssistants", http.MethodGet, "/v1/assistants", nil, &list, true); err != nil {
		return nil, err
	}
	return list.Data, nil
}

// -------------------- Threads --------------------

func (c *client) CreateThread(ctx context.Context, initialMessages []ChatMessage) (*ThreadRecord, error) {
	body := map[string]any{}
	if len(initialMessages) > 0 {
		body["messages"] = initialMessages
	}
	var rec ThreadRecord
	if err := c.do(ctx, "createThread", http.MethodPost, "/v1/threads", body, &rec, true); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *client) GetThread(ctx context.Context, threadID string) (*ThreadRecord, error) {
	var rec ThreadRecord
	if err := c.do(ctx, "getThread", http.MethodGet, "/v1/threads/"+threadID, nil, &rec, true); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *client) DeleteThread(ctx context.Context, threadID string) error {
	return c.do(ctx, "deleteThread", http.MethodDelete, "/v1/threads/"+threadID, nil, nil, true)
}

// -------------------- Messages --------------------

func (c *client) AddMessage(ctx context.Context, threadID, role, content string, attachments []map[string]any) (*MessageRecord, error) {
	body := map[string]any{
		"role":    role,
		"content": content,
	}
	if len(attachments) > 0 {
		body["attachments"] = attachments
	}
	var rec MessageRecord
	if err := c.do(ctx, "addMessage", http.MethodPost, "/v1/threads/"+threadID+"/messages", body, &rec, true); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *client) ListMessages(ctx context.Context, threadID string, params ListMessagesParams) (*MessageList, error) {
	path := "/v1/threads/" + threadID + "/messages"
	query := ""
	if params.Order != "" {
		query = "order=" + params.Order
	}
	if params.Limit > 0 {
		if query != "" {
			query += "&"
		}
		query += fmt.Sprintf("limit=%d", params.Limit)
	}
	if query != "" {
		path += "?" + query
	}
	var list MessageList
	if err := c.do(ctx, "listMessages", http.MethodGet, path, nil, &list, true); err != nil {
		return nil, err
	}
	return &list, nil
}

// -------------------- Runs --------------------

func (c *client) CreateRun(ctx context.Context, threadID, assistantID string, params map[string]any) (*RunRecord, error) {
	body := map[string]any{"assistant_id": assistantID}
	for k, v := range params {
		body[k] = v
	}
	var rec RunRecord
	if err := c.do(ctx, "createRun", http.MethodPost, "/v1/threads/"+threadID+"/runs", body, &rec, true); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *client) GetRun(ctx context.Context, threadID, runID string) (*RunRecord, error) {
	var rec RunRecord
	if err := c.do(ctx, "getRun", http.MethodGet, "/v1/threads/"+threadID+"/runs/"+runID, nil, &rec, true); err != nil {
		return nil, err
	}
	return &rec, nil
}

// WaitForRun polls GetRun at a fixed interval until the run reaches a terminal
// status or requires_action (the caller must service tool calls before polling
// again), failing with ErrRunTimeout once the budget is exhausted. A timeout of
// zero still checks the status once, then fails without sleeping.
func (c *client) WaitForRun(ctx context.Context, threadID, runID string, timeout, pollInterval time.Duration) (*RunRecord, error) {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	start := time.Now()
	for {
		run, err := c.GetRun(ctx, threadID, runID)
		if err != nil {
			return nil, err
		}
		if IsTerminalStatus(run.Status) || run.Status == StatusRequiresAction {
			return run, nil
		}
		if time.Since(start) >= timeout {
			return nil, fmt.Errorf("run %s %w after %s (status %s)", runID, ErrRunTimeout, timeout, run.Status)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// GetRequiredAction returns the pending tool-call descriptor only while the run
// status is requires_action.
func (c *client) GetRequiredAction(ctx context.Context, threadID, runID string) (*RequiredAction, error) {
	run, err := c.GetRun(ctx, threadID, runID)
	if err != nil {
		return nil, err
	}
	if run.Status != StatusRequiresAction {
		return nil, nil
	}
	return run.RequiredAction, nil
}

func (c *client) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) (*RunRecord, error) {
	body := map[string]any{"tool_outputs": outputs}
	var rec RunRecord
	if err := c.do(ctx, "submitToolOutputs", http.MethodPost, "/v1/threads/"+threadID+"/runs/"+runID+"/submit_tool_outputs", body, &rec, true); err != nil {
		return nil, err
	}
	return &rec, nil
}
