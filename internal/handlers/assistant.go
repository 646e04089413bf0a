package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nerdworks/dealerai-backend/internal/platform/openai"
	"github.com/nerdworks/dealerai-backend/internal/services"
)

type AssistantHandler struct {
	assistantService *services.AssistantService
}

func NewAssistantHandler(assistantService *services.AssistantService) *AssistantHandler {
	return &AssistantHandler{assistantService: assistantService}
}

func (h *AssistantHandler) Create(c *gin.Context) {
	var req struct {
		Name         string                 `json:"name"`
		Description  string                 `json:"description"`
		Instructions string                 `json:"instructions"`
		Model        string                 `json:"model"`
		Tools        []openai.AssistantTool `json:"tools"`
		HandlerID    string                 `json:"handler_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if req.Name == "" {
		badRequest(c, "name is required")
		return
	}

	assistant, err := h.assistantService.CreateAssistant(c.Request.Context(), services.CreateAssistantInput{
		Name:         req.Name,
		Description:  req.Description,
		Instructions: req.Instructions,
		Model:        req.Model,
		Tools:        req.Tools,
		HandlerID:    req.HandlerID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": assistant})
}

func (h *AssistantHandler) List(c *gin.Context) {
	onlyActive := c.DefaultQuery("active", "true") == "true"
	assistants, err := h.assistantService.ListAssistants(c.Request.Context(), onlyActive)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": assistants})
}

func (h *AssistantHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	assistant, err := h.assistantService.GetAssistant(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": assistant})
}

func (h *AssistantHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req struct {
		Name         *string                `json:"name"`
		Description  *string                `json:"description"`
		Instructions *string                `json:"instructions"`
		Model        *string                `json:"model"`
		Tools        []openai.AssistantTool `json:"tools"`
		HandlerID    *string                `json:"handler_id"`
		IsActive     *bool                  `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	assistant, err := h.assistantService.UpdateAssistant(c.Request.Context(), id, services.UpdateAssistantInput{
		Name:         req.Name,
		Description:  req.Description,
		Instructions: req.Instructions,
		Model:        req.Model,
		Tools:        req.Tools,
		HandlerID:    req.HandlerID,
		IsActive:     req.IsActive,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": assistant})
}

func (h *AssistantHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.assistantService.DeleteAssistant(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Import mirrors vendor-side assistants that are missing locally.
func (h *AssistantHandler) Import(c *gin.Context) {
	imported, err := h.assistantService.ImportAssistants(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "imported": len(imported), "data": imported})
}

func (h *AssistantHandler) ListThreads(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	threads, err := h.assistantService.ListThreads(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": threads})
}

func (h *AssistantHandler) CreateThread(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req struct {
		Title string `json:"title"`
	}
	// Body is optional for threads.
	_ = c.ShouldBindJSON(&req)

	assistant, err := h.assistantService.GetAssistant(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	thread, err := h.assistantService.CreateThread(c.Request.Context(), assistant, req.Title)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": thread})
}

func (h *AssistantHandler) DeleteThread(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.assistantService.DeleteThread(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ChatHistory returns the mirrored message history of a vendor thread.
func (h *AssistantHandler) ChatHistory(c *gin.Context) {
	threadID := c.Param("threadId")
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			badRequest(c, "invalid limit")
			return
		}
		limit = parsed
	}
	messages, err := h.assistantService.History(c.Request.Context(), threadID, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": messages})
}

// Chat runs one conversation turn against an assistant.
func (h *AssistantHandler) Chat(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req struct {
		Message    string `json:"message"`
		ThreadID   string `json:"thread_id"`
		PersistKey string `json:"persist_key"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if req.Message == "" {
		badRequest(c, "message is required")
		return
	}

	result, err := h.assistantService.Conversation(c.Request.Context(), services.ConversationInput{
		AssistantID: id,
		Message:     req.Message,
		ThreadID:    req.ThreadID,
		PersistKey:  req.PersistKey,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}
