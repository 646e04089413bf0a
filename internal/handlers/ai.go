package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nerdworks/dealerai-backend/internal/services"
)

type AIHandler struct {
	queryService *services.AIQueryService
}

func NewAIHandler(queryService *services.AIQueryService) *AIHandler {
	return &AIHandler{queryService: queryService}
}

// Query accepts a single generation, a batch (prompts present) or an assistant
// conversation turn, depending on the task.
func (h *AIHandler) Query(c *gin.Context) {
	var req struct {
		Task        string   `json:"task"`
		Value       string   `json:"value"`
		Prompts     []string `json:"prompts"`
		Image       string   `json:"image"`
		Prompt      string   `json:"prompt"`
		VehicleIDs  []string `json:"vehicle_ids"`
		AssistantID string   `json:"assistant_id"`
		ThreadID    string   `json:"thread_id"`
		PersistKey  string   `json:"persist_key"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if req.Task == "" {
		badRequest(c, "task is required")
		return
	}

	input := services.QueryInput{
		Task:       req.Task,
		Value:      req.Value,
		Prompts:    req.Prompts,
		Image:      req.Image,
		Prompt:     req.Prompt,
		ThreadID:   req.ThreadID,
		PersistKey: req.PersistKey,
	}
	for _, raw := range req.VehicleIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			badRequest(c, "invalid vehicle id: "+raw)
			return
		}
		input.VehicleIDs = append(input.VehicleIDs, id)
	}
	if req.AssistantID != "" {
		id, err := uuid.Parse(req.AssistantID)
		if err != nil {
			badRequest(c, "invalid assistant id")
			return
		}
		input.AssistantID = &id
	}

	result, err := h.queryService.Query(c.Request.Context(), input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}

// BatchStatus returns the progress snapshot of a running or finished batch.
func (h *AIHandler) BatchStatus(c *gin.Context) {
	status, err := h.queryService.BatchStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if status == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "batch not found or expired"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": status})
}

func (h *AIHandler) ListLogs(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			badRequest(c, "invalid limit")
			return
		}
		limit = parsed
	}
	logs, err := h.queryService.ListLogs(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": logs})
}

func (h *AIHandler) GetLog(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid log id")
		return
	}
	entry, err := h.queryService.GetLog(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": entry})
}

// MarkLogTaken flags a log entry whose generated content an editor adopted.
func (h *AIHandler) MarkLogTaken(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid log id")
		return
	}
	var req struct {
		Taken *bool `json:"taken"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	taken := true
	if req.Taken != nil {
		taken = *req.Taken
	}
	if err := h.queryService.MarkLogTaken(c.Request.Context(), id, taken); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
