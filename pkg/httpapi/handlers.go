package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dskvich/simba-ai/pkg/conversation"
	"github.com/dskvich/simba-ai/pkg/domain"
	"github.com/dskvich/simba-ai/pkg/llm/openai"
	"github.com/dskvich/simba-ai/pkg/logger"
	"github.com/dskvich/simba-ai/pkg/router"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

const defaultVoice = "alloy"

var errEmptyMessage = errors.New("message is empty")

type chatRequest struct {
	ConversationID string   `json:"conversation_id"`
	Message        string   `json:"message"`
	Specialist     string   `json:"specialist"`
	IncludeHistory *bool    `json:"include_history"`
	Temperature    *float64 `json:"temperature" binding:"omitempty,min=0,max=2"`
	MaxTokens      int      `json:"max_tokens" binding:"omitempty,min=1"`
	SystemPrompt   string   `json:"system_prompt"`
}

func (r chatRequest) options() router.Options {
	return router.Options{
		ConversationID: r.ConversationID,
		Specialist:     r.Specialist,
		SkipHistory:    r.IncludeHistory != nil && !*r.IncludeHistory,
		SystemPrompt:   r.SystemPrompt,
		Temperature:    r.Temperature,
		MaxTokens:      r.MaxTokens,
	}
}

func (h *Handler) bindChat(c *gin.Context) (chatRequest, bool) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return req, false
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": errEmptyMessage.Error()})
		return req, false
	}
	if req.ConversationID == "" {
		req.ConversationID = uuid.NewString()
	}
	return req, true
}

// Chat POST /v1/chat
func (h *Handler) Chat(c *gin.Context) {
	req, ok := h.bindChat(c)
	if !ok {
		return
	}

	reply := h.router.Route(c.Request.Context(), req.Message, req.options())
	if reply == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errEmptyMessage.Error()})
		return
	}

	c.JSON(http.StatusOK, reply)
}

// ChatStream POST /v1/chat/stream
// Emits "chunk" events carrying each delta and a final "done" event carrying the reply.
func (h *Handler) ChatStream(c *gin.Context) {
	req, ok := h.bindChat(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	opts := req.options()
	opts.OnChunk = func(delta, _ string) {
		c.SSEvent("chunk", gin.H{"delta": delta})
		c.Writer.Flush()
	}

	reply := h.router.Route(c.Request.Context(), req.Message, opts)
	if reply == nil {
		c.SSEvent("error", gin.H{"error": errEmptyMessage.Error()})
		c.Writer.Flush()
		return
	}

	c.SSEvent("done", reply)
	c.Writer.Flush()
}

type classifyRequest struct {
	Message string `json:"message" binding:"required"`
}

// Classify POST /v1/classify
func (h *Handler) Classify(c *gin.Context) {
	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.router.Classify(c.Request.Context(), req.Message))
}

type batchRequest struct {
	Queries        []string `json:"queries" binding:"required,min=1"`
	Specialist     string   `json:"specialist"`
	DelayMS        *int     `json:"delay_ms" binding:"omitempty,min=0"`
	ConversationID string   `json:"conversation_id"`
}

// Batch POST /v1/batch
func (h *Handler) Batch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	delay := h.batchDelay
	if req.DelayMS != nil {
		delay = time.Duration(*req.DelayMS) * time.Millisecond
	}

	results := h.router.BatchProcess(c.Request.Context(), req.Queries, router.BatchOptions{
		Specialist:     req.Specialist,
		ConversationID: lo.CoalesceOrEmpty(req.ConversationID, uuid.NewString()),
		Delay:          &delay,
	})

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// ListSpecialists GET /v1/specialists
func (h *Handler) ListSpecialists(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"specialists": h.specialists.Exposed()})
}

// GetConversation GET /v1/conversations/:id
func (h *Handler) GetConversation(c *gin.Context) {
	c.JSON(http.StatusOK, h.conversations.Metadata(c.Request.Context(), c.Param("id")))
}

// GetMessages GET /v1/conversations/:id/messages
func (h *Handler) GetMessages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"messages": h.conversations.History(c.Request.Context(), c.Param("id"))})
}

// ClearConversation DELETE /v1/conversations/:id
func (h *Handler) ClearConversation(c *gin.Context) {
	h.conversations.Clear(c.Request.Context(), c.Param("id"))
	c.Status(http.StatusNoContent)
}

type summaryQuery struct {
	MaxWords         int   `form:"max_words" binding:"omitempty,min=1"`
	IncludeKeyPoints *bool `form:"include_key_points"`
}

// GetSummary GET /v1/conversations/:id/summary
func (h *Handler) GetSummary(c *gin.Context) {
	var q summaryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary := h.conversations.SummaryWithOptions(c.Request.Context(), c.Param("id"), conversation.SummaryOptions{
		MaxWords:         q.MaxWords,
		IncludeKeyPoints: lo.FromPtrOr(q.IncludeKeyPoints, true),
	})
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// GetFollowUps GET /v1/conversations/:id/follow-ups
func (h *Handler) GetFollowUps(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"suggestions": h.conversations.FollowUpSuggestions(c.Request.Context(), c.Param("id"))})
}

// GetActionItems GET /v1/conversations/:id/action-items
func (h *Handler) GetActionItems(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"action_items": h.conversations.ActionItems(c.Request.Context(), c.Param("id"))})
}

type contextReplyRequest struct {
	Message string `json:"message"`
	conversation.UserContext
}

// ContextReply POST /v1/conversations/:id/context-reply
func (h *Handler) ContextReply(c *gin.Context) {
	var req contextReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := c.Param("id")
	reply := h.conversations.RespondWithContext(c.Request.Context(), id, req.Message, req.UserContext)
	if reply == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errEmptyMessage.Error()})
		return
	}

	c.JSON(http.StatusOK, reply)
}

type speechRequest struct {
	Text       string `json:"text"`
	Voice      string `json:"voice"`
	Specialist string `json:"specialist"`
}

// Speech POST /v1/speech
func (h *Handler) Speech(c *gin.Context) {
	var req speechRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	voice := lo.CoalesceOrEmpty(req.Voice, h.specialists.Resolve(req.Specialist).Voice, defaultVoice)

	audio, err := h.speaker.Speak(c.Request.Context(), req.Text, voice, openai.AudioFormatMP3)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "synthesizing speech", logger.Err(err))
		c.JSON(speechStatus(err), gin.H{"error": err.Error(), "error_kind": domain.KindOf(err)})
		return
	}

	c.Data(http.StatusOK, "audio/mpeg", audio)
}

func speechStatus(err error) int {
	if errors.Is(err, domain.ErrEmptyInput) {
		return http.StatusBadRequest
	}

	switch domain.KindOf(err) {
	case domain.KindRateLimited:
		return http.StatusTooManyRequests
	case domain.KindMalformedRequest:
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
