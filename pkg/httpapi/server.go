// Package httpapi exposes the assistant to the mobile app over JSON and server-sent events.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dskvich/simba-ai/pkg/conversation"
	"github.com/dskvich/simba-ai/pkg/domain"
	"github.com/dskvich/simba-ai/pkg/llm/openai"
	"github.com/dskvich/simba-ai/pkg/logger"
	"github.com/dskvich/simba-ai/pkg/router"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

type Router interface {
	Route(ctx context.Context, message string, opts router.Options) *domain.Reply
	Classify(ctx context.Context, message string) domain.Classification
	BatchProcess(ctx context.Context, queries []string, opts router.BatchOptions) []router.BatchResult
}

type Conversations interface {
	History(ctx context.Context, conversationID string) []domain.Message
	Metadata(ctx context.Context, conversationID string) domain.ConversationMetadata
	Clear(ctx context.Context, conversationID string)
	SummaryWithOptions(ctx context.Context, conversationID string, opts conversation.SummaryOptions) string
	FollowUpSuggestions(ctx context.Context, conversationID string) []string
	ActionItems(ctx context.Context, conversationID string) []domain.ActionItem
	RespondWithContext(ctx context.Context, conversationID, text string, uc conversation.UserContext) *domain.Reply
}

type Specialists interface {
	Exposed() []domain.Specialist
	Resolve(key string) domain.Specialist
}

type Speaker interface {
	Speak(ctx context.Context, text, voice string, format openai.AudioFormat) ([]byte, error)
}

type Handler struct {
	router        Router
	conversations Conversations
	specialists   Specialists
	speaker       Speaker
	batchDelay    time.Duration
}

func NewHandler(r Router, conversations Conversations, specialists Specialists, speaker Speaker, batchDelay time.Duration) *Handler {
	return &Handler{
		router:        r,
		conversations: conversations,
		specialists:   specialists,
		speaker:       speaker,
		batchDelay:    batchDelay,
	}
}

// Engine builds the gin engine with every route registered under /v1.
func (h *Handler) Engine() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), RequestID(), AccessLog())

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h.RegisterRoutes(engine.Group("/v1"))
	return engine
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/chat", h.Chat)
	r.POST("/chat/stream", h.ChatStream)
	r.POST("/classify", h.Classify)
	r.POST("/batch", h.Batch)
	r.GET("/specialists", h.ListSpecialists)
	r.POST("/speech", h.Speech)

	conversations := r.Group("/conversations")
	{
		conversations.GET("/:id", h.GetConversation)
		conversations.GET("/:id/messages", h.GetMessages)
		conversations.DELETE("/:id", h.ClearConversation)
		conversations.GET("/:id/summary", h.GetSummary)
		conversations.GET("/:id/follow-ups", h.GetFollowUps)
		conversations.GET("/:id/action-items", h.GetActionItems)
		conversations.POST("/:id/context-reply", h.ContextReply)
	}
}

// RequestID reuses the caller's X-Request-ID or generates one and stores it in the request context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), id))
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		slog.InfoContext(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
