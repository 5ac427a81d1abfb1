package domain

import "time"

const (
	SpecialistDefault    = "default"
	SpecialistCreative   = "creative"
	SpecialistCoder      = "coder"
	SpecialistBusiness   = "business"
	SpecialistTutor      = "tutor"
	SpecialistAnalytical = "analytical"

	// SpecialistSmart is not a registry entry: it asks the router to pick one.
	SpecialistSmart = "smart"
)

type Specialist struct {
	Key          string   `yaml:"key" json:"key"`
	Name         string   `yaml:"name" json:"name"`
	Emoji        string   `yaml:"emoji" json:"emoji"`
	Description  string   `yaml:"description" json:"description"`
	SystemPrompt string   `yaml:"system_prompt" json:"-"`
	Temperature  float64  `yaml:"temperature" json:"temperature"`
	MaxTokens    int      `yaml:"max_tokens" json:"max_tokens"`
	Voice        string   `yaml:"voice" json:"voice,omitempty"`
	Routable     bool     `yaml:"routable" json:"routable"`
	Internal     bool     `yaml:"internal" json:"-"`
	Keywords     []string `yaml:"keywords" json:"-"`
}

func (s Specialist) Params() GenerationParams {
	return GenerationParams{Temperature: s.Temperature, MaxTokens: s.MaxTokens}
}

type Classification struct {
	Specialist string `json:"specialist"`
	Reason     string `json:"reason"`
}

type RoutingDecision struct {
	ID             int64     `bun:",pk,autoincrement"`
	ConversationID string    `bun:"conversation_id"`
	Message        string    `bun:"message"`
	Specialist     string    `bun:"specialist"`
	Reason         string    `bun:"reason"`
	Explicit       bool      `bun:"explicit"`
	CreatedAt      time.Time `bun:"created_at"`
}

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

type ActionItem struct {
	Task        string   `json:"task"`
	Priority    Priority `json:"priority"`
	MentionedBy Role     `json:"mentioned_by"`
}
