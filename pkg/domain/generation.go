package domain

type GenerationParams struct {
	Temperature float64
	MaxTokens   int
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completion is what the generation transport returns.
type Completion struct {
	Text  string
	Usage Usage
	Model string
}

// Reply is the result of a send. A failed send still yields a Reply whose Text is the
// user-facing fallback; ErrorKind and Error tell the caller that it happened.
type Reply struct {
	Text           string    `json:"reply"`
	Specialist     string    `json:"specialist"`
	Reason         string    `json:"reason,omitempty"`
	ConversationID string    `json:"conversation_id"`
	Model          string    `json:"model,omitempty"`
	Usage          Usage     `json:"usage"`
	ErrorKind      ErrorKind `json:"error_kind,omitempty"`
	Error          string    `json:"error,omitempty"`
}

func (r *Reply) Failed() bool {
	return r.ErrorKind != KindNone
}
