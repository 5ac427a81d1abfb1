package openai

import "github.com/dskvich/simba-ai/pkg/domain"

type chatCompletionRequest struct {
	Model         string                  `json:"model"`
	Messages      []chatCompletionMessage `json:"messages"`
	MaxTokens     int                     `json:"max_tokens,omitempty"`
	Temperature   float64                 `json:"temperature"`
	Stream        bool                    `json:"stream,omitempty"`
	StreamOptions *streamOptions          `json:"stream_options,omitempty"`
}

type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

type chatCompletionResponse struct {
	Model   string                 `json:"model"`
	Choices []chatCompletionChoice `json:"choices"`
	Usage   *domain.Usage          `json:"usage"`
}

type chatCompletionChoice struct {
	Message      chatCompletionMessage `json:"message"`
	Delta        chatCompletionMessage `json:"delta"`
	FinishReason string                `json:"finish_reason"`
}

type chatCompletionMessage struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

type AudioFormat string

const (
	AudioFormatMP3  AudioFormat = "mp3"
	AudioFormatOpus AudioFormat = "opus"
)

type speechRequest struct {
	Model          string      `json:"model"`
	Input          string      `json:"input"`
	Voice          string      `json:"voice"`
	ResponseFormat AudioFormat `json:"response_format"`
	Speed          float64     `json:"speed"`
}

func toChatMessages(messages []domain.Message) []chatCompletionMessage {
	out := make([]chatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, chatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}
