package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dskvich/simba-ai/pkg/domain"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultModel       = "gpt-4o-mini"
	DefaultSpeechModel = "tts-1-hd"
	DefaultTimeout     = 60 * time.Second

	// MaxSpeechInput is the longest text the speech endpoint accepts.
	MaxSpeechInput = 4096
)

type client struct {
	token       string
	baseURL     string
	model       string
	speechModel string
	hc          *http.Client
	limiter     *rate.Limiter
}

type Option func(*client)

func WithBaseURL(url string) Option {
	return func(c *client) {
		if url != "" {
			c.baseURL = strings.TrimRight(url, "/")
		}
	}
}

func WithModel(model string) Option {
	return func(c *client) {
		if model != "" {
			c.model = model
		}
	}
}

func WithSpeechModel(model string) Option {
	return func(c *client) {
		if model != "" {
			c.speechModel = model
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *client) {
		if d > 0 {
			c.hc.Timeout = d
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		if hc != nil {
			c.hc = hc
		}
	}
}

// WithRateLimit caps outgoing requests per minute. Zero disables limiting.
func WithRateLimit(perMinute int) Option {
	return func(c *client) {
		if perMinute > 0 {
			c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
		}
	}
}

func NewClient(token string, opts ...Option) (*client, error) {
	if token == "" {
		return nil, errors.New("token cannot be empty")
	}

	c := &client{
		token:       token,
		baseURL:     DefaultBaseURL,
		model:       DefaultModel,
		speechModel: DefaultSpeechModel,
		hc:          &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *client) Generate(ctx context.Context, messages []domain.Message, params domain.GenerationParams) (*domain.Completion, error) {
	req, err := c.newRequest(ctx, "/chat/completions", c.chatRequest(messages, params, false))
	if err != nil {
		return nil, err
	}

	body, err := c.doRequest(req)
	if err != nil {
		return nil, fmt.Errorf("requesting chat completion: %w", err)
	}

	var resp chatCompletionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding chat completion: %w: %w", domain.ErrTransport, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion has no choices: %w", domain.ErrTransport)
	}

	completion := &domain.Completion{
		Text:  resp.Choices[0].Message.Content,
		Model: resp.Model,
	}
	if resp.Usage != nil {
		completion.Usage = *resp.Usage
	}

	return completion, nil
}

// GenerateStream reads a server-sent event stream and calls onChunk for every non-empty delta.
func (c *client) GenerateStream(ctx context.Context, messages []domain.Message, params domain.GenerationParams, onChunk func(delta string)) (*domain.Completion, error) {
	req, err := c.newRequest(ctx, "/chat/completions", c.chatRequest(messages, params, true))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.send(req)
	if err != nil {
		return nil, fmt.Errorf("requesting chat completion stream: %w", err)
	}
	defer resp.Body.Close()

	completion := &domain.Completion{}
	var text strings.Builder
	done := false

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}

		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			done = true
			break
		}

		var chunk chatCompletionResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			slog.WarnContext(ctx, "skipping malformed stream chunk", "data", data)
			continue
		}

		if chunk.Model != "" {
			completion.Model = chunk.Model
		}
		if chunk.Usage != nil {
			completion.Usage = *chunk.Usage
		}
		for _, choice := range chunk.Choices {
			if choice.FinishReason != "" {
				done = true
			}
			if choice.Delta.Content == "" {
				continue
			}
			text.WriteString(choice.Delta.Content)
			onChunk(choice.Delta.Content)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading chat completion stream: %w: %w", domain.ErrTransport, err)
	}
	if !done {
		return nil, fmt.Errorf("stream ended before completion: %w", domain.ErrTransport)
	}

	completion.Text = text.String()
	return completion, nil
}

// Speak synthesizes text with voice. Text longer than MaxSpeechInput is cut and marked with an ellipsis.
func (c *client) Speak(ctx context.Context, text, voice string, format AudioFormat) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrEmptyInput
	}
	if format == "" {
		format = AudioFormatMP3
	}

	req, err := c.newRequest(ctx, "/audio/speech", speechRequest{
		Model:          c.speechModel,
		Input:          truncateSpeech(text),
		Voice:          voice,
		ResponseFormat: format,
		Speed:          1.0,
	})
	if err != nil {
		return nil, err
	}

	audio, err := c.doRequest(req)
	if err != nil {
		return nil, fmt.Errorf("requesting speech: %w", err)
	}

	return audio, nil
}

func truncateSpeech(text string) string {
	runes := []rune(text)
	if len(runes) <= MaxSpeechInput {
		return text
	}
	return string(runes[:MaxSpeechInput-3]) + "..."
}

func (c *client) chatRequest(messages []domain.Message, params domain.GenerationParams, stream bool) chatCompletionRequest {
	req := chatCompletionRequest{
		Model:       c.model,
		Messages:    toChatMessages(messages),
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
		Stream:      stream,
	}
	if stream {
		req.StreamOptions = &streamOptions{IncludeUsage: true}
	}
	return req
}

func (c *client) newRequest(ctx context.Context, path string, payload any) (*http.Request, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w: %w", domain.ErrMalformedRequest, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("creating HTTP request: %w: %w", domain.ErrMalformedRequest, err)
	}
	req.Header.Set("Content-Type", "application/json")

	return req, nil
}

func (c *client) doRequest(req *http.Request) ([]byte, error) {
	resp, err := c.send(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w: %w", domain.ErrTransport, err)
	}

	return respBody, nil
}

// send performs req and returns the response only for 2xx statuses.
func (c *client) send(req *http.Request) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w: %w", domain.ErrTransport, err)
		}
	}

	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w: %w", domain.ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, statusError(resp.StatusCode, body)
	}

	return resp, nil
}

// statusError maps a failed HTTP status onto the error taxonomy.
func statusError(statusCode int, body []byte) error {
	message := strings.TrimSpace(string(body))
	var apiErr errorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		message = apiErr.Error.Message
	}

	var kind error
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = domain.ErrAuthentication
	case http.StatusTooManyRequests:
		kind = domain.ErrRateLimited
	case http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity:
		kind = domain.ErrMalformedRequest
	default:
		kind = domain.ErrTransport
	}

	return fmt.Errorf("%w: status %d: %s", kind, statusCode, message)
}
