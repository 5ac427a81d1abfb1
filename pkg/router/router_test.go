package router

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dskvich/simba-ai/pkg/conversation"
	"github.com/dskvich/simba-ai/pkg/domain"
	"github.com/dskvich/simba-ai/pkg/repository"
	"github.com/dskvich/simba-ai/pkg/specialist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClassifier struct {
	result domain.Classification
	calls  int
}

func (c *stubClassifier) Classify(context.Context, string) domain.Classification {
	c.calls++
	return c.result
}

type stubGenerator struct {
	mu     sync.Mutex
	params []domain.GenerationParams
	failOn map[int]error
}

func (g *stubGenerator) Generate(_ context.Context, _ []domain.Message, params domain.GenerationParams) (*domain.Completion, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.params = append(g.params, params)
	if err, ok := g.failOn[len(g.params)]; ok {
		return nil, err
	}
	return &domain.Completion{Text: fmt.Sprintf("answer %d", len(g.params))}, nil
}

func (g *stubGenerator) GenerateStream(ctx context.Context, messages []domain.Message, params domain.GenerationParams, onChunk func(string)) (*domain.Completion, error) {
	c, err := g.Generate(ctx, messages, params)
	if err != nil {
		return nil, err
	}
	onChunk(c.Text)
	return c, nil
}

type recorderFunc func(*domain.RoutingDecision) error

func (f recorderFunc) Save(_ context.Context, d *domain.RoutingDecision) error {
	return f(d)
}

var noDelay = new(time.Duration)

func newTestRouter(t *testing.T, c *stubClassifier, gen *stubGenerator) *Router {
	t.Helper()
	registry, err := specialist.NewRegistry()
	require.NoError(t, err)

	manager := conversation.NewManager(repository.NewMemoryConversationStore(), gen, registry, conversation.DefaultConfig())
	return New(c, registry, manager)
}

func TestRouteExplicitSpecialistBypassesClassifier(t *testing.T) {
	c := &stubClassifier{result: domain.Classification{Specialist: domain.SpecialistCreative, Reason: "x"}}
	gen := &stubGenerator{}
	r := newTestRouter(t, c, gen)

	reply := r.Route(context.Background(), "fix my loop", Options{ConversationID: "c1", Specialist: domain.SpecialistCoder})

	require.NotNil(t, reply)
	assert.Equal(t, 0, c.calls)
	assert.Equal(t, domain.SpecialistCoder, reply.Specialist)
	assert.Equal(t, 0.3, gen.params[0].Temperature)
	assert.Equal(t, 1200, gen.params[0].MaxTokens)
}

func TestRouteClassifiesWhenNoExplicitSpecialist(t *testing.T) {
	tests := []struct {
		name            string
		specialist      string
		classification  domain.Classification
		wantSpecialist  string
		wantTemperature float64
	}{
		{
			name:            "classified specialist",
			classification:  domain.Classification{Specialist: domain.SpecialistBusiness, Reason: "pricing question"},
			wantSpecialist:  domain.SpecialistBusiness,
			wantTemperature: 0.4,
		},
		{
			name:            "smart asks the classifier",
			specialist:      domain.SpecialistSmart,
			classification:  domain.Classification{Specialist: domain.SpecialistTutor, Reason: "learning"},
			wantSpecialist:  domain.SpecialistTutor,
			wantTemperature: 0.6,
		},
		{
			name:            "internal specialist is not explicit",
			specialist:      domain.SpecialistAnalytical,
			classification:  domain.Classification{Specialist: domain.SpecialistDefault, Reason: "General conversation"},
			wantSpecialist:  domain.SpecialistDefault,
			wantTemperature: 0.7,
		},
		{
			name:            "default classification",
			classification:  domain.Classification{Specialist: domain.SpecialistDefault, Reason: "Fallback to general conversation"},
			wantSpecialist:  domain.SpecialistDefault,
			wantTemperature: 0.7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &stubClassifier{result: tt.classification}
			gen := &stubGenerator{}
			r := newTestRouter(t, c, gen)

			reply := r.Route(context.Background(), "hello there", Options{ConversationID: "c1", Specialist: tt.specialist})

			require.NotNil(t, reply)
			assert.Equal(t, 1, c.calls)
			assert.Equal(t, tt.wantSpecialist, reply.Specialist)
			assert.Equal(t, tt.classification.Reason, reply.Reason)
			assert.Equal(t, tt.wantTemperature, gen.params[0].Temperature)
		})
	}
}

func TestRouteStreamsWithOnChunk(t *testing.T) {
	c := &stubClassifier{result: domain.Classification{Specialist: domain.SpecialistDefault}}
	r := newTestRouter(t, c, &stubGenerator{})

	var chunks []string
	reply := r.Route(context.Background(), "hi", Options{
		ConversationID: "c1",
		OnChunk:        func(_, full string) { chunks = append(chunks, full) },
	})

	require.NotNil(t, reply)
	assert.Equal(t, []string{"answer 1"}, chunks)
	assert.Equal(t, "answer 1", reply.Text)
}

func TestRouteRecordsDecisions(t *testing.T) {
	c := &stubClassifier{result: domain.Classification{Specialist: domain.SpecialistCreative, Reason: "poem"}}
	r := newTestRouter(t, c, &stubGenerator{})

	var saved []*domain.RoutingDecision
	r.WithRecorder(recorderFunc(func(d *domain.RoutingDecision) error {
		saved = append(saved, d)
		return errors.New("db down")
	}))

	reply := r.Route(context.Background(), "write a poem", Options{ConversationID: "c1"})
	r.Route(context.Background(), "and code", Options{ConversationID: "c1", Specialist: domain.SpecialistCoder})

	require.NotNil(t, reply)
	assert.False(t, reply.Failed())
	require.Len(t, saved, 2)
	assert.Equal(t, domain.SpecialistCreative, saved[0].Specialist)
	assert.Equal(t, "poem", saved[0].Reason)
	assert.False(t, saved[0].Explicit)
	assert.Equal(t, domain.SpecialistCoder, saved[1].Specialist)
	assert.True(t, saved[1].Explicit)
}

func TestBatchProcess(t *testing.T) {
	c := &stubClassifier{result: domain.Classification{Specialist: domain.SpecialistCoder, Reason: "code"}}
	gen := &stubGenerator{failOn: map[int]error{2: domain.ErrRateLimited}}
	r := newTestRouter(t, c, gen)

	results := r.BatchProcess(context.Background(), []string{"q1", "q2", "q3"}, BatchOptions{
		Specialist:     domain.SpecialistSmart,
		ConversationID: "batch",
		Delay:          noDelay,
	})

	require.Len(t, results, 3)
	assert.Equal(t, []string{"q1", "q2", "q3"}, []string{results[0].Query, results[1].Query, results[2].Query})

	assert.True(t, results[0].Success)
	assert.Equal(t, "answer 1", results[0].Reply.Text)
	assert.Equal(t, domain.SpecialistCoder, results[0].Reply.Specialist)

	assert.False(t, results[1].Success)
	assert.Equal(t, domain.FallbackRateLimited, results[1].Reply.Text)
	assert.NotEmpty(t, results[1].Error)

	assert.True(t, results[2].Success)
	assert.Equal(t, "answer 3", results[2].Reply.Text)
	assert.Equal(t, 3, c.calls)
}

func TestBatchProcessSpecialistModes(t *testing.T) {
	tests := []struct {
		name           string
		specialist     string
		wantSpecialist string
		wantCalls      int
	}{
		{name: "registered", specialist: domain.SpecialistTutor, wantSpecialist: domain.SpecialistTutor},
		{name: "unknown", specialist: "astrologer", wantSpecialist: domain.SpecialistDefault},
		{name: "empty", wantSpecialist: domain.SpecialistDefault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &stubClassifier{result: domain.Classification{Specialist: domain.SpecialistCoder}}
			r := newTestRouter(t, c, &stubGenerator{})

			results := r.BatchProcess(context.Background(), []string{"a", "b"}, BatchOptions{Specialist: tt.specialist, Delay: noDelay})

			require.Len(t, results, 2)
			for _, res := range results {
				assert.True(t, res.Success)
				assert.Equal(t, tt.wantSpecialist, res.Reply.Specialist)
			}
			assert.Equal(t, tt.wantCalls, c.calls)
		})
	}
}

func TestBatchProcessBlankAndCancelled(t *testing.T) {
	r := newTestRouter(t, &stubClassifier{}, &stubGenerator{})

	results := r.BatchProcess(context.Background(), []string{"   "}, BatchOptions{Specialist: domain.SpecialistDefault, Delay: noDelay})
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Nil(t, results[0].Reply)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results = r.BatchProcess(ctx, []string{"a", "b"}, BatchOptions{Specialist: domain.SpecialistDefault, Delay: noDelay})
	require.Len(t, results, 2)
	assert.False(t, results[0].Success)
	assert.False(t, results[1].Success)
}

func TestBatchProcessDelay(t *testing.T) {
	queries := []string{"a", "b", "c"}
	short := 20 * time.Millisecond

	tests := []struct {
		name    string
		delay   *time.Duration
		atLeast time.Duration
	}{
		{name: "unset uses default", atLeast: 2 * DefaultBatchDelay},
		{name: "explicit", delay: &short, atLeast: 2 * short},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(t, &stubClassifier{}, &stubGenerator{})

			start := time.Now()
			results := r.BatchProcess(context.Background(), queries, BatchOptions{Specialist: domain.SpecialistDefault, Delay: tt.delay})
			elapsed := time.Since(start)

			require.Len(t, results, len(queries))
			assert.GreaterOrEqual(t, elapsed, tt.atLeast)
		})
	}
}

func TestBatchProcessZeroDelayDoesNotWait(t *testing.T) {
	r := newTestRouter(t, &stubClassifier{}, &stubGenerator{})

	start := time.Now()
	results := r.BatchProcess(context.Background(), []string{"a", "b", "c"}, BatchOptions{Specialist: domain.SpecialistDefault, Delay: noDelay})

	require.Len(t, results, 3)
	assert.Less(t, time.Since(start), DefaultBatchDelay)
}
