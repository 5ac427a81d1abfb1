package specialist

import (
	"testing"

	"github.com/dskvich/simba-ai/pkg/domain"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinRegistry(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	tests := []struct {
		key         string
		temperature float64
		maxTokens   int
		voice       string
	}{
		{domain.SpecialistDefault, 0.7, 500, "alloy"},
		{domain.SpecialistCreative, 0.9, 800, "nova"},
		{domain.SpecialistCoder, 0.3, 1200, "echo"},
		{domain.SpecialistBusiness, 0.4, 600, "onyx"},
		{domain.SpecialistTutor, 0.6, 700, "shimmer"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			s, ok := r.Get(tt.key)
			require.True(t, ok)
			assert.Equal(t, tt.temperature, s.Temperature)
			assert.Equal(t, tt.maxTokens, s.MaxTokens)
			assert.Equal(t, tt.voice, s.Voice)
			assert.NotEmpty(t, s.SystemPrompt)
		})
	}

	analytical, ok := r.Get(domain.SpecialistAnalytical)
	require.True(t, ok)
	assert.True(t, analytical.Internal)
	assert.Equal(t, 0.3, analytical.Temperature)
}

func TestRoutableOrderAndExposure(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	keys := lo.Map(r.Routable(), func(s domain.Specialist, _ int) string { return s.Key })
	assert.Equal(t, []string{"creative", "coder", "business", "tutor"}, keys)

	exposed := lo.Map(r.Exposed(), func(s domain.Specialist, _ int) string { return s.Key })
	assert.NotContains(t, exposed, domain.SpecialistAnalytical)
	assert.Contains(t, exposed, domain.SpecialistDefault)

	assert.False(t, r.IsExposed(domain.SpecialistAnalytical))
	assert.True(t, r.IsExposed(domain.SpecialistCoder))
}

func TestResolveFallsBackToDefault(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	_, ok := r.Get("pirate")
	assert.False(t, ok)
	assert.Equal(t, domain.SpecialistDefault, r.Resolve("pirate").Key)
	assert.Equal(t, "💻 hello", r.FormatReply(domain.SpecialistCoder, "hello"))
}

func TestParseRejectsInvalidEntries(t *testing.T) {
	tests := map[string]string{
		"no default":      "- {key: coder, system_prompt: x, temperature: 0.3, max_tokens: 10}",
		"temperature":     "- {key: default, system_prompt: x, temperature: 1.5, max_tokens: 10}",
		"max tokens":      "- {key: default, system_prompt: x, temperature: 0.5, max_tokens: 0}",
		"reserved key":    "- {key: smart, system_prompt: x, temperature: 0.5, max_tokens: 10}",
		"duplicate":       "- {key: default, system_prompt: x, temperature: 0.5, max_tokens: 10}\n- {key: default, system_prompt: y, temperature: 0.5, max_tokens: 10}",
		"not a yaml list": "key: default",
		"empty prompt":    "- {key: default, system_prompt: '', temperature: 0.5, max_tokens: 10}",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}
