package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, KindNone},
		{"auth", fmt.Errorf("%w: invalid key", ErrAuthentication), KindAuthentication},
		{"rate", fmt.Errorf("calling api: %w", ErrRateLimited), KindRateLimited},
		{"malformed", ErrMalformedRequest, KindMalformedRequest},
		{"parse", fmt.Errorf("%w: not json", ErrParse), KindParse},
		{"deadline", context.DeadlineExceeded, KindTransport},
		{"unknown", errors.New("boom"), KindTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestFallbackTextIsDistinctPerKind(t *testing.T) {
	seen := map[string]ErrorKind{}
	for _, kind := range []ErrorKind{KindAuthentication, KindRateLimited, KindMalformedRequest, KindTransport} {
		text := FallbackText(kind)
		assert.NotEmpty(t, text)
		if prev, ok := seen[text]; ok {
			t.Fatalf("kinds %s and %s share fallback %q", prev, kind, text)
		}
		seen[text] = kind
	}
	assert.Equal(t, FallbackTransport, FallbackText(KindParse))
}
