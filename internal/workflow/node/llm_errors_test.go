package node

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTransientLLMError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "canceled is caller intent", err: context.Canceled, want: false},
		{name: "wrapped cancel", err: fmt.Errorf("generate: %w", context.Canceled), want: false},
		{name: "deadline exceeded", err: context.DeadlineExceeded, want: true},
		{name: "client timeout", err: errors.New("Post \"https://api.openai.com/v1/chat/completions\": context deadline exceeded (Client.Timeout exceeded)"), want: true},
		{name: "rate limited", err: errors.New("rate limit reached for gpt-4o-mini"), want: true},
		{name: "http 429", err: errors.New("error, status code: 429, message: Too Many Requests"), want: true},
		{name: "http 500", err: errors.New("error, status code: 500, message: internal error"), want: true},
		{name: "http 503", err: errors.New("error, status code: 503, message: overloaded"), want: true},
		{name: "connection refused", err: errors.New("dial tcp 127.0.0.1:11434: connect: connection refused"), want: true},
		{name: "connection reset", err: errors.New("read tcp: connection reset by peer"), want: true},
		{name: "truncated response", err: errors.New("unexpected EOF"), want: true},
		{name: "auth failure is permanent", err: errors.New("error, status code: 401, message: invalid api key"), want: false},
		{name: "bad request is permanent", err: errors.New("error, status code: 400, message: model not found"), want: false},
		{name: "plain failure is permanent", err: errors.New("invalid api key"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransientLLMError(tt.err))
		})
	}
}

func TestTruncateByRunes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "shorter than limit", in: "seascape", max: 20, want: "seascape"},
		{name: "exactly at limit", in: "monet", max: 5, want: "monet"},
		{name: "truncated at limit", in: "impressionism", max: 7, want: "impress"},
		{name: "multibyte runes kept whole", in: "莫奈的睡莲系列", max: 3, want: "莫奈的"},
		{name: "non positive limit empties", in: "monet", max: 0, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TruncateByRunes(tt.in, tt.max))
		})
	}
}
