package messaging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	payload := &TableLoadedMessage{LoadID: "load-1", Table: "objects", Rows: 130000}
	msg, err := NewMessage("msg-1", MessageTypeTableLoaded, payload)
	require.NoError(t, err)

	assert.Equal(t, "msg-1", msg.ID)
	assert.Equal(t, MessageTypeTableLoaded, msg.Type)
	assert.False(t, msg.CreatedAt.IsZero())

	var decoded TableLoadedMessage
	require.NoError(t, msg.UnmarshalPayload(&decoded))
	assert.Equal(t, "objects", decoded.Table)
	assert.Equal(t, int64(130000), decoded.Rows)
}

func TestMessage_Metadata(t *testing.T) {
	msg := &Message{}
	assert.Empty(t, msg.GetMetadata("retry_count"))

	msg.SetMetadata("retry_count", "2")
	assert.Equal(t, "2", msg.GetMetadata("retry_count"))
}

func TestStream_DLQStream(t *testing.T) {
	assert.Equal(t, "dlq:stream:catalog:events", StreamCatalogEvents.DLQStream())
}

func TestBackoffConfig_CalculateBackoff(t *testing.T) {
	cfg := BackoffConfig{Initial: time.Second, Max: 10 * time.Second, Multiplier: 2}

	tests := []struct {
		retry int
		want  time.Duration
	}{
		{retry: 0, want: time.Second},
		{retry: 1, want: 2 * time.Second},
		{retry: 2, want: 4 * time.Second},
		{retry: 3, want: 8 * time.Second},
		{retry: 4, want: 10 * time.Second},
		{retry: 8, want: 10 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, cfg.CalculateBackoff(tt.retry), "retry %d", tt.retry)
	}
}
