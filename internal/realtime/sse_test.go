package realtime

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsinfi/prompt-with-friends-backend/internal/model"
	"github.com/itsinfi/prompt-with-friends-backend/internal/storage/memory"
	"github.com/itsinfi/prompt-with-friends-backend/internal/testutil"
)

func TestFormatSSEMessage(t *testing.T) {
	tests := []struct {
		name     string
		event    string
		data     string
		expected string
	}{
		{
			name:     "single line data",
			event:    "timer",
			data:     `{"time":5}`,
			expected: "event: timer\ndata: {\"time\":5}\n\n",
		},
		{
			name:     "multi-line data",
			event:    "updateSession",
			data:     "{\n  \"a\": 1\n}",
			expected: "event: updateSession\ndata: {\ndata:   \"a\": 1\ndata: }\n\n",
		},
		{
			name:     "empty data",
			event:    "ping",
			data:     "",
			expected: "event: ping\ndata: \n\n",
		},
		{
			name:     "data with carriage returns",
			event:    "test",
			data:     "line1\r\nline2",
			expected: "event: test\ndata: line1\ndata: line2\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(formatSSEMessage(tt.event, tt.data)))
		})
	}
}

func TestSSEClientEmitEncodesJSON(t *testing.T) {
	client := NewSSEClient(testutil.NopLogger())
	assert.True(t, strings.HasPrefix(client.ID(), "sse-"))

	client.Emit("timer", model.TimerPayload{Time: 9})

	select {
	case msg := <-client.send:
		assert.Equal(t, "event: timer\ndata: {\"time\":9}\n\n", string(msg))
	default:
		t.Fatal("expected a queued message")
	}
}

func TestSSEClientDropsWhenBufferFull(t *testing.T) {
	client := NewSSEClient(testutil.NopLogger())
	for i := 0; i < sendBufferSize+10; i++ {
		client.Emit("timer", model.TimerPayload{Time: i})
	}
	assert.Len(t, client.send, sendBufferSize)
}

func TestServeSSEStreamsGroupBroadcasts(t *testing.T) {
	gateway := New(memory.New(), testutil.NopLogger())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeSSE(w, r, gateway, "AB12CD")
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: connected\n", line)

	require.Eventually(t, func() bool { return gateway.GroupSize("AB12CD") == 1 }, time.Second, 5*time.Millisecond)
	gateway.BroadcastTimer("AB12CD", 3)

	var got []string
	for len(got) < 2 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "event: timer") || strings.HasPrefix(line, "data: {\"time\"") {
			got = append(got, strings.TrimSpace(line))
		}
	}
	assert.Equal(t, []string{"event: timer", `data: {"time":3}`}, got)

	cancel()
	require.Eventually(t, func() bool { return gateway.GroupSize("AB12CD") == 0 }, time.Second, 5*time.Millisecond)
}
