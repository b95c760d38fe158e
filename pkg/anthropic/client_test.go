package anthropic

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id":"msg_1","type":"message","role":"assistant","model":"claude-sonnet-4-5-20250929",
			"content":[{"type":"text","text":"The deal closed in March."}],
			"stop_reason":"end_turn",
			"usage":{"input_tokens":100,"output_tokens":12}
		}`))
	}))
	t.Cleanup(srv.Close)

	c := NewClient("test-key", Config{}, WithBaseURL(srv.URL))

	answer, err := c.Complete(context.Background(), "When did the deal close?")
	require.NoError(t, err)
	assert.Equal(t, "The deal closed in March.", answer)
}

func TestCompleteUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad prompt"}}`))
	}))
	t.Cleanup(srv.Close)

	c := NewClient("test-key", Config{}, WithBaseURL(srv.URL))

	_, err := c.Complete(context.Background(), "")
	require.Error(t, err)
}
