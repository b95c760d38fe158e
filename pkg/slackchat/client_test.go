package slackchat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("xoxb-test", WithAPIURL(srv.URL+"/"))
}

func TestIdentity(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth.test", r.URL.Path)
		w.Write([]byte(`{"ok":true,"user_id":"U123","bot_id":"B456"}`))
	})

	id, err := c.Identity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "U123", id.UserID)
	assert.Equal(t, "B456", id.BotID)
}

func TestChannelInfo(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/conversations.info", r.URL.Path)
		w.Write([]byte(`{"ok":true,"channel":{"id":"C1","name":"deal-acme-corp","is_private":false}}`))
	})

	ch, err := c.ChannelInfo(context.Background(), "C1")
	require.NoError(t, err)
	assert.Equal(t, "deal-acme-corp", ch.Name)
	assert.False(t, ch.IsPrivate)
}

func TestHistoryFiltersBotsBeforeCap(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/conversations.history", r.URL.Path)
		// Newest first, as Slack returns them.
		w.Write([]byte(`{"ok":true,"messages":[
			{"type":"message","user":"U2","text":"latest human","ts":"4.0"},
			{"type":"message","bot_id":"B1","text":"bot reply","ts":"3.0"},
			{"type":"message","subtype":"channel_join","user":"U3","text":"joined","ts":"2.5"},
			{"type":"message","user":"U1","text":"older human","ts":"2.0"},
			{"type":"message","user":"U1","text":"oldest human","ts":"1.0"}
		]}`))
	})

	msgs, err := c.History(context.Background(), "C1", 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	// Filter first, then cap, then oldest-first ordering.
	assert.Equal(t, "older human", msgs[0].Text)
	assert.Equal(t, "latest human", msgs[1].Text)
}

func TestReplies(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/conversations.replies", r.URL.Path)
		w.Write([]byte(`{"ok":true,"messages":[
			{"type":"message","user":"U1","text":"root","ts":"1.0"},
			{"type":"message","user":"U2","text":"reply","ts":"2.0"}
		]}`))
	})

	msgs, err := c.Replies(context.Background(), "C1", "1.0", 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.True(t, msgs[0].ThreadReply)
}

func TestPostMessage(t *testing.T) {
	var gotThread string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat.postMessage", r.URL.Path)
		require.NoError(t, r.ParseForm())
		gotThread = r.PostForm.Get("thread_ts")
		assert.Equal(t, "C1", r.PostForm.Get("channel"))
		w.Write([]byte(`{"ok":true,"channel":"C1","ts":"5.0"}`))
	})

	require.NoError(t, c.PostMessage(context.Background(), "C1", "1.0", "hello"))
	assert.Equal(t, "1.0", gotThread)
}

func TestPostMessageAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"error":"channel_not_found"}`))
	})

	err := c.PostMessage(context.Background(), "C404", "", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel_not_found")
}
