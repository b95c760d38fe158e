// Package threadcache stores prior question/answer turns per conversation
// thread, so follow-up questions reuse the already-resolved deal.
package threadcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/dealbot/internal/kvstore"
)

// DefaultTTL is how long a thread context lives after its last write.
const DefaultTTL = 24 * time.Hour

// Message is one turn in a thread conversation.
type Message struct {
	Speaker     string `json:"speaker"` // "user" or "bot"
	Text        string `json:"text"`
	TimestampMs int64  `json:"timestampMs"`
}

// Context is the cached state of one thread.
type Context struct {
	Messages      []Message `json:"messages"`
	DealID        string    `json:"dealId"`
	LastUpdatedMs int64     `json:"lastUpdatedMs"`
}

// Cache is a TTL-bounded store of thread contexts keyed by
// (channelID, threadID). Every write resets the TTL clock.
type Cache struct {
	kv  kvstore.Store
	ttl time.Duration

	now func() time.Time
}

// New creates a Cache. ttl <= 0 uses DefaultTTL.
func New(kv kvstore.Store, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{kv: kv, ttl: ttl, now: time.Now}
}

// Key composes the storage key. Stable and collision-free across channels:
// thread IDs are Slack message timestamps and never contain ':'.
func Key(channelID, threadID string) string {
	return fmt.Sprintf("thread:%s:%s", channelID, threadID)
}

// Get returns the context for a thread, or nil if none exists (or it
// expired).
func (c *Cache) Get(ctx context.Context, channelID, threadID string) (*Context, error) {
	raw, err := c.kv.Get(ctx, Key(channelID, threadID))
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var tc Context
	if err := json.Unmarshal([]byte(raw), &tc); err != nil {
		// A corrupt entry is treated as a miss; the next Put overwrites it.
		zap.L().Warn("threadcache: dropping corrupt entry",
			zap.String("channel", channelID),
			zap.String("thread", threadID),
			zap.Error(err),
		)
		return nil, nil
	}
	return &tc, nil
}

// Put stores a context for a thread, resetting its TTL.
func (c *Cache) Put(ctx context.Context, channelID, threadID string, tc *Context) error {
	tc.LastUpdatedMs = c.now().UnixMilli()

	raw, err := json.Marshal(tc)
	if err != nil {
		return eris.Wrap(err, "threadcache: marshal context")
	}
	return c.kv.Set(ctx, Key(channelID, threadID), string(raw), c.ttl)
}

// Append adds a message to an existing thread context and refreshes its
// TTL. Returns nil (and writes nothing) if no context exists yet; the
// first turn must Put.
func (c *Cache) Append(ctx context.Context, channelID, threadID string, msg Message) (*Context, error) {
	tc, err := c.Get(ctx, channelID, threadID)
	if err != nil {
		return nil, err
	}
	if tc == nil {
		return nil, nil
	}

	tc.Messages = append(tc.Messages, msg)
	if err := c.Put(ctx, channelID, threadID, tc); err != nil {
		return nil, err
	}
	return tc, nil
}

// Delete removes a thread context. Expiry normally handles cleanup; this
// exists for tests and operator tooling.
func (c *Cache) Delete(ctx context.Context, channelID, threadID string) error {
	return c.kv.Del(ctx, Key(channelID, threadID))
}
