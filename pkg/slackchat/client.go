// Package slackchat wraps the Slack Web API operations the bot uses.
package slackchat

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/slack-go/slack"
)

// Identity is the calling service's own Slack identity.
type Identity struct {
	UserID string
	BotID  string
}

// Channel is the subset of channel metadata the orchestrator needs.
type Channel struct {
	ID        string
	Name      string
	IsPrivate bool
}

// Message is one channel or thread message.
type Message struct {
	User        string
	Text        string
	Timestamp   string
	FromBot     bool
	ThreadReply bool
}

// Client defines the chat backend operations used by the orchestrator.
type Client interface {
	Identity(ctx context.Context) (*Identity, error)
	ChannelInfo(ctx context.Context, channelID string) (*Channel, error)
	History(ctx context.Context, channelID string, limit int) ([]Message, error)
	Replies(ctx context.Context, channelID, threadTS string, limit int) ([]Message, error)
	PostMessage(ctx context.Context, channelID, threadTS, text string) error
}

// Option configures the apiClient.
type Option func(*apiClient)

// WithAPIURL overrides the Slack API base URL (tests).
func WithAPIURL(url string) Option {
	return func(c *apiClient) {
		c.apiURL = url
	}
}

// apiClient implements Client by wrapping a *slack.Client.
type apiClient struct {
	inner  *slack.Client
	apiURL string
}

// NewClient creates a Slack client with the given bot token.
func NewClient(token string, opts ...Option) Client {
	c := &apiClient{}
	for _, opt := range opts {
		opt(c)
	}

	sdkOpts := []slack.Option{}
	if c.apiURL != "" {
		sdkOpts = append(sdkOpts, slack.OptionAPIURL(c.apiURL))
	}
	c.inner = slack.New(token, sdkOpts...)
	return c
}

func (c *apiClient) Identity(ctx context.Context) (*Identity, error) {
	resp, err := c.inner.AuthTestContext(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "slack: auth test")
	}
	return &Identity{UserID: resp.UserID, BotID: resp.BotID}, nil
}

func (c *apiClient) ChannelInfo(ctx context.Context, channelID string) (*Channel, error) {
	ch, err := c.inner.GetConversationInfoContext(ctx, &slack.GetConversationInfoInput{
		ChannelID: channelID,
	})
	if err != nil {
		return nil, eris.Wrap(err, "slack: get channel info")
	}
	return &Channel{ID: ch.ID, Name: ch.Name, IsPrivate: ch.IsPrivate}, nil
}

// History returns recent human messages, oldest first. Bot and system
// messages are filtered before the count cap, so the cap always yields
// limit human messages when the channel has them.
func (c *apiClient) History(ctx context.Context, channelID string, limit int) ([]Message, error) {
	resp, err := c.inner.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
		ChannelID: channelID,
		Limit:     200,
	})
	if err != nil {
		return nil, eris.Wrap(err, "slack: get channel history")
	}

	msgs := filterHuman(resp.Messages)
	if len(msgs) > limit {
		msgs = msgs[:limit]
	}
	reverse(msgs) // Slack returns newest first
	return msgs, nil
}

func (c *apiClient) Replies(ctx context.Context, channelID, threadTS string, limit int) ([]Message, error) {
	raw, _, _, err := c.inner.GetConversationRepliesContext(ctx, &slack.GetConversationRepliesParameters{
		ChannelID: channelID,
		Timestamp: threadTS,
		Limit:     limit,
	})
	if err != nil {
		return nil, eris.Wrap(err, "slack: get thread replies")
	}

	msgs := make([]Message, 0, len(raw))
	for _, m := range raw {
		msgs = append(msgs, fromSDKMessage(m, true))
	}
	return msgs, nil
}

func (c *apiClient) PostMessage(ctx context.Context, channelID, threadTS, text string) error {
	opts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if threadTS != "" {
		opts = append(opts, slack.MsgOptionTS(threadTS))
	}

	if _, _, err := c.inner.PostMessageContext(ctx, channelID, opts...); err != nil {
		return eris.Wrap(err, "slack: post message")
	}
	return nil
}

// filterHuman drops bot messages and channel events (joins, topic changes).
func filterHuman(raw []slack.Message) []Message {
	msgs := make([]Message, 0, len(raw))
	for _, m := range raw {
		if m.BotID != "" || m.SubType != "" {
			continue
		}
		msgs = append(msgs, fromSDKMessage(m, false))
	}
	return msgs
}

func fromSDKMessage(m slack.Message, threadReply bool) Message {
	return Message{
		User:        m.User,
		Text:        m.Text,
		Timestamp:   m.Timestamp,
		FromBot:     m.BotID != "",
		ThreadReply: threadReply,
	}
}

func reverse(msgs []Message) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}
