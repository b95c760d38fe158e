// Package orchestrator runs the four-phase aggregation pipeline that turns
// a channel question into an answer grounded in CRM and chat context.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/dealbot/internal/deal"
	"github.com/sells-group/dealbot/internal/threadcache"
	"github.com/sells-group/dealbot/internal/timeline"
	"github.com/sells-group/dealbot/pkg/anthropic"
	"github.com/sells-group/dealbot/pkg/hubspot"
	"github.com/sells-group/dealbot/pkg/slackchat"
)

// User-visible messages. Every terminal failure produces exactly one of
// these; diagnostic detail stays in the logs.
const (
	progressNotice = "Still working on it — pulling deal context from the CRM…"
	apologyMessage = "Sorry, I hit a problem pulling the deal context together. Please try again in a minute."
)

var (
	contactProperties = []string{"firstname", "lastname", "email", "jobtitle"}
	companyProperties = []string{"name", "domain"}
)

// Config tunes the pipeline.
type Config struct {
	SoftDeadline     time.Duration
	TimelineMaxItems int
	HistoryMaxItems  int
	DealSearchLimit  int
}

// Request is one parsed inbound question. Webhook verification and command
// parsing happen upstream; the orchestrator receives the result.
type Request struct {
	ChannelID string
	ThreadTS  string // set when asked inside an existing thread
	EventTS   string // timestamp of the triggering message
	UserID    string
	Question  string
}

// replyThread is where responses go: the existing thread, else a new
// thread rooted at the triggering message.
func (r Request) replyThread() string {
	if r.ThreadTS != "" {
		return r.ThreadTS
	}
	return r.EventTS
}

// Orchestrator coordinates the collaborators. All dependencies are
// injected so tests can substitute fakes.
type Orchestrator struct {
	cfg     Config
	tokens  hubspot.TokenSource
	crm     hubspot.Client
	chat    slackchat.Client
	llm     anthropic.Client
	threads *threadcache.Cache
}

// New creates an Orchestrator.
func New(cfg Config, tokens hubspot.TokenSource, crm hubspot.Client, chat slackchat.Client, llm anthropic.Client, threads *threadcache.Cache) *Orchestrator {
	if cfg.SoftDeadline <= 0 {
		cfg.SoftDeadline = 45 * time.Second
	}
	if cfg.DealSearchLimit <= 0 {
		cfg.DealSearchLimit = 5
	}
	if cfg.HistoryMaxItems <= 0 {
		cfg.HistoryMaxItems = 50
	}
	return &Orchestrator{cfg: cfg, tokens: tokens, crm: crm, chat: chat, llm: llm, threads: threads}
}

// Handle runs the pipeline for one request. It is the error boundary: any
// failure escaping the phases is logged and converted into one apologetic
// message; nothing propagates to the webhook handler, which has already
// acknowledged receipt. A soft-deadline notifier races the pipeline and
// posts a one-shot progress notice without cancelling the work.
func (o *Orchestrator) Handle(ctx context.Context, req Request) {
	log := zap.L().With(
		zap.String("request_id", uuid.NewString()),
		zap.String("channel", req.ChannelID),
	)

	done := make(chan struct{})
	go notifyAfter(done, o.cfg.SoftDeadline, func() {
		log.Warn("orchestrator: soft deadline exceeded, notifying user")
		if err := o.chat.PostMessage(ctx, req.ChannelID, req.replyThread(), progressNotice); err != nil {
			log.Error("orchestrator: failed to post progress notice", zap.Error(err))
		}
	})

	start := time.Now()
	err := o.run(ctx, req, log)
	close(done)

	if err != nil {
		log.Error("orchestrator: pipeline failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		if postErr := o.chat.PostMessage(ctx, req.ChannelID, req.replyThread(), apologyMessage); postErr != nil {
			log.Error("orchestrator: failed to post failure message", zap.Error(postErr))
		}
		return
	}

	log.Info("orchestrator: pipeline complete", zap.Duration("elapsed", time.Since(start)))
}

func (o *Orchestrator) run(ctx context.Context, req Request, log *zap.Logger) error {
	// ===== Phase 1: Setup =====
	var (
		identity *slackchat.Identity
		channel  *slackchat.Channel
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		id, err := o.chat.Identity(gCtx)
		if err != nil {
			return err
		}
		identity = id
		return nil
	})
	g.Go(func() error {
		ch, err := o.chat.ChannelInfo(gCtx, req.ChannelID)
		if err != nil {
			return err
		}
		channel = ch
		return nil
	})
	g.Go(func() error {
		// Warm the credential so phase 2+ CRM calls hold a valid token.
		_, err := o.tokens.Token(gCtx)
		return err
	})
	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "orchestrator: setup")
	}
	log.Debug("orchestrator: setup complete",
		zap.String("bot_user", identity.UserID),
		zap.String("channel_name", channel.Name),
	)

	// ===== Phase 2: Deal resolution =====
	query := DeriveQuery(channel.Name)

	var (
		searchResults []hubspot.Object
		history       []slackchat.Message
	)

	g, gCtx = errgroup.WithContext(ctx)
	g.Go(func() error {
		results, err := o.crm.SearchDeals(gCtx, hubspot.SearchRequest{
			Query:      query,
			Properties: deal.Properties,
			Limit:      o.cfg.DealSearchLimit,
		})
		if err != nil {
			return err
		}
		searchResults = results
		return nil
	})
	if !channel.IsPrivate {
		g.Go(func() error {
			msgs, err := o.chat.History(gCtx, req.ChannelID, o.cfg.HistoryMaxItems)
			if err != nil {
				return err
			}
			history = msgs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "orchestrator: deal resolution")
	}

	d := deal.Select(searchResults)
	if d == nil {
		// Typed outcome, not an error: the pipeline ends here with a
		// specific message and no further phases.
		log.Info("orchestrator: no deal found", zap.String("query", query))
		return o.chat.PostMessage(ctx, req.ChannelID, req.replyThread(), fmt.Sprintf("No deal found matching %q.", query))
	}
	log.Info("orchestrator: resolved deal", zap.String("deal_id", d.ID), zap.String("deal_name", d.Name))

	// ===== Phase 3: Data fetch =====
	kinds := ClassifyQuestion(req.Question)

	b := &bundle{deal: d, history: history, question: req.Question}
	var emails, calls, meetings, notes []hubspot.Object

	g, gCtx = errgroup.WithContext(ctx)

	if d.OwnerID != "" {
		g.Go(func() error {
			owner, err := o.crm.Owner(gCtx, d.OwnerID)
			if err != nil {
				return err
			}
			if owner != nil {
				b.ownerName = owner.FullName()
			}
			return nil
		})
	}

	g.Go(func() error {
		assoc := deal.ResolveAssociations(gCtx, o.crm, d.ID)

		contacts, err := o.crm.BatchRead(gCtx, "contacts", assoc.ContactIDs, contactProperties)
		if err != nil {
			return err
		}
		b.contacts = contacts

		companies, err := o.crm.BatchRead(gCtx, "companies", assoc.CompanyIDs, companyProperties)
		if err != nil {
			return err
		}
		b.companies = companies
		return nil
	})

	// Per-kind activity fetches tolerate failure: a missing collection
	// degrades the timeline instead of killing the answer.
	fetchKind := func(objectType string, properties []string, out *[]hubspot.Object) func() error {
		return func() error {
			ids, err := o.crm.Associations(gCtx, "deals", d.ID, objectType)
			if err != nil {
				log.Warn("orchestrator: activity associations unavailable",
					zap.String("kind", objectType), zap.Error(err))
				return nil
			}
			records, err := o.crm.BatchRead(gCtx, objectType, ids, properties)
			if err != nil {
				log.Warn("orchestrator: activity fetch failed",
					zap.String("kind", objectType), zap.Error(err))
				return nil
			}
			*out = records
			return nil
		}
	}

	if kinds.Emails {
		g.Go(fetchKind("emails", timeline.EmailProperties, &emails))
	}
	if kinds.Calls {
		g.Go(fetchKind("calls", timeline.CallProperties, &calls))
	}
	if kinds.Meetings {
		g.Go(fetchKind("meetings", timeline.MeetingProperties, &meetings))
	}
	if kinds.Notes {
		g.Go(fetchKind("notes", timeline.NoteProperties, &notes))
	}

	g.Go(func() error {
		tc, err := o.threads.Get(gCtx, req.ChannelID, req.replyThread())
		if err != nil {
			log.Warn("orchestrator: thread cache unavailable", zap.Error(err))
			return nil
		}
		if tc == nil && req.ThreadTS != "" {
			// Cache miss inside a live thread: rebuild context from the
			// thread's own replies.
			replies, err := o.chat.Replies(gCtx, req.ChannelID, req.ThreadTS, o.cfg.HistoryMaxItems)
			if err != nil {
				log.Warn("orchestrator: thread replies unavailable", zap.Error(err))
				return nil
			}
			tc = contextFromReplies(replies, d.ID)
		}
		b.thread = tc
		return nil
	})

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "orchestrator: data fetch")
	}

	b.timeline = timeline.Merge(emails, calls, meetings, notes, o.cfg.TimelineMaxItems)

	// ===== Phase 4: Synthesis =====
	answer, err := o.llm.Complete(ctx, buildPrompt(b))
	if err != nil {
		return eris.Wrap(err, "orchestrator: synthesis")
	}

	if err := o.chat.PostMessage(ctx, req.ChannelID, req.replyThread(), answer); err != nil {
		return eris.Wrap(err, "orchestrator: post answer")
	}

	o.recordTurn(ctx, req, d.ID, answer, b.thread, log)
	return nil
}

// recordTurn writes the question/answer pair back to the thread cache.
// Failures here degrade follow-up quality but never the delivered answer.
func (o *Orchestrator) recordTurn(ctx context.Context, req Request, dealID, answer string, existing *threadcache.Context, log *zap.Logger) {
	now := time.Now().UnixMilli()
	userMsg := threadcache.Message{Speaker: "user", Text: req.Question, TimestampMs: now}
	botMsg := threadcache.Message{Speaker: "bot", Text: answer, TimestampMs: now}

	if existing != nil {
		tc, err := o.threads.Append(ctx, req.ChannelID, req.replyThread(), userMsg)
		if err != nil {
			log.Warn("orchestrator: failed to record turn", zap.Error(err))
			return
		}
		if tc != nil {
			if _, err := o.threads.Append(ctx, req.ChannelID, req.replyThread(), botMsg); err != nil {
				log.Warn("orchestrator: failed to record turn", zap.Error(err))
			}
			return
		}
		// Append was a no-op: the context was rebuilt from live replies
		// after the cached entry expired, so no key exists to append to.
		// Fall through and write the whole context.
	}

	tc := &threadcache.Context{DealID: dealID}
	if existing != nil {
		tc.Messages = append(tc.Messages, existing.Messages...)
	}
	tc.Messages = append(tc.Messages, userMsg, botMsg)
	if err := o.threads.Put(ctx, req.ChannelID, req.replyThread(), tc); err != nil {
		log.Warn("orchestrator: failed to record turn", zap.Error(err))
	}
}

// contextFromReplies synthesizes a thread context from live thread replies
// when the cache has expired.
func contextFromReplies(replies []slackchat.Message, dealID string) *threadcache.Context {
	if len(replies) == 0 {
		return nil
	}

	tc := &threadcache.Context{DealID: dealID}
	for _, m := range replies {
		speaker := "user"
		if m.FromBot {
			speaker = "bot"
		}
		tc.Messages = append(tc.Messages, threadcache.Message{Speaker: speaker, Text: m.Text})
	}
	return tc
}
