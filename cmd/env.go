package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/dealbot/internal/auth"
	"github.com/sells-group/dealbot/internal/kvstore"
	"github.com/sells-group/dealbot/internal/orchestrator"
	"github.com/sells-group/dealbot/internal/threadcache"
	"github.com/sells-group/dealbot/pkg/anthropic"
	"github.com/sells-group/dealbot/pkg/hubspot"
	"github.com/sells-group/dealbot/pkg/slackchat"
)

// env wires the configured collaborators together for the commands.
type env struct {
	kv   kvstore.Store
	auth *auth.Manager
	crm  hubspot.Client
	chat slackchat.Client
	orch *orchestrator.Orchestrator
}

func initEnv(ctx context.Context) (*env, error) {
	kv, err := kvstore.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, eris.Wrap(err, "init kv store")
	}

	creds := auth.NewCredentialStore(kv, "hubspot")
	oauth := hubspot.NewOAuthClient(hubspot.OAuthConfig{
		ClientID:     cfg.HubSpot.ClientID,
		ClientSecret: cfg.HubSpot.ClientSecret,
		BaseURL:      cfg.HubSpot.BaseURL,
	})
	manager := auth.NewManager(creds, oauth, cfg.HubSpot.RefreshBuffer(), cfg.HubSpot.StaticToken)

	crm := hubspot.NewClient(manager,
		hubspot.WithBaseURL(cfg.HubSpot.BaseURL),
		hubspot.WithRateLimit(cfg.HubSpot.RateLimitRPS),
		hubspot.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.HubSpot.TimeoutSecs) * time.Second,
		}),
	)

	chat := slackchat.NewClient(cfg.Slack.BotToken)

	llm := anthropic.NewClient(cfg.Anthropic.Key, anthropic.Config{
		Model:     cfg.Anthropic.Model,
		MaxTokens: int64(cfg.Anthropic.MaxTokens),
		Timeout:   time.Duration(cfg.Anthropic.TimeoutSecs) * time.Second,
	})

	threads := threadcache.New(kv, time.Duration(cfg.Orchestrator.ThreadTTLHours)*time.Hour)

	orch := orchestrator.New(orchestrator.Config{
		SoftDeadline:     time.Duration(cfg.Orchestrator.SoftDeadlineSecs) * time.Second,
		TimelineMaxItems: cfg.Orchestrator.TimelineMaxItems,
		HistoryMaxItems:  cfg.Orchestrator.HistoryMaxItems,
		DealSearchLimit:  cfg.Orchestrator.DealSearchLimit,
	}, manager, crm, chat, llm, threads)

	return &env{
		kv:   kv,
		auth: manager,
		crm:  crm,
		chat: chat,
		orch: orch,
	}, nil
}

func (e *env) Close() {
	_ = e.kv.Close()
}
