package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"regexp"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/dealbot/internal/orchestrator"
)

var servePort int

// Slack renders mentions as "<@U123ABC>"; the bot's own mention carries no
// question content.
var mentionPattern = regexp.MustCompile(`<@[A-Z0-9]+>`)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Slack events server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
		}))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		})

		r.Post("/slack/events", func(w http.ResponseWriter, req *http.Request) {
			body, err := io.ReadAll(req.Body)
			if err != nil {
				http.Error(w, "read body", http.StatusBadRequest)
				return
			}

			if cfg.Slack.SigningSecret != "" {
				if err := verifySignature(req.Header, cfg.Slack.SigningSecret, body); err != nil {
					zap.L().Warn("serve: rejected unsigned event", zap.Error(err))
					http.Error(w, "invalid signature", http.StatusUnauthorized)
					return
				}
			}

			event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
			if err != nil {
				http.Error(w, "parse event", http.StatusBadRequest)
				return
			}

			switch event.Type {
			case slackevents.URLVerification:
				var ch slackevents.ChallengeResponse
				if err := json.Unmarshal(body, &ch); err != nil {
					http.Error(w, "parse challenge", http.StatusBadRequest)
					return
				}
				w.Header().Set("Content-Type", "text/plain")
				w.Write([]byte(ch.Challenge))

			case slackevents.CallbackEvent:
				// Ack before doing any work: Slack retries events that are
				// not answered within three seconds, and the pipeline runs
				// far longer than that.
				w.WriteHeader(http.StatusOK)

				mention, ok := event.InnerEvent.Data.(*slackevents.AppMentionEvent)
				if !ok {
					return
				}

				go env.orch.Handle(ctx, orchestrator.Request{
					ChannelID: mention.Channel,
					ThreadTS:  mention.ThreadTimeStamp,
					EventTS:   mention.TimeStamp,
					UserID:    mention.User,
					Question:  stripMention(mention.Text),
				})

			default:
				w.WriteHeader(http.StatusOK)
			}
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// verifySignature checks the Slack request signature.
func verifySignature(header http.Header, secret string, body []byte) error {
	sv, err := slack.NewSecretsVerifier(header, secret)
	if err != nil {
		return err
	}
	if _, err := sv.Write(body); err != nil {
		return err
	}
	return sv.Ensure()
}

// stripMention removes user mentions from the event text, leaving the
// question itself.
func stripMention(text string) string {
	return strings.TrimSpace(mentionPattern.ReplaceAllString(text, ""))
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
