package orchestrator

import (
	"fmt"
	"strings"
	"time"

	"github.com/sells-group/dealbot/internal/deal"
	"github.com/sells-group/dealbot/internal/threadcache"
	"github.com/sells-group/dealbot/pkg/hubspot"
	"github.com/sells-group/dealbot/pkg/slackchat"
)

// bundle is everything phase 3 assembled for synthesis.
type bundle struct {
	deal      *deal.Deal
	ownerName string
	contacts  []hubspot.Object
	companies []hubspot.Object
	timeline  string
	history   []slackchat.Message
	thread    *threadcache.Context
	question  string
}

// buildPrompt renders the bundle into the synthesis prompt.
func buildPrompt(b *bundle) string {
	var sb strings.Builder

	sb.WriteString("You are a sales assistant answering a question about one deal. ")
	sb.WriteString("Answer concisely from the context below; say so when the context doesn't cover the question.\n\n")

	sb.WriteString("## Deal\n")
	fmt.Fprintf(&sb, "Name: %s\nStage: %s\nPipeline: %s\n", b.deal.Name, b.deal.Stage, b.deal.Pipeline)
	if b.deal.Amount != "" {
		fmt.Fprintf(&sb, "Amount: %s\n", b.deal.Amount)
	}
	if b.deal.ClosedAtMs > 0 {
		fmt.Fprintf(&sb, "Close date: %s\n", time.UnixMilli(b.deal.ClosedAtMs).UTC().Format("2006-01-02"))
	}
	if b.ownerName != "" {
		fmt.Fprintf(&sb, "Owner: %s\n", b.ownerName)
	}

	if len(b.contacts) > 0 {
		sb.WriteString("\n## Contacts\n")
		for _, c := range b.contacts {
			fmt.Fprintf(&sb, "- %s %s (%s)\n", c.Prop("firstname"), c.Prop("lastname"), c.Prop("email"))
		}
	}

	if len(b.companies) > 0 {
		sb.WriteString("\n## Companies\n")
		for _, c := range b.companies {
			fmt.Fprintf(&sb, "- %s\n", c.Prop("name"))
		}
	}

	sb.WriteString("\n## Activity timeline\n")
	sb.WriteString(b.timeline)
	sb.WriteString("\n")

	if len(b.history) > 0 {
		sb.WriteString("\n## Recent channel discussion\n")
		for _, m := range b.history {
			fmt.Fprintf(&sb, "%s: %s\n", m.User, m.Text)
		}
	}

	if b.thread != nil && len(b.thread.Messages) > 0 {
		sb.WriteString("\n## Earlier turns in this thread\n")
		for _, m := range b.thread.Messages {
			fmt.Fprintf(&sb, "%s: %s\n", m.Speaker, m.Text)
		}
	}

	sb.WriteString("\n## Question\n")
	sb.WriteString(b.question)
	sb.WriteString("\n")

	return sb.String()
}
