package orchestrator

import (
	"regexp"
	"strings"
)

// FetchKinds marks which activity collections phase 3 requests. Emails and
// notes are always fetched; calls and meetings only when the question asks
// about conversations, keeping the fan-out bounded for questions that
// don't need them.
type FetchKinds struct {
	Emails   bool
	Notes    bool
	Calls    bool
	Meetings bool
}

// Matching either call or meeting vocabulary enables both kinds: users mix
// the two terms when asking about conversations.
var activityPattern = regexp.MustCompile(
	`\b(call|calls|called|phone|spoke|speak|talk|talked|meeting|meetings|meet|met|demo|discussed|conversation)\b`,
)

// ClassifyQuestion inspects the question text and decides which activity
// kinds to fetch.
func ClassifyQuestion(text string) FetchKinds {
	kinds := FetchKinds{Emails: true, Notes: true}

	if activityPattern.MatchString(strings.ToLower(text)) {
		kinds.Calls = true
		kinds.Meetings = true
	}

	return kinds
}
