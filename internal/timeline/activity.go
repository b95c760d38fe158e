// Package timeline normalizes CRM activity records (emails, calls,
// meetings, notes) into one chronologically ordered, prompt-ready text
// block.
package timeline

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sells-group/dealbot/pkg/hubspot"
)

// Kind tags an activity record. Adding a kind means adding a constant, a
// property set, and a case in project — a closed, typed extension.
type Kind string

const (
	KindEmail   Kind = "email"
	KindCall    Kind = "call"
	KindMeeting Kind = "meeting"
	KindNote    Kind = "note"
)

// Activity is the common projection of every kind.
type Activity struct {
	Kind        Kind
	TimestampMs int64
	Line        string
}

// renderLineMax bounds one rendered line, keeping prompt size predictable.
const renderLineMax = 300

// Property sets requested from the CRM per kind.
var (
	EmailProperties   = []string{"hs_timestamp", "hs_email_subject", "hs_email_text", "hs_email_direction"}
	CallProperties    = []string{"hs_timestamp", "hs_call_title", "hs_call_body", "hs_call_duration", "hs_call_direction"}
	MeetingProperties = []string{"hs_timestamp", "hs_meeting_title", "hs_meeting_outcome", "hs_meeting_body"}
	NoteProperties    = []string{"hs_timestamp", "hs_note_body"}
)

// project converts one raw CRM record into an Activity with a rendered line.
func project(kind Kind, obj hubspot.Object) Activity {
	ts := parseTimestamp(obj.Prop("hs_timestamp"))

	var line string
	switch kind {
	case KindEmail:
		line = renderEmail(obj)
	case KindCall:
		line = renderCall(obj)
	case KindMeeting:
		line = renderMeeting(obj)
	case KindNote:
		line = renderNote(obj)
	}

	return Activity{Kind: kind, TimestampMs: ts, Line: truncate(line, renderLineMax)}
}

func renderEmail(obj hubspot.Object) string {
	direction := "sent"
	if strings.EqualFold(obj.Prop("hs_email_direction"), "INCOMING_EMAIL") {
		direction = "received"
	}

	subject := obj.Prop("hs_email_subject")
	if subject == "" {
		subject = "(no subject)"
	}

	line := fmt.Sprintf("[%s] Email (%s): %s", dateOf(obj), direction, subject)
	if body := clean(obj.Prop("hs_email_text")); body != "" {
		line += " — " + body
	}
	return line
}

func renderCall(obj hubspot.Object) string {
	title := obj.Prop("hs_call_title")
	if title == "" {
		title = "Call"
	}

	line := fmt.Sprintf("[%s] Call: %s", dateOf(obj), title)
	if d := callDuration(obj.Prop("hs_call_duration")); d != "" {
		line += " (" + d + ")"
	}
	if body := clean(obj.Prop("hs_call_body")); body != "" {
		line += " — " + body
	}
	return line
}

func renderMeeting(obj hubspot.Object) string {
	title := obj.Prop("hs_meeting_title")
	if title == "" {
		title = "Meeting"
	}

	line := fmt.Sprintf("[%s] Meeting: %s", dateOf(obj), title)
	if outcome := obj.Prop("hs_meeting_outcome"); outcome != "" {
		line += " [" + strings.ToLower(outcome) + "]"
	}
	if body := clean(obj.Prop("hs_meeting_body")); body != "" {
		line += " — " + body
	}
	return line
}

func renderNote(obj hubspot.Object) string {
	body := clean(obj.Prop("hs_note_body"))
	if body == "" {
		body = "(empty note)"
	}
	return fmt.Sprintf("[%s] Note: %s", dateOf(obj), body)
}

// dateOf formats the record's timestamp as a date, or "undated".
func dateOf(obj hubspot.Object) string {
	ms := parseTimestamp(obj.Prop("hs_timestamp"))
	if ms == 0 {
		return "undated"
	}
	return time.UnixMilli(ms).UTC().Format("2006-01-02")
}

// parseTimestamp accepts epoch milliseconds or RFC 3339; the CRM emits both
// depending on the record's origin. Unparseable values sort as epoch 0.
func parseTimestamp(raw string) int64 {
	if raw == "" {
		return 0
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return ms
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts.UnixMilli()
	}
	return 0
}

// callDuration renders a millisecond duration as "12m" / "45s".
func callDuration(raw string) string {
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ms <= 0 {
		return ""
	}
	d := time.Duration(ms) * time.Millisecond
	if d >= time.Minute {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return fmt.Sprintf("%ds", int(d.Seconds()))
}

// truncate caps s at limit runes, appending an ellipsis when cut.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
