package timeline

import (
	"sort"
	"strings"

	"github.com/sells-group/dealbot/pkg/hubspot"
)

// NoActivitySentinel is returned when every input collection is empty. It
// is a literal, never "", so prompt templates can distinguish "no data"
// from a missing section.
const NoActivitySentinel = "No recent activity on this deal."

// DefaultMaxItems caps the merged timeline length (most-recent-first).
const DefaultMaxItems = 30

// Merge projects each record to a rendered line, unions all kinds, sorts
// non-increasing by timestamp (missing timestamps sort as epoch 0, i.e.
// oldest), truncates to maxItems, and joins with newlines. maxItems <= 0
// uses DefaultMaxItems.
func Merge(emails, calls, meetings, notes []hubspot.Object, maxItems int) string {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}

	activities := make([]Activity, 0, len(emails)+len(calls)+len(meetings)+len(notes))
	for _, obj := range emails {
		activities = append(activities, project(KindEmail, obj))
	}
	for _, obj := range calls {
		activities = append(activities, project(KindCall, obj))
	}
	for _, obj := range meetings {
		activities = append(activities, project(KindMeeting, obj))
	}
	for _, obj := range notes {
		activities = append(activities, project(KindNote, obj))
	}

	if len(activities) == 0 {
		return NoActivitySentinel
	}

	sort.SliceStable(activities, func(i, j int) bool {
		return activities[i].TimestampMs > activities[j].TimestampMs
	})

	if len(activities) > maxItems {
		activities = activities[:maxItems]
	}

	lines := make([]string, len(activities))
	for i, a := range activities {
		lines[i] = a.Line
	}
	return strings.Join(lines, "\n")
}
