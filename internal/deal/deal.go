// Package deal resolves the CRM deal under discussion and its linked
// records.
package deal

import (
	"strconv"
	"time"

	"github.com/sells-group/dealbot/pkg/hubspot"
)

// Properties is the property projection requested for deal records.
var Properties = []string{
	"dealname", "dealstage", "pipeline", "amount",
	"closedate", "createdate", "hubspot_owner_id",
}

// Deal is an immutable snapshot of a CRM deal, fetched fresh per request.
type Deal struct {
	ID          string
	Name        string
	Stage       string
	Pipeline    string
	Amount      string
	OwnerID     string
	CreatedAtMs int64
	ClosedAtMs  int64
}

// FromObject builds a Deal from a raw CRM record.
func FromObject(obj hubspot.Object) Deal {
	return Deal{
		ID:          obj.ID,
		Name:        obj.Prop("dealname"),
		Stage:       obj.Prop("dealstage"),
		Pipeline:    obj.Prop("pipeline"),
		Amount:      obj.Prop("amount"),
		OwnerID:     obj.Prop("hubspot_owner_id"),
		CreatedAtMs: parseTimeMs(obj.Prop("createdate")),
		ClosedAtMs:  parseTimeMs(obj.Prop("closedate")),
	}
}

// Select picks the best match from search results: the candidate with the
// most recent close date wins. Returns nil for an empty result set, which
// is the typed "no deal found" outcome, not an error.
func Select(results []hubspot.Object) *Deal {
	if len(results) == 0 {
		return nil
	}

	best := FromObject(results[0])
	for _, obj := range results[1:] {
		candidate := FromObject(obj)
		if candidate.ClosedAtMs > best.ClosedAtMs {
			best = candidate
		}
	}
	return &best
}

// parseTimeMs accepts epoch milliseconds or RFC 3339 and returns epoch
// milliseconds, 0 when absent or unparseable.
func parseTimeMs(raw string) int64 {
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
