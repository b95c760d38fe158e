package deal

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/dealbot/pkg/hubspot"
)

// Associations holds the linked record ids for one deal. The ids are
// lookup keys only; they are discarded once the records are materialized.
type Associations struct {
	ContactIDs []string
	CompanyIDs []string
}

// ResolveAssociations looks up contact and company associations
// concurrently. Each relation is independently fallible: a failure yields
// an empty list for that relation and never aborts the other, so a deal
// with unreadable company links still surfaces its contacts.
func ResolveAssociations(ctx context.Context, crm hubspot.Client, dealID string) Associations {
	var assoc Associations

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ids, err := crm.Associations(gCtx, "deals", dealID, "contacts")
		if err != nil {
			zap.L().Warn("deal: contact associations unavailable",
				zap.String("deal_id", dealID),
				zap.Error(err),
			)
			return nil
		}
		assoc.ContactIDs = ids
		return nil
	})

	g.Go(func() error {
		ids, err := crm.Associations(gCtx, "deals", dealID, "companies")
		if err != nil {
			zap.L().Warn("deal: company associations unavailable",
				zap.String("deal_id", dealID),
				zap.Error(err),
			)
			return nil
		}
		assoc.CompanyIDs = ids
		return nil
	})

	_ = g.Wait() // both goroutines swallow their errors

	return assoc
}
